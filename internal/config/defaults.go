package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "./.sentinel/index"
	}
	if cfg.Storage.PatternDBPath == "" {
		cfg.Storage.PatternDBPath = "./.sentinel/learning-patterns.db"
	}
	if cfg.Storage.IndexBackend == "" {
		cfg.Storage.IndexBackend = "auto"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 1000
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 100
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.MinScore == 0 {
		cfg.Retrieval.MinScore = 0.6
	}
	if cfg.Retrieval.MaxKeyTerms == 0 {
		cfg.Retrieval.MaxKeyTerms = 5
	}
	if cfg.Retrieval.MaxPatterns == 0 {
		cfg.Retrieval.MaxPatterns = 10
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{
			".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".java", ".rb", ".rs",
			".c", ".cc", ".cpp", ".h", ".cs",
			".md", ".txt", ".pdf",
			".yaml", ".yml", ".json", ".toml",
		}
	}
	if cfg.Ingest.ExcludeDirs == nil {
		cfg.Ingest.ExcludeDirs = []string{
			"node_modules", "vendor", "dist", "build", "target", "out",
			"__pycache__", ".git",
		}
	}
	// Recursive defaults to true when unset (nil).
	if cfg.Watch.Enabled && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
