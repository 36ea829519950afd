package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8090 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Storage.IndexBackend != "auto" {
		t.Errorf("IndexBackend = %q, want auto", cfg.Storage.IndexBackend)
	}
	if cfg.Embedding.Provider != "openai" || cfg.Embedding.Dimensions != 1536 {
		t.Errorf("embedding defaults = %s/%d", cfg.Embedding.Provider, cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.ChunkSize != 1000 || cfg.Retrieval.ChunkOverlap != 100 {
		t.Errorf("chunk defaults = %d/%d", cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.MinScore != 0.6 {
		t.Errorf("retrieval defaults = %d/%v", cfg.Retrieval.TopK, cfg.Retrieval.MinScore)
	}
	if len(cfg.Ingest.Extensions) == 0 {
		t.Error("expected default extension allow-list")
	}
	if len(cfg.Ingest.ExcludeDirs) == 0 {
		t.Error("expected default exclude list")
	}
}

func TestApplyDefaults_preservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Retrieval.MinScore = 0.8
	cfg.Storage.IndexBackend = "flat"
	ApplyDefaults(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Retrieval.MinScore != 0.8 {
		t.Errorf("MinScore = %v, want 0.8", cfg.Retrieval.MinScore)
	}
	if cfg.Storage.IndexBackend != "flat" {
		t.Errorf("IndexBackend = %q, want flat", cfg.Storage.IndexBackend)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentinel.yaml")
	data := `debug: true
server:
  port: 7070
storage:
  index_dir: ./idx
  index_backend: flat
retrieval:
  chunk_size: 500
  chunk_overlap: 50
ingest:
  directories:
    - ./docs
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Retrieval.ChunkSize != 500 || cfg.Retrieval.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d", cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	}
	// Defaults fill what the file omits.
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("Model = %q", cfg.Embedding.Model)
	}
	// ./-relative paths resolve against the config directory.
	if want := filepath.Join(dir, "idx"); cfg.Storage.IndexDir != want {
		t.Errorf("IndexDir = %q, want %q", cfg.Storage.IndexDir, want)
	}
	if want := filepath.Join(dir, "docs"); cfg.Ingest.Directories[0] != want {
		t.Errorf("Directories[0] = %q, want %q", cfg.Ingest.Directories[0], want)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not: valid"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentinel.yaml")

	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Server.Port = 6060
	cfg.Storage.IndexDir = filepath.Join(dir, "index")
	cfg.Storage.PatternDBPath = filepath.Join(dir, "patterns.db")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 6060 {
		t.Errorf("Port = %d, want 6060", loaded.Server.Port)
	}
	if loaded.Storage.IndexDir != cfg.Storage.IndexDir {
		t.Errorf("IndexDir = %q, want %q", loaded.Storage.IndexDir, cfg.Storage.IndexDir)
	}
}

func TestRecursiveOrDefault(t *testing.T) {
	w := &WatchConfig{}
	if !w.RecursiveOrDefault() {
		t.Error("unset Recursive should default to true")
	}
	f := false
	w.Recursive = &f
	if w.RecursiveOrDefault() {
		t.Error("explicit false must be honored")
	}
}
