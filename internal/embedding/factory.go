package embedding

import (
	"fmt"

	"github.com/codeflow/sentinel/internal/config"
)

// New creates an embedder from config and wraps it with an LRU cache.
// Supported providers: "openai" (default), "mock".
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)
	switch cfg.Provider {
	case "openai", "":
		inner, err = NewOpenAIEmbedder("", cfg.Model, cfg.Dimensions)
	case "mock":
		inner = NewMockEmbedder(cfg.Dimensions)
	default:
		err = fmt.Errorf("unknown embedding provider: %s (supported: openai, mock)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
