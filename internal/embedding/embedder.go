// Package embedding provides text embedding via a hosted provider, with a
// deterministic mock and an LRU cache wrapper.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations treat the
// underlying provider as unreliable; callers decide how to degrade.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds texts sequentially. If any call fails the whole
	// batch fails and no partial vectors are returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
