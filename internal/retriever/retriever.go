// Package retriever orchestrates ingestion (chunk, embed, index, persist) and
// query-time top-k retrieval.
package retriever

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/codeflow/sentinel/internal/chunker"
	"github.com/codeflow/sentinel/internal/config"
	"github.com/codeflow/sentinel/internal/embedding"
	"github.com/codeflow/sentinel/internal/extract"
	"github.com/codeflow/sentinel/internal/models"
	"github.com/codeflow/sentinel/internal/vector"
)

// Retriever ingests files into the vector index and answers top-k similarity
// queries. Retrieval is best-effort: any failure on the query path degrades
// to an empty result so the caller's primary workflow never aborts.
type Retriever struct {
	embedder  embedding.Embedder
	index     vector.VectorIndex
	chunker   *chunker.Chunker
	extractor *extract.Extractor
	cfg       *config.RetrievalConfig
	indexDir  string
	logger    *zap.Logger
	loadOnce  sync.Once
}

// New creates a retriever. The index snapshot under indexDir is loaded
// lazily, once, on first ingestion or retrieval.
func New(
	embedder embedding.Embedder,
	index vector.VectorIndex,
	cfg *config.RetrievalConfig,
	indexDir string,
	logger *zap.Logger,
) (*Retriever, error) {
	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	return &Retriever{
		embedder:  embedder,
		index:     index,
		chunker:   ch,
		extractor: extract.NewExtractor(),
		cfg:       cfg,
		indexDir:  indexDir,
		logger:    logger,
	}, nil
}

// ensureLoaded loads the persisted snapshot exactly once. A missing or
// corrupt snapshot leaves the index empty; that is not an error.
func (r *Retriever) ensureLoaded() {
	r.loadOnce.Do(func() {
		if err := r.index.Load(r.indexDir); err != nil {
			r.logger.Warn("index snapshot load failed, starting empty", zap.Error(err))
		}
	})
}

// IngestFile chunks, embeds, indexes, and persists a single file. Returns the
// number of chunks added.
func (r *Retriever) IngestFile(ctx context.Context, path string) (int, error) {
	r.ensureLoaded()
	text, err := r.extractor.Extract(path)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", path, err)
	}
	chunks := r.chunker.ChunkDocument(path, text)
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := r.addChunks(ctx, chunks); err != nil {
		return 0, err
	}
	r.persist()
	return len(chunks), nil
}

// IngestDirectory walks root, ingesting every candidate file (extension
// allow-list, directory deny-list). All chunks are embedded and bulk-added,
// then the index is persisted once. Returns files and chunks ingested.
func (r *Retriever) IngestDirectory(ctx context.Context, root string, ingest *config.IngestConfig) (files, chunkCount int, err error) {
	r.ensureLoaded()
	paths, err := enumerateFiles(root, ingest)
	if err != nil {
		return 0, 0, fmt.Errorf("enumerate %s: %w", root, err)
	}
	var all []models.Chunk
	for _, path := range paths {
		text, err := r.extractor.Extract(path)
		if err != nil {
			r.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}
		chunks := r.chunker.ChunkDocument(path, text)
		if len(chunks) == 0 {
			continue
		}
		all = append(all, chunks...)
		files++
	}
	if len(all) == 0 {
		return files, 0, nil
	}
	if err := r.addChunks(ctx, all); err != nil {
		return files, 0, err
	}
	r.persist()
	return files, len(all), nil
}

// addChunks embeds chunk contents sequentially and bulk-adds them to the
// index. An embedding failure aborts the batch; no partial vectors are kept.
func (r *Retriever) addChunks(ctx context.Context, chunks []models.Chunk) error {
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if err := r.index.Add(ctx, vectors, chunks); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	return nil
}

// persist saves the snapshot. A disk failure is logged and swallowed; the
// in-memory index keeps serving.
func (r *Retriever) persist() {
	if err := r.index.Save(r.indexDir); err != nil {
		r.logger.Warn("index snapshot save failed", zap.Error(err))
	}
}

// Retrieve embeds the query, searches the index, and returns up to k results
// at or above the configured minimum score. Errors are logged and degrade to
// an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []*models.RetrievalResult {
	r.ensureLoaded()
	if k <= 0 {
		k = r.cfg.TopK
	}
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed, returning empty context", zap.Error(err))
		return nil
	}
	hits, err := r.index.Search(ctx, queryVec, k)
	if err != nil {
		r.logger.Warn("vector search failed, returning empty context", zap.Error(err))
		return nil
	}
	results := make([]*models.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < r.cfg.MinScore {
			continue
		}
		results = append(results, &models.RetrievalResult{
			Chunk: hit.Chunk,
			Score: hit.Score,
			Rank:  len(results) + 1,
		})
	}
	return results
}

// Clear empties the index and removes its on-disk snapshot.
func (r *Retriever) Clear() error {
	r.ensureLoaded()
	return r.index.Clear(r.indexDir)
}

// Stats returns current index statistics.
func (r *Retriever) Stats() models.IndexStats {
	r.ensureLoaded()
	return r.index.Stats()
}
