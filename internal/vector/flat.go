package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/codeflow/sentinel/internal/models"
)

const (
	vectorsFile  = "vectors.json"
	metadataFile = "metadata.json"
)

// FlatIndex is an exact vector index using brute-force cosine similarity.
// It is the correctness reference: O(n*d) per search, stable descending
// ordering. Suitable for repository-scale corpora.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
	chunks     []models.Chunk
	mu         sync.RWMutex
	logger     *zap.Logger // optional; when set, logs snapshot warnings
}

// FlatOption configures a FlatIndex.
type FlatOption func(*FlatIndex)

// WithLogger sets a logger for snapshot load/save warnings.
func WithLogger(l *zap.Logger) FlatOption {
	return func(f *FlatIndex) { f.logger = l }
}

// NewFlatIndex creates an exact index with the given dimension.
func NewFlatIndex(dimensions int, opts ...FlatOption) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	f := &FlatIndex{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
		chunks:     make([]models.Chunk, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Kind returns the backend identifier.
func (f *FlatIndex) Kind() string {
	return string(BackendFlat)
}

// Add appends vectors with position-aligned chunk metadata. All dimensions
// are validated up front so a failed Add leaves the index untouched.
func (f *FlatIndex) Add(ctx context.Context, vectors [][]float32, chunks []models.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("add: %w: %d vectors, %d chunks", ErrInvalidArgument, len(vectors), len(chunks))
	}
	for _, vec := range vectors {
		if len(vec) != f.dimensions {
			return fmt.Errorf("add: %w: got %d, expected %d", ErrDimensionMismatch, len(vec), f.dimensions)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, vec := range vectors {
		cp := make([]float32, f.dimensions)
		copy(cp, vec)
		f.vectors = append(f.vectors, cp)
		f.chunks = append(f.chunks, chunks[i])
	}
	return nil
}

// Search returns the top-k entries by cosine similarity, descending, with
// insertion order breaking ties. Empty index returns an empty result.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("search: %w: got %d, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}
	type scored struct {
		pos   int
		score float64
	}
	scores := make([]scored, len(f.vectors))
	for i, vec := range f.vectors {
		scores[i] = scored{pos: i, score: CosineSimilarity(query, vec)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}
	results := make([]*Result, k)
	for i := 0; i < k; i++ {
		results[i] = &Result{Chunk: f.chunks[scores[i].pos], Score: scores[i].score}
	}
	return results, nil
}

// Save writes the snapshot under dir, creating it if absent. The two files
// are written one after the other without a rename step, so a crash in
// between can leave them inconsistent; Load treats that as an empty index.
func (f *FlatIndex) Save(dir string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	vecData, err := json.Marshal(f.vectors)
	if err != nil {
		return fmt.Errorf("marshal vectors: %w", err)
	}
	metaData, err := json.Marshal(f.chunks)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, vectorsFile), vecData, 0644); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), metaData, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Load restores the snapshot from dir, replacing in-memory contents. A
// missing, unparsable, or length-mismatched snapshot is treated as absent:
// the index starts empty and no error is returned.
func (f *FlatIndex) Load(dir string) error {
	if dir == "" {
		return nil
	}
	vectors, chunks, ok := readSnapshot(dir, f.dimensions, f.logger)
	f.mu.Lock()
	defer f.mu.Unlock()
	if !ok {
		f.vectors = make([][]float32, 0)
		f.chunks = make([]models.Chunk, 0)
		return nil
	}
	f.vectors = vectors
	f.chunks = chunks
	return nil
}

// readSnapshot reads and validates the two-file snapshot. ok is false when
// the snapshot is missing or corrupt.
func readSnapshot(dir string, dimensions int, logger *zap.Logger) (vectors [][]float32, chunks []models.Chunk, ok bool) {
	vecData, err := os.ReadFile(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, nil, false
	}
	metaData, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, nil, false
	}
	if err := json.Unmarshal(vecData, &vectors); err != nil {
		warn(logger, "discarding corrupt vector snapshot", dir, err)
		return nil, nil, false
	}
	if err := json.Unmarshal(metaData, &chunks); err != nil {
		warn(logger, "discarding corrupt metadata snapshot", dir, err)
		return nil, nil, false
	}
	if len(vectors) != len(chunks) {
		warn(logger, "discarding snapshot with mismatched lengths", dir, nil)
		return nil, nil, false
	}
	for _, vec := range vectors {
		if len(vec) != dimensions {
			warn(logger, "discarding snapshot with wrong dimensionality", dir, nil)
			return nil, nil, false
		}
	}
	return vectors, chunks, true
}

func warn(logger *zap.Logger, msg, dir string, err error) {
	if logger == nil {
		return
	}
	fields := []zap.Field{zap.String("dir", dir)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.Warn(msg, fields...)
}

// Clear removes all entries and deletes the on-disk snapshot files.
func (f *FlatIndex) Clear(dir string) error {
	f.mu.Lock()
	f.vectors = make([][]float32, 0)
	f.chunks = make([]models.Chunk, 0)
	f.mu.Unlock()
	return removeSnapshot(dir)
}

func removeSnapshot(dir string) error {
	if dir == "" {
		return nil
	}
	for _, name := range []string{vectorsFile, metadataFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// Stats returns the current entry count, dimensionality, and backend kind.
func (f *FlatIndex) Stats() models.IndexStats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return models.IndexStats{
		Vectors:    len(f.vectors),
		Dimensions: f.dimensions,
		Backend:    f.Kind(),
	}
}

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error {
	return nil
}
