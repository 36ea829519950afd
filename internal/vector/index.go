// Package vector provides vector index implementations and similarity search
// over embedded chunks.
package vector

import (
	"context"
	"errors"

	"github.com/codeflow/sentinel/internal/models"
)

// Errors surfaced by index operations. Both indicate caller misuse and are
// wrapped with detail; test with errors.Is.
var (
	// ErrInvalidArgument is returned when the vectors and metadata slices
	// passed to Add differ in length.
	ErrInvalidArgument = errors.New("vectors and metadata length mismatch")
	// ErrDimensionMismatch is returned when a vector's length does not match
	// the index dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// VectorIndex defines vector storage and similarity search over (vector,
// chunk) entries. All vectors in one index share a dimensionality fixed at
// construction; entries are append-only and their position is their identity.
type VectorIndex interface {
	// Add appends vectors with position-aligned chunk metadata.
	Add(ctx context.Context, vectors [][]float32, chunks []models.Chunk) error
	// Search returns up to k entries ranked by cosine similarity, descending,
	// with insertion order breaking ties. An empty index yields an empty
	// result, never an error.
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	// Save persists the index under dir as a two-file JSON snapshot
	// (vectors.json + metadata.json). The write is not atomic: a crash
	// between the two files can leave them inconsistent.
	Save(dir string) error
	// Load restores a snapshot from dir. A missing, unparsable, or
	// length-mismatched snapshot leaves the index empty and returns nil.
	Load(dir string) error
	// Clear removes all entries and deletes the on-disk snapshot.
	Clear(dir string) error
	Stats() models.IndexStats
	Kind() string
	Close() error
}

// Result is a single similarity hit.
type Result struct {
	Chunk models.Chunk
	Score float64 // cosine similarity in [-1, 1]
}
