//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"context"
	"fmt"

	"github.com/codeflow/sentinel/internal/models"
)

// FAISSIndex is a stub that fails construction when FAISS support is not
// compiled in. The factory catches the error and falls back to FlatIndex.
// Build with -tags=faiss to enable FAISS support.
type FAISSIndex struct{}

// NewFAISSIndex returns an error because FAISS is not available.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	return nil, fmt.Errorf("FAISS not available: build with -tags=faiss and install FAISS library")
}

// Add is not implemented without FAISS.
func (f *FAISSIndex) Add(ctx context.Context, vectors [][]float32, chunks []models.Chunk) error {
	return fmt.Errorf("FAISS not available")
}

// Search is not implemented without FAISS.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	return nil, fmt.Errorf("FAISS not available")
}

// Save is not implemented without FAISS.
func (f *FAISSIndex) Save(dir string) error {
	return fmt.Errorf("FAISS not available")
}

// Load is not implemented without FAISS.
func (f *FAISSIndex) Load(dir string) error {
	return fmt.Errorf("FAISS not available")
}

// Clear is not implemented without FAISS.
func (f *FAISSIndex) Clear(dir string) error {
	return fmt.Errorf("FAISS not available")
}

// Stats returns zero stats without FAISS.
func (f *FAISSIndex) Stats() models.IndexStats {
	return models.IndexStats{Backend: string(BackendFAISS)}
}

// Kind returns the backend identifier.
func (f *FAISSIndex) Kind() string {
	return string(BackendFAISS)
}

// Close is a no-op without FAISS.
func (f *FAISSIndex) Close() error {
	return nil
}
