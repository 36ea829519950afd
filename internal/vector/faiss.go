//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"github.com/codeflow/sentinel/internal/models"
	"github.com/codeflow/sentinel/pkg/utils"
)

// FAISSIndex is the accelerated backend. Vectors are L2-normalized before
// insertion into an IndexFlatIP so inner-product search returns cosine
// similarity, matching FlatIndex exactly. The raw vectors and chunk metadata
// are kept alongside for the JSON snapshot, which stays interchangeable with
// the exact backend's.
type FAISSIndex struct {
	index      *C.FaissIndexFlatIP
	dimensions int
	vectors    [][]float32
	chunks     []models.Chunk
	mu         sync.RWMutex
}

// NewFAISSIndex creates a FAISS-backed index with the given dimension.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	var index *C.FaissIndexFlatIP
	ret := C.faiss_IndexFlatIP_new_with(&index, C.idx_t(dimensions))
	if ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}
	return &FAISSIndex{
		index:      index,
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
		chunks:     make([]models.Chunk, 0),
	}, nil
}

func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Kind returns the backend identifier.
func (f *FAISSIndex) Kind() string {
	return string(BackendFAISS)
}

// Add appends vectors with position-aligned chunk metadata.
func (f *FAISSIndex) Add(ctx context.Context, vectors [][]float32, chunks []models.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("add: %w: %d vectors, %d chunks", ErrInvalidArgument, len(vectors), len(chunks))
	}
	if len(vectors) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(vectors, chunks)
}

func (f *FAISSIndex) addLocked(vectors [][]float32, chunks []models.Chunk) error {
	n := len(vectors)
	flat := make([]float32, n*f.dimensions)
	for i, vec := range vectors {
		if len(vec) != f.dimensions {
			return fmt.Errorf("add: %w: got %d, expected %d", ErrDimensionMismatch, len(vec), f.dimensions)
		}
		row := flat[i*f.dimensions : (i+1)*f.dimensions]
		copy(row, vec)
		utils.NormalizeL2(row)
	}
	ret := C.faiss_Index_add(
		f.index,
		C.idx_t(n),
		(*C.float)(unsafe.Pointer(&flat[0])),
	)
	if ret != 0 {
		return fmt.Errorf("failed to add vectors to FAISS index: %s", faissLastError())
	}
	for i, vec := range vectors {
		cp := make([]float32, f.dimensions)
		copy(cp, vec)
		f.vectors = append(f.vectors, cp)
		f.chunks = append(f.chunks, chunks[i])
	}
	return nil
}

// Search returns the top-k entries by cosine similarity, descending.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("search: %w: got %d, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.chunks) == 0 {
		return nil, nil
	}
	if k > len(f.chunks) {
		k = len(f.chunks)
	}
	q := make([]float32, f.dimensions)
	copy(q, query)
	utils.NormalizeL2(q)

	distances := make([]float32, k)
	labels := make([]int64, k)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&q[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	results := make([]*Result, 0, k)
	for i := 0; i < k; i++ {
		label := labels[i]
		if label < 0 || int(label) >= len(f.chunks) {
			continue
		}
		results = append(results, &Result{
			Chunk: f.chunks[label],
			Score: float64(distances[i]),
		})
	}
	return results, nil
}

// Save writes the same two-file JSON snapshot as the exact backend so the
// on-disk format does not depend on which backend produced it.
func (f *FAISSIndex) Save(dir string) error {
	f.mu.RLock()
	flat := &FlatIndex{dimensions: f.dimensions, vectors: f.vectors, chunks: f.chunks}
	f.mu.RUnlock()
	return flat.Save(dir)
}

// Load restores the snapshot from dir and rebuilds the native index. A
// missing or corrupt snapshot leaves the index empty and returns nil.
func (f *FAISSIndex) Load(dir string) error {
	if dir == "" {
		return nil
	}
	vectors, chunks, ok := readSnapshot(dir, f.dimensions, nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.resetLocked(); err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return f.addLocked(vectors, chunks)
}

func (f *FAISSIndex) resetLocked() error {
	var index *C.FaissIndexFlatIP
	ret := C.faiss_IndexFlatIP_new_with(&index, C.idx_t(f.dimensions))
	if ret != 0 {
		return fmt.Errorf("failed to recreate FAISS index: %s", faissLastError())
	}
	if f.index != nil {
		C.faiss_Index_free(f.index)
	}
	f.index = index
	f.vectors = make([][]float32, 0)
	f.chunks = make([]models.Chunk, 0)
	return nil
}

// Clear removes all entries and deletes the on-disk snapshot files.
func (f *FAISSIndex) Clear(dir string) error {
	f.mu.Lock()
	if err := f.resetLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	return removeSnapshot(dir)
}

// Stats returns the current entry count, dimensionality, and backend kind.
func (f *FAISSIndex) Stats() models.IndexStats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return models.IndexStats{
		Vectors:    len(f.chunks),
		Dimensions: f.dimensions,
		Backend:    f.Kind(),
	}
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}
