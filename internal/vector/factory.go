package vector

import (
	"fmt"

	"go.uber.org/zap"
)

// BackendKind identifies a vector index backend.
type BackendKind string

const (
	// BackendFlat is the exact brute-force backend, always available.
	BackendFlat BackendKind = "flat"
	// BackendFAISS is the accelerated backend. Requires the FAISS library
	// and build tag -tags=faiss.
	BackendFAISS BackendKind = "faiss"
	// BackendAuto selects FAISS when available, falling back to flat.
	BackendAuto BackendKind = "auto"
)

// New creates a vector index of the requested kind. For "auto" and "faiss"
// the accelerated backend is probed once, here; if construction fails the
// exact backend is used instead and a warning is logged. Callers observe
// identical search behavior either way, and the choice holds for the index's
// lifetime.
func New(kind string, dimensions int, logger *zap.Logger) (VectorIndex, error) {
	switch BackendKind(kind) {
	case BackendFlat:
		return NewFlatIndex(dimensions, WithLogger(logger))
	case BackendFAISS, BackendAuto, "":
		idx, err := NewFAISSIndex(dimensions)
		if err == nil {
			return idx, nil
		}
		if logger != nil {
			logger.Warn("accelerated vector backend unavailable, using exact search", zap.Error(err))
		}
		return NewFlatIndex(dimensions, WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown index backend: %s (supported: auto, flat, faiss)", kind)
	}
}
