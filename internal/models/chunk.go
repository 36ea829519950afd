// Package models defines core data structures for chunks, retrieval results,
// diffs, and code patterns.
package models

// Chunk is a bounded segment of a source document. Chunks are immutable once
// created; re-ingesting a file produces a fresh set.
type Chunk struct {
	ID          string `json:"id"`
	SourcePath  string `json:"source_path"`
	Content     string `json:"content"`
	Ordinal     int    `json:"ordinal"`
	TotalChunks int    `json:"total_chunks"`
	ContentHash string `json:"content_hash"`
}

// IndexStats describes the current state of a vector index.
type IndexStats struct {
	Vectors    int    `json:"vectors"`
	Dimensions int    `json:"dimensions"`
	Backend    string `json:"backend"`
}
