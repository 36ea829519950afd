// Package chunker splits raw text into overlapping, boundary-aware segments.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/codeflow/sentinel/internal/models"
)

// boundaryLookback is how far back from a hard cut the chunker searches for a
// sentence-terminal period or newline to snap the cut to.
const boundaryLookback = 100

// Chunker splits text into overlapping character windows, snapping cut points
// to sentence or line boundaries when one falls within boundaryLookback
// characters of the window end.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

// New creates a chunker. overlap must be strictly less than maxChunkSize;
// otherwise the window start would not advance and chunking could never
// terminate, so such configurations are rejected.
func New(maxChunkSize, overlap int) (*Chunker, error) {
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxChunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must be non-negative, got %d", overlap)
	}
	if overlap >= maxChunkSize {
		return nil, fmt.Errorf("overlap %d must be less than chunk size %d", overlap, maxChunkSize)
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlap: overlap}, nil
}

// Chunk splits text into segments. Each segment is at most maxChunkSize
// characters; consecutive segments overlap by up to overlap characters.
// Deterministic: the same text always yields the same segments.
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)/c.maxChunkSize)+1)
	start := 0
	for start < len(runes) {
		end := start + c.maxChunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := c.snapToBoundary(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		next := cut - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// snapToBoundary looks backward from end for the last sentence-terminal
// period or newline within boundaryLookback characters and returns the cut
// position just after it. Falls back to a hard cut at end.
func (c *Chunker) snapToBoundary(runes []rune, start, end int) int {
	limit := end - boundaryLookback
	if limit < start+1 {
		limit = start + 1
	}
	for i := end - 1; i >= limit; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
		if runes[i] == '.' && (i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n') {
			return i + 1
		}
	}
	return end
}

// ChunkDocument chunks text from sourcePath into Chunk records with ordinals,
// totals, and content hashes. IDs embed the source hash plus a short random
// suffix so re-ingested files never collide with stale entries.
func (c *Chunker) ChunkDocument(sourcePath, text string) []models.Chunk {
	segments := c.Chunk(text)
	if len(segments) == 0 {
		return nil
	}
	chunks := make([]models.Chunk, len(segments))
	for i, seg := range segments {
		hash := HashContent(seg)
		chunks[i] = models.Chunk{
			ID:          fmt.Sprintf("%s_%d_%s", hash[:12], i, uuid.New().String()[:8]),
			SourcePath:  sourcePath,
			Content:     seg,
			Ordinal:     i,
			TotalChunks: len(segments),
			ContentHash: hash,
		}
	}
	return chunks
}

// HashContent returns the hex sha256 of content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:])
}
