package models

// RetrievalResult is a single retrieved chunk with its similarity score.
// Score is cosine similarity in [-1, 1]; Rank is 1-based position in the
// result list.
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// ContextBundle is the merged output of semantic retrieval and local pattern
// matching for one code change. It is handed to a downstream review step;
// this engine never calls a language model itself.
type ContextBundle struct {
	RetrievedChunks   []*RetrievalResult `json:"retrieved_chunks"`
	PatternMatches    []*CodePattern     `json:"pattern_matches"`
	QueryText         string             `json:"query_text"`
	ContextChunksUsed int                `json:"context_chunks_used"`
	PatternsMatched   int                `json:"patterns_matched"`
}
