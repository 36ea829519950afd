package models

import "time"

// CodePattern is a learned pattern from the local pattern database.
type CodePattern struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Language    string    `json:"language"`
	Text        string    `json:"text"`
	Frequency   int       `json:"frequency"`
	SuccessRate float64   `json:"success_rate"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Feedback records a developer's response to a review suggestion. The pattern
// store aggregates it into acceptance statistics.
type Feedback struct {
	FilePath       string `json:"file_path"`
	SuggestionType string `json:"suggestion_type"`
	Accepted       bool   `json:"accepted"`
	Modified       bool   `json:"modified"`
	Comment        string `json:"comment,omitempty"`
}

// PatternStats summarizes the pattern database contents.
type PatternStats struct {
	Patterns       int     `json:"patterns"`
	TotalFeedback  int     `json:"total_feedback"`
	Accepted       int     `json:"accepted"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}
