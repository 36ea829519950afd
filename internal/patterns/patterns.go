// Package patterns provides the local learned-pattern store consulted during
// context synthesis, backed by SQLite.
package patterns

import (
	"context"

	"github.com/codeflow/sentinel/internal/models"
)

// Source supplies learned code patterns. Lookups are best-effort: an
// unavailable source yields zero patterns at the synthesis layer, never an
// aborted review.
type Source interface {
	// Find returns patterns tagged with any of the given languages, most
	// frequent first. An empty language list matches all patterns.
	Find(ctx context.Context, languages []string, limit int) ([]*models.CodePattern, error)
	// Record stores or reinforces a pattern; repeats bump its frequency.
	Record(ctx context.Context, p *models.CodePattern) error
	// RecordFeedback stores a developer's response to a suggestion.
	RecordFeedback(ctx context.Context, fb *models.Feedback) error
	Stats(ctx context.Context) (*models.PatternStats, error)
	Close() error
}
