package patterns

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codeflow/sentinel/internal/chunker"
	"github.com/codeflow/sentinel/internal/models"
)

// SQLiteSource implements Source using a local SQLite database.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens or creates the pattern database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create pattern db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS code_patterns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pattern_type TEXT NOT NULL,
		language TEXT NOT NULL DEFAULT '',
		pattern_hash TEXT UNIQUE NOT NULL,
		pattern_data TEXT NOT NULL,
		frequency INTEGER DEFAULT 1,
		success_rate REAL DEFAULT 0.0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_patterns_language ON code_patterns(language);

	CREATE TABLE IF NOT EXISTS developer_feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		suggestion_type TEXT NOT NULL,
		was_accepted BOOLEAN,
		was_modified BOOLEAN,
		feedback_text TEXT,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Find returns patterns tagged with any of the given languages, ordered by
// frequency then success rate, descending. Language matching is
// case-insensitive; an empty list matches everything.
func (s *SQLiteSource) Find(ctx context.Context, languages []string, limit int) ([]*models.CodePattern, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT id, pattern_type, language, pattern_data, frequency, success_rate, created_at, updated_at
		FROM code_patterns`
	args := make([]interface{}, 0, len(languages)+1)
	if len(languages) > 0 {
		placeholders := make([]string, len(languages))
		for i, lang := range languages {
			placeholders[i] = "?"
			args = append(args, strings.ToLower(lang))
		}
		query += fmt.Sprintf(" WHERE lower(language) IN (%s)", strings.Join(placeholders, ", "))
	}
	query += " ORDER BY frequency DESC, success_rate DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []*models.CodePattern
	for rows.Next() {
		var p models.CodePattern
		if err := rows.Scan(&p.ID, &p.Type, &p.Language, &p.Text, &p.Frequency, &p.SuccessRate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		patterns = append(patterns, &p)
	}
	return patterns, rows.Err()
}

// Record stores a pattern, keyed by the hash of its text. Re-recording an
// existing pattern increments its frequency instead of duplicating it.
func (s *SQLiteSource) Record(ctx context.Context, p *models.CodePattern) error {
	hash := chunker.HashContent(p.Text)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO code_patterns (pattern_type, language, pattern_hash, pattern_data, frequency, success_rate)
		 VALUES (?, ?, ?, ?, 1, ?)
		 ON CONFLICT(pattern_hash) DO UPDATE SET
			frequency = frequency + 1,
			updated_at = CURRENT_TIMESTAMP`,
		p.Type, strings.ToLower(p.Language), hash, p.Text, p.SuccessRate,
	)
	if err != nil {
		return fmt.Errorf("record pattern: %w", err)
	}
	return nil
}

// RecordFeedback stores a developer's response to a suggestion.
func (s *SQLiteSource) RecordFeedback(ctx context.Context, fb *models.Feedback) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO developer_feedback (file_path, suggestion_type, was_accepted, was_modified, feedback_text)
		 VALUES (?, ?, ?, ?, ?)`,
		fb.FilePath, fb.SuggestionType, fb.Accepted, fb.Modified, fb.Comment,
	)
	if err != nil {
		return fmt.Errorf("record feedback: %w", err)
	}
	return nil
}

// Stats returns pattern and feedback counts with the overall acceptance rate.
func (s *SQLiteSource) Stats(ctx context.Context) (*models.PatternStats, error) {
	stats := &models.PatternStats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM code_patterns`).Scan(&stats.Patterns); err != nil {
		return nil, fmt.Errorf("count patterns: %w", err)
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN was_accepted THEN 1 ELSE 0 END), 0)
		 FROM developer_feedback`,
	).Scan(&stats.TotalFeedback, &stats.Accepted)
	if err != nil {
		return nil, fmt.Errorf("count feedback: %w", err)
	}
	if stats.TotalFeedback > 0 {
		stats.AcceptanceRate = float64(stats.Accepted) / float64(stats.TotalFeedback)
	}
	return stats, nil
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
