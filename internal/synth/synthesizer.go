// Package synth derives a retrieval query from a parsed code diff and merges
// retrieved passages with local pattern matches into a context bundle.
package synth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/codeflow/sentinel/internal/config"
	"github.com/codeflow/sentinel/internal/models"
	"github.com/codeflow/sentinel/internal/patterns"
	"github.com/codeflow/sentinel/internal/retriever"
)

// Path tokens in the stop-list never become key terms.
var stopTerms = map[string]bool{
	"src":  true,
	"lib":  true,
	"test": true,
	"spec": true,
}

// minTermLen is the minimum key-term length; shorter path tokens carry too
// little signal ("db", "id", "ui").
const minTermLen = 3

// Synthesizer turns a changed-file list into a retrieval query and assembles
// the merged context bundle. Deterministic for fixed index and pattern state.
type Synthesizer struct {
	retriever *retriever.Retriever
	patterns  patterns.Source
	cfg       *config.RetrievalConfig
	logger    *zap.Logger
}

// New creates a synthesizer. source may be nil when no pattern database is
// configured; the bundle then carries zero patterns.
func New(r *retriever.Retriever, source patterns.Source, cfg *config.RetrievalConfig, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		retriever: r,
		patterns:  source,
		cfg:       cfg,
		logger:    logger,
	}
}

// Synthesize builds the context bundle for a code change: compose the query,
// retrieve passages, fetch and filter local patterns, and merge. Both lookups
// are best-effort; an empty change list yields an empty bundle.
func (s *Synthesizer) Synthesize(ctx context.Context, files []models.ChangedFile) *models.ContextBundle {
	if len(files) == 0 {
		return &models.ContextBundle{}
	}
	query := s.ComposeQuery(files)
	chunks := s.retriever.Retrieve(ctx, query, s.cfg.TopK)
	matched := s.matchPatterns(ctx, files)

	s.logger.Debug("context synthesized",
		zap.String("query", query),
		zap.Int("chunks", len(chunks)),
		zap.Int("patterns", len(matched)),
	)
	return &models.ContextBundle{
		RetrievedChunks:   chunks,
		PatternMatches:    matched,
		QueryText:         query,
		ContextChunksUsed: len(chunks),
		PatternsMatched:   len(matched),
	}
}

// ComposeQuery builds the retrieval query text:
// "<classification> in <languages> files: <key terms>".
func (s *Synthesizer) ComposeQuery(files []models.ChangedFile) string {
	classification := Classify(files)
	languages := distinctLanguages(files)
	terms := s.ExtractKeyTerms(files)
	return fmt.Sprintf("%s in %s files: %s",
		classification,
		strings.Join(languages, ", "),
		strings.Join(terms, " "),
	)
}

// Classify labels the change "new feature" when total additions outweigh
// deletions more than 2:1, else "code modification".
func Classify(files []models.ChangedFile) string {
	var additions, deletions int
	for _, f := range files {
		additions += f.Additions
		deletions += f.Deletions
	}
	if additions > 2*deletions {
		return "new feature"
	}
	return "code modification"
}

// ExtractKeyTerms collects up to MaxKeyTerms distinct terms from the file
// paths, in file-iteration order. Paths are split on separators, hyphens,
// underscores, and dots after stripping the extension; tokens shorter than
// three characters or in the stop-list are discarded.
func (s *Synthesizer) ExtractKeyTerms(files []models.ChangedFile) []string {
	max := s.cfg.MaxKeyTerms
	if max <= 0 {
		max = 5
	}
	seen := make(map[string]bool)
	var terms []string
	for _, f := range files {
		for _, tok := range pathTokens(f.Path) {
			if len(terms) >= max {
				return terms
			}
			if len(tok) < minTermLen || stopTerms[tok] || seen[tok] {
				continue
			}
			seen[tok] = true
			terms = append(terms, tok)
		}
	}
	return terms
}

// pathTokens lowercases a path, strips its extension, and splits on path
// separators, hyphens, underscores, and dots.
func pathTokens(path string) []string {
	path = strings.ToLower(path)
	if i := strings.LastIndex(path, "."); i > strings.LastIndexAny(path, "/\\") {
		path = path[:i]
	}
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\' || r == '-' || r == '_' || r == '.'
	})
}

// distinctLanguages returns the changed files' languages, deduplicated, in
// file-iteration order.
func distinctLanguages(files []models.ChangedFile) []string {
	seen := make(map[string]bool)
	var langs []string
	for _, f := range files {
		lang := strings.ToLower(f.Language)
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}
	return langs
}

// matchPatterns queries the local pattern source and keeps only patterns
// relevant to at least one changed file. Unavailable source yields zero
// patterns, never an error.
func (s *Synthesizer) matchPatterns(ctx context.Context, files []models.ChangedFile) []*models.CodePattern {
	if s.patterns == nil {
		return nil
	}
	candidates, err := s.patterns.Find(ctx, distinctLanguages(files), s.cfg.MaxPatterns)
	if err != nil {
		s.logger.Warn("pattern source unavailable", zap.Error(err))
		return nil
	}
	var matched []*models.CodePattern
	for _, p := range candidates {
		if patternRelevant(p, files) {
			matched = append(matched, p)
		}
	}
	return matched
}

// patternRelevant reports whether a pattern applies to any changed file:
// either its language tag matches the file's, or its text shares a token
// longer than three characters with the file path.
func patternRelevant(p *models.CodePattern, files []models.ChangedFile) bool {
	patternToks := textTokens(p.Text)
	for _, f := range files {
		if p.Language != "" && strings.EqualFold(p.Language, f.Language) {
			return true
		}
		for _, tok := range pathTokens(f.Path) {
			if len(tok) > minTermLen && patternToks[tok] {
				return true
			}
		}
	}
	return false
}

// textTokens lowercases text and returns its alphanumeric tokens as a set.
func textTokens(text string) map[string]bool {
	toks := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}
