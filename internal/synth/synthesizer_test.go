package synth

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/codeflow/sentinel/internal/config"
	"github.com/codeflow/sentinel/internal/embedding"
	"github.com/codeflow/sentinel/internal/models"
	"github.com/codeflow/sentinel/internal/patterns"
	"github.com/codeflow/sentinel/internal/retriever"
	"github.com/codeflow/sentinel/internal/vector"
)

func testConfig() *config.RetrievalConfig {
	return &config.RetrievalConfig{
		ChunkSize:    200,
		ChunkOverlap: 20,
		TopK:         5,
		MinScore:     0.6,
		MaxKeyTerms:  5,
		MaxPatterns:  10,
	}
}

func testSynthesizer(t *testing.T, source patterns.Source) *Synthesizer {
	t.Helper()
	cfg := testConfig()
	embedder := embedding.NewMockEmbedder(8)
	t.Cleanup(func() { _ = embedder.Close() })
	idx, err := vector.NewFlatIndex(8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	ret, err := retriever.New(embedder, idx, cfg, "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return New(ret, source, cfg, zap.NewNop())
}

// fakeSource serves canned patterns in memory.
type fakeSource struct {
	patterns []*models.CodePattern
	err      error
}

func (f *fakeSource) Find(ctx context.Context, languages []string, limit int) ([]*models.CodePattern, error) {
	return f.patterns, f.err
}
func (f *fakeSource) Record(ctx context.Context, p *models.CodePattern) error { return nil }

func (f *fakeSource) RecordFeedback(ctx context.Context, fb *models.Feedback) error { return nil }

func (f *fakeSource) Stats(ctx context.Context) (*models.PatternStats, error) { return nil, nil }

func (f *fakeSource) Close() error { return nil }

func jwtChangedFiles() []models.ChangedFile {
	return []models.ChangedFile{
		{Path: "src/auth/jwt-validator.ts", Additions: 40, Deletions: 2, Language: "typescript", IsNew: true},
		{Path: "src/auth/jwt-validator.test.ts", Additions: 10, Deletions: 0, Language: "typescript"},
	}
}

func TestComposeQuery(t *testing.T) {
	s := testSynthesizer(t, nil)
	got := s.ComposeQuery(jwtChangedFiles())
	want := "new feature in typescript files: auth jwt validator"
	if got != want {
		t.Errorf("ComposeQuery = %q, want %q", got, want)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		files []models.ChangedFile
		want  string
	}{
		{"heavy additions", []models.ChangedFile{{Additions: 50, Deletions: 2}}, "new feature"},
		{"balanced", []models.ChangedFile{{Additions: 10, Deletions: 10}}, "code modification"},
		{"exactly double", []models.ChangedFile{{Additions: 20, Deletions: 10}}, "code modification"},
		{"just over double", []models.ChangedFile{{Additions: 21, Deletions: 10}}, "new feature"},
		{"deletions only", []models.ChangedFile{{Additions: 0, Deletions: 30}}, "code modification"},
		{"summed across files", []models.ChangedFile{
			{Additions: 5, Deletions: 4},
			{Additions: 15, Deletions: 0},
		}, "new feature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.files); got != tt.want {
				t.Errorf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractKeyTerms(t *testing.T) {
	s := testSynthesizer(t, nil)
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			"stop list and short tokens dropped",
			[]string{"src/auth/jwt-validator.ts"},
			[]string{"auth", "jwt", "validator"},
		},
		{
			"three-char tokens survive",
			[]string{"pkg/api/jwt.go"},
			[]string{"pkg", "api", "jwt"},
		},
		{
			"two-char tokens dropped",
			[]string{"src/db/id.go"},
			nil,
		},
		{
			"deduplicated across files in order",
			[]string{"src/auth/login.ts", "src/auth/logout.ts"},
			[]string{"auth", "login", "logout"},
		},
		{
			"capped at five terms",
			[]string{"alpha/bravo/charlie/delta/echo/foxtrot/golf.ts"},
			[]string{"alpha", "bravo", "charlie", "delta", "echo"},
		},
		{
			"underscores and dots split",
			[]string{"services/user_profile.service.py"},
			[]string{"services", "user", "profile", "service"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := make([]models.ChangedFile, len(tt.paths))
			for i, p := range tt.paths {
				files[i] = models.ChangedFile{Path: p}
			}
			got := s.ExtractKeyTerms(files)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeyTerms(%v) = %v, want %v", tt.paths, got, tt.want)
			}
		})
	}
}

func TestSynthesize_emptyChangeList(t *testing.T) {
	s := testSynthesizer(t, nil)
	bundle := s.Synthesize(context.Background(), nil)
	if bundle == nil {
		t.Fatal("expected a bundle")
	}
	if bundle.QueryText != "" || bundle.ContextChunksUsed != 0 || bundle.PatternsMatched != 0 {
		t.Errorf("expected empty bundle, got %+v", bundle)
	}
}

func TestSynthesize_withoutPatternSource(t *testing.T) {
	s := testSynthesizer(t, nil)
	bundle := s.Synthesize(context.Background(), jwtChangedFiles())
	if bundle.QueryText != "new feature in typescript files: auth jwt validator" {
		t.Errorf("query = %q", bundle.QueryText)
	}
	if bundle.PatternsMatched != 0 {
		t.Errorf("expected no patterns without a source, got %d", bundle.PatternsMatched)
	}
}

func TestSynthesize_patternMatching(t *testing.T) {
	source := &fakeSource{patterns: []*models.CodePattern{
		{ID: 1, Language: "typescript", Text: "prefer const over let"},
		{ID: 2, Language: "python", Text: "use a context manager"},
		{ID: 3, Language: "go", Text: "always close the validator stream"},
	}}
	s := testSynthesizer(t, source)
	bundle := s.Synthesize(context.Background(), jwtChangedFiles())

	ids := make([]int64, len(bundle.PatternMatches))
	for i, p := range bundle.PatternMatches {
		ids[i] = p.ID
	}
	// Pattern 1 matches by language, pattern 3 by the shared "validator"
	// token, pattern 2 matches nothing.
	if !reflect.DeepEqual(ids, []int64{1, 3}) {
		t.Errorf("matched pattern IDs = %v, want [1 3]", ids)
	}
	if bundle.PatternsMatched != 2 {
		t.Errorf("PatternsMatched = %d, want 2", bundle.PatternsMatched)
	}
}

func TestSynthesize_patternSourceFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("database is locked")}
	s := testSynthesizer(t, source)
	bundle := s.Synthesize(context.Background(), jwtChangedFiles())
	if bundle.PatternsMatched != 0 {
		t.Errorf("pattern source failure should yield zero patterns, got %d", bundle.PatternsMatched)
	}
	if bundle.QueryText == "" {
		t.Error("retrieval should still run when the pattern source fails")
	}
}
