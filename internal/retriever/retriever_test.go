package retriever

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/codeflow/sentinel/internal/config"
	"github.com/codeflow/sentinel/internal/embedding"
	"github.com/codeflow/sentinel/internal/vector"
)

func testRetrievalConfig() *config.RetrievalConfig {
	return &config.RetrievalConfig{
		ChunkSize:    50,
		ChunkOverlap: 10,
		TopK:         5,
		MinScore:     0.6,
		MaxKeyTerms:  5,
		MaxPatterns:  10,
	}
}

func testRetriever(t *testing.T, indexDir string) *Retriever {
	t.Helper()
	embedder := embedding.NewMockEmbedder(8)
	t.Cleanup(func() { _ = embedder.Close() })
	idx, err := vector.NewFlatIndex(8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	r, err := New(embedder, idx, testRetrievalConfig(), indexDir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_invalidChunkConfig(t *testing.T) {
	embedder := embedding.NewMockEmbedder(8)
	idx, _ := vector.NewFlatIndex(8)
	cfg := testRetrievalConfig()
	cfg.ChunkOverlap = cfg.ChunkSize
	if _, err := New(embedder, idx, cfg, "", zap.NewNop()); err == nil {
		t.Error("expected error when overlap equals chunk size")
	}
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	r := testRetriever(t, filepath.Join(dir, "index"))
	path := writeFile(t, dir, "doc.txt", "Authentication uses signed JWT tokens. Sessions expire after one hour.")

	n, err := r.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Fatal("expected chunks to be ingested")
	}
	if stats := r.Stats(); stats.Vectors != n {
		t.Errorf("index holds %d vectors, ingested %d chunks", stats.Vectors, n)
	}
}

func TestIngestFile_missing(t *testing.T) {
	r := testRetriever(t, "")
	if _, err := r.IngestFile(context.Background(), "/nonexistent/file.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIngestFile_empty(t *testing.T) {
	dir := t.TempDir()
	r := testRetriever(t, "")
	path := writeFile(t, dir, "empty.txt", "")
	n, err := r.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 chunks for empty file, got %d", n)
	}
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "The first document, about request routing tables.")
	writeFile(t, dir, "sub/b.md", "The second document, about connection pool sizing.")
	writeFile(t, dir, "c.bin", "binary payload that must be skipped")
	writeFile(t, dir, "node_modules/dep.txt", "vendored dependency text")
	writeFile(t, dir, ".hidden/d.txt", "hidden directory text")

	r := testRetriever(t, filepath.Join(dir, "index"))
	ingest := &config.IngestConfig{
		Extensions:  []string{".txt", ".md"},
		ExcludeDirs: []string{"node_modules", "index"},
	}
	files, chunks, err := r.IngestDirectory(context.Background(), dir, ingest)
	if err != nil {
		t.Fatal(err)
	}
	if files != 2 {
		t.Errorf("expected 2 files ingested, got %d", files)
	}
	if chunks == 0 {
		t.Error("expected chunks to be ingested")
	}
	if stats := r.Stats(); stats.Vectors != chunks {
		t.Errorf("index holds %d vectors, ingested %d chunks", stats.Vectors, chunks)
	}
}

func TestIngestDirectory_persistsSnapshot(t *testing.T) {
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "index")
	writeFile(t, dir, "docs/a.txt", "Persisted content about cache eviction policy.")

	r := testRetriever(t, indexDir)
	ingest := &config.IngestConfig{Extensions: []string{".txt"}}
	_, chunks, err := r.IngestDirectory(context.Background(), filepath.Join(dir, "docs"), ingest)
	if err != nil {
		t.Fatal(err)
	}

	// A fresh retriever over the same index dir sees the persisted entries.
	fresh := testRetriever(t, indexDir)
	results := fresh.Retrieve(context.Background(), "cache eviction policy", 5)
	if fresh.Stats().Vectors != chunks {
		t.Errorf("restored index holds %d vectors, want %d", fresh.Stats().Vectors, chunks)
	}
	_ = results
}

func TestRetrieve_minScoreFilter(t *testing.T) {
	dir := t.TempDir()
	r := testRetriever(t, "")
	path := writeFile(t, dir, "doc.txt", "Distinct content about websocket streams.")
	if _, err := r.IngestFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}

	// Identical text embeds to an identical vector: similarity 1.0.
	results := r.Retrieve(context.Background(), "Distinct content about websocket streams.", 5)
	if len(results) == 0 {
		t.Fatal("expected the exact text to be retrieved")
	}
	for i, res := range results {
		if res.Score < r.cfg.MinScore {
			t.Errorf("result %d score %v below threshold %v", i, res.Score, r.cfg.MinScore)
		}
		if res.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, res.Rank)
		}
	}
}

func TestRetrieve_emptyIndex(t *testing.T) {
	r := testRetriever(t, "")
	results := r.Retrieve(context.Background(), "anything", 5)
	if len(results) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(results))
	}
}

// failingEmbedder always errors, standing in for an unreachable provider.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("provider unreachable")
}
func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("provider unreachable")
}
func (failingEmbedder) Dimensions() int { return 8 }
func (failingEmbedder) Close() error    { return nil }

func TestRetrieve_degradesToEmptyOnEmbedFailure(t *testing.T) {
	idx, _ := vector.NewFlatIndex(8)
	r, err := New(failingEmbedder{}, idx, testRetrievalConfig(), "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	results := r.Retrieve(context.Background(), "anything", 5)
	if results != nil {
		t.Errorf("expected nil results on embedding failure, got %v", results)
	}
}

func TestIngestFile_embedFailureKeepsIndexClean(t *testing.T) {
	dir := t.TempDir()
	idx, _ := vector.NewFlatIndex(8)
	r, err := New(failingEmbedder{}, idx, testRetrievalConfig(), "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, dir, "doc.txt", "Content that will fail to embed.")
	if _, err := r.IngestFile(context.Background(), path); err == nil {
		t.Fatal("expected ingestion to fail")
	}
	if r.Stats().Vectors != 0 {
		t.Errorf("failed ingestion must not leave partial vectors, got %d", r.Stats().Vectors)
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "index")
	r := testRetriever(t, indexDir)
	path := writeFile(t, dir, "doc.txt", "Content to be cleared away entirely.")
	if _, err := r.IngestFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	if err := r.Clear(); err != nil {
		t.Fatal(err)
	}
	if r.Stats().Vectors != 0 {
		t.Errorf("expected empty index after clear, got %d", r.Stats().Vectors)
	}
	if _, err := os.Stat(filepath.Join(indexDir, "vectors.json")); !os.IsNotExist(err) {
		t.Error("snapshot should be removed after clear")
	}
}

func TestEnumerateFiles_deterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "c.txt", "c")
	paths, err := enumerateFiles(dir, &config.IngestConfig{Extensions: []string{".txt"}})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "c.txt"),
	}
	if len(paths) != len(want) {
		t.Fatalf("got %d paths, want %d", len(paths), len(want))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path %d = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".txt", []string{".txt", ".md"}, true},
		{".md", []string{".txt", ".md"}, true},
		{".go", []string{".txt"}, false},
		{"", []string{".txt"}, false},
		{".txt", nil, false},
	}
	for _, tt := range tests {
		if got := extensionAllowed(tt.ext, tt.allowed); got != tt.want {
			t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}
