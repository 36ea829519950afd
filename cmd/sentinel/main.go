// Package main is the Sentinel CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/codeflow/sentinel/internal/config"
	"github.com/codeflow/sentinel/internal/diff"
	"github.com/codeflow/sentinel/internal/embedding"
	"github.com/codeflow/sentinel/internal/models"
	"github.com/codeflow/sentinel/internal/patterns"
	"github.com/codeflow/sentinel/internal/retriever"
	"github.com/codeflow/sentinel/internal/server"
	"github.com/codeflow/sentinel/internal/synth"
	"github.com/codeflow/sentinel/internal/vector"
	"github.com/codeflow/sentinel/internal/watcher"
	"github.com/codeflow/sentinel/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "./sentinel.yaml"

func main() {
	// Pick up OPENAI_API_KEY and friends from a local .env when present.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "serve":
		runServe()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "context":
		runContext()
	case "feedback":
		runFeedback()
	case "status":
		runStatus()
	case "clear":
		runClear()
	case "version", "--version", "-v":
		fmt.Printf("sentinel version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default and the file
// does not exist, built-in defaults are used so the tool works out of the box.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, nil
	}
	return config.Load(path)
}

// components holds the initialized engine parts.
type components struct {
	Embedder    embedding.Embedder
	Index       vector.VectorIndex
	Retriever   *retriever.Retriever
	Patterns    patterns.Source
	Synthesizer *synth.Synthesizer
}

func (c *components) Close() {
	if c.Patterns != nil {
		_ = c.Patterns.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	index, err := vector.New(cfg.Storage.IndexBackend, cfg.Embedding.Dimensions, logger)
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}
	ret, err := retriever.New(embedder, index, &cfg.Retrieval, cfg.Storage.IndexDir, logger)
	if err != nil {
		return nil, fmt.Errorf("create retriever: %w", err)
	}
	// Pattern store is best-effort: without it, bundles carry zero patterns.
	var source patterns.Source
	if cfg.Storage.PatternDBPath != "" {
		sqlSource, err := patterns.NewSQLiteSource(cfg.Storage.PatternDBPath)
		if err != nil {
			logger.Warn("pattern store unavailable", zap.Error(err))
		} else {
			source = sqlSource
		}
	}
	return &components{
		Embedder:    embedder,
		Index:       index,
		Retriever:   ret,
		Patterns:    source,
		Synthesizer: synth.New(ret, source, &cfg.Retrieval, logger),
	}, nil
}

func setup(fs *flag.FlagSet, args []string) (*config.Config, *zap.Logger, *components) {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, comps
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg, logger, comps := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer comps.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled && len(cfg.Ingest.Directories) > 0 {
		watchSvc := watcher.New(
			cfg.Ingest.Directories,
			cfg.Ingest.Extensions,
			cfg.Ingest.ExcludeDirs,
			cfg.Watch.RecursiveOrDefault(),
			func(path string) {
				if _, err := comps.Retriever.IngestFile(context.Background(), path); err != nil {
					logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(comps.Synthesizer, comps.Retriever, comps.Patterns, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	cfg, logger, comps := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer comps.Close()

	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = cfg.Ingest.Directories
	}
	if len(dirs) == 0 {
		fmt.Println("Usage: sentinel ingest [flags] <dir> [dir...]")
		os.Exit(1)
	}
	ctx := context.Background()
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			logger.Fatal("resolve path failed", zap.String("dir", dir), zap.Error(err))
		}
		files, chunks, err := comps.Retriever.IngestDirectory(ctx, abs, &cfg.Ingest)
		if err != nil {
			logger.Fatal("ingestion failed", zap.String("dir", abs), zap.Error(err))
		}
		fmt.Printf("Ingested %d files (%d chunks) from %s\n", files, chunks, abs)
	}
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	topK := fs.Int("k", 0, "number of results (default from config)")
	_, logger, comps := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer comps.Close()

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Println("Usage: sentinel query [flags] <query text>")
		os.Exit(1)
	}
	results := comps.Retriever.Retrieve(context.Background(), query, *topK)
	printJSON(map[string]interface{}{"query": query, "results": results})
}

func runContext() {
	fs := flag.NewFlagSet("context", flag.ExitOnError)
	diffPath := fs.String("diff", "-", "diff file path, or - for stdin")
	_, logger, comps := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer comps.Close()

	var (
		data []byte
		err  error
	)
	if *diffPath == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*diffPath)
	}
	if err != nil {
		logger.Fatal("read diff failed", zap.Error(err))
	}
	files := diff.Parse(string(data))
	if len(files) == 0 {
		fmt.Println("No changed files found in diff")
		os.Exit(1)
	}
	bundle := comps.Synthesizer.Synthesize(context.Background(), files)
	printJSON(bundle)
}

func runFeedback() {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	filePath := fs.String("file", "", "file path the suggestion applied to")
	sType := fs.String("type", "", "suggestion type")
	accepted := fs.Bool("accepted", false, "suggestion was accepted")
	modified := fs.Bool("modified", false, "suggestion was applied with modifications")
	comment := fs.String("comment", "", "optional feedback text")
	_, logger, comps := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer comps.Close()

	if *filePath == "" || *sType == "" {
		fmt.Println("Usage: sentinel feedback -file <path> -type <type> [-accepted] [-modified] [-comment text]")
		os.Exit(1)
	}
	if comps.Patterns == nil {
		fmt.Println("Pattern store not configured")
		os.Exit(1)
	}
	fb := &models.Feedback{
		FilePath:       *filePath,
		SuggestionType: *sType,
		Accepted:       *accepted,
		Modified:       *modified,
		Comment:        *comment,
	}
	if err := comps.Patterns.RecordFeedback(context.Background(), fb); err != nil {
		logger.Fatal("record feedback failed", zap.Error(err))
	}
	fmt.Println("Feedback recorded")
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	_, logger, comps := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer comps.Close()

	out := map[string]interface{}{"index": comps.Retriever.Stats()}
	if comps.Patterns != nil {
		if stats, err := comps.Patterns.Stats(context.Background()); err == nil {
			out["patterns"] = stats
		}
	}
	printJSON(out)
}

func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	_, logger, comps := setup(fs, os.Args[2:])
	defer logger.Sync()
	defer comps.Close()

	if err := comps.Retriever.Clear(); err != nil {
		logger.Fatal("clear failed", zap.Error(err))
	}
	fmt.Println("Index cleared")
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printUsage() {
	fmt.Print(`Sentinel - local retrieval-augmented context engine for code review

Usage: sentinel <command> [flags]

Commands:
  serve     Start the HTTP context API (and file watcher when enabled)
  ingest    Ingest directories into the vector index
  query     Run a free-text retrieval query
  context   Build a context bundle from a diff (stdin or -diff file)
  feedback  Record developer feedback on a suggestion
  status    Show index and pattern store statistics
  clear     Delete the vector index (memory and disk)
  version   Print version

Common flags:
  -config path   Config file (default ./sentinel.yaml)
  -debug         Enable debug logging
`)
}
