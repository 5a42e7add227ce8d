package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/doceval/pkg/ux"
	"github.com/AleutianAI/doceval/pkg/validation"
	"github.com/AleutianAI/doceval/services/evaluation/dataset"
	"github.com/AleutianAI/doceval/services/evaluation/history"
	"github.com/AleutianAI/doceval/services/evaluation/report"
	"github.com/AleutianAI/doceval/services/evaluation/scoring"
	"github.com/AleutianAI/doceval/services/evaluation/semantic"
	"github.com/AleutianAI/doceval/services/evaluation/storage/badger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// scoreResult is the machine-readable shape emitted by --json.
type scoreResult struct {
	RunID   string                `json:"run_id"`
	Dataset string                `json:"dataset"`
	Encoder string                `json:"encoder"`
	Corpus  scoring.CorpusMetrics `json:"corpus"`
	Items   []itemResult          `json:"items"`
	Skipped int                   `json:"skipped"`
}

type itemResult struct {
	Index   int                     `json:"index"`
	Metrics *scoring.PerItemMetrics `json:"metrics,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

func runScore(_ *cobra.Command, _ []string) {
	if err := scoreRun(); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
}

func scoreRun() error {
	// 1. Resolve and validate the dataset path
	if datasetPath == "" {
		return fmt.Errorf("a dataset is required: pass --dataset path/to/dataset.json")
	}
	clean, err := validation.SanitizeDatasetPath(datasetPath)
	if err != nil {
		return fmt.Errorf("invalid dataset path: %w", err)
	}

	// 2. Load and validate the dataset
	entries, err := dataset.Load(clean)
	if err != nil {
		return err
	}

	// 3. Assemble the embedding backend
	encoder, encoderName, cleanup, err := buildEncoder()
	if err != nil {
		return err
	}
	defer cleanup()

	// 4. Probe the encoder before committing to a full run
	ctx := context.Background()
	if hc, ok := encoder.(interface{ Health(context.Context) error }); ok {
		err := runStep("Checking embedding backend", func() error {
			return hc.Health(ctx)
		})
		if err != nil {
			return fmt.Errorf("embedding backend not ready: %w", err)
		}
	}

	// 5. Score the corpus
	par := resolveInt(parallelism, config.Scoring.Parallelism, 0)
	skip := skipFailures || config.Scoring.SkipFailures

	opts := []scoring.Option{scoring.WithParallelism(par)}
	if skip {
		opts = append(opts, scoring.WithSkipFailures())
	}
	evaluator := scoring.NewEvaluator(semantic.NewScorer(encoder), opts...)

	start := time.Now()
	var results []scoring.EntryResult
	err = runStep(fmt.Sprintf("Scoring %d entries", len(entries)), func() error {
		var scoreErr error
		results, scoreErr = evaluator.ScoreCorpus(ctx, entries)
		return scoreErr
	})
	if err != nil {
		return err
	}
	duration := time.Since(start)

	// 6. Aggregate corpus-level metrics
	agg := scoring.NewAggregator()
	skipped := agg.AddResults(results)
	corpus, err := agg.Aggregate()
	if err != nil {
		return err
	}

	// 7. Render the results
	runID := uuid.NewString()
	if jsonOutput {
		out := scoreResult{
			RunID:   runID,
			Dataset: filepath.Base(clean),
			Encoder: encoderName,
			Corpus:  corpus,
			Items:   collectItems(results),
			Skipped: skipped,
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		fmt.Println(string(data))
	} else {
		if err := report.NewPrinter(os.Stdout).Print(results, corpus); err != nil {
			return fmt.Errorf("print report: %w", err)
		}
		ux.Summary(corpus.Entries, skipped, len(entries))
	}

	// 8. Record the run
	if recordHistory || config.History.Enabled {
		recordRun(ctx, runID, filepath.Base(clean), encoderName, corpus, skipped, duration)
	}

	return nil
}

// runStep runs fn under a spinner unless machine-readable output was
// requested, where terminal animation would corrupt the stream.
func runStep(message string, fn func() error) error {
	if jsonOutput {
		return fn()
	}
	return ux.WithSpinner(message, fn)
}

// buildEncoder assembles the embedding backend from flags and config,
// wrapping it in the on-disk vector cache when one is configured. The
// returned cleanup closes the cache database.
func buildEncoder() (semantic.Encoder, string, func(), error) {
	backend := resolveString(encoderBackend, config.Encoder.Backend, "sidecar")

	var (
		inner semantic.Encoder
		model string
	)
	switch backend {
	case "openai":
		oe, err := semantic.NewOpenAIEncoder()
		if err != nil {
			return nil, "", nil, fmt.Errorf("openai encoder: %w", err)
		}
		inner = oe
		model = oe.Model()
	case "sidecar":
		url := resolveString(embeddingURL, config.Encoder.EmbeddingURL, "http://localhost:8000")
		base, err := validation.SanitizeServiceURL(url)
		if err != nil {
			return nil, "", nil, fmt.Errorf("invalid embedding URL: %w", err)
		}
		inner = semantic.NewSidecarEncoder(base)
		model = resolveString("", config.Encoder.Model, "all-MiniLM-L6-v2")
		if err := validation.ValidateModelName(model); err != nil {
			return nil, "", nil, fmt.Errorf("invalid encoder model: %w", err)
		}
	default:
		return nil, "", nil, fmt.Errorf("unknown encoder backend %q: use sidecar or openai", backend)
	}

	dir := resolveString(cacheDir, config.Encoder.CacheDir, "")
	if dir == "" {
		return inner, backend, func() {}, nil
	}

	cfg := badger.DefaultConfig()
	cfg.Path = filepath.Join(dir, "vectors")
	cfg.Logger = slog.Default()
	db, err := badger.OpenDB(cfg)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open vector cache: %w", err)
	}

	cached := semantic.NewCachedEncoder(inner, db, backend+"/"+model)
	cleanup := func() {
		hits, misses := cached.Stats()
		slog.Debug("Vector cache closed", "hits", hits, "misses", misses)
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close vector cache", "error", err)
		}
	}
	return cached, backend, cleanup, nil
}

// recordRun writes the run to InfluxDB. Best effort: scoring already
// succeeded, so a sink failure only warns.
func recordRun(ctx context.Context, runID, datasetName, encoderName string,
	corpus scoring.CorpusMetrics, skipped int, duration time.Duration) {
	store, err := history.NewStore()
	if err != nil {
		slog.Warn("History store unavailable", "error", err)
		return
	}
	defer store.Close()

	rec := &history.RunRecord{
		RunID:    runID,
		Dataset:  datasetName,
		Encoder:  encoderName,
		Corpus:   corpus,
		Skipped:  skipped,
		Duration: duration,
	}
	if err := store.StoreRun(ctx, rec); err != nil {
		slog.Warn("Failed to record run", "run_id", runID, "error", err)
		return
	}
	if !jsonOutput {
		ux.Info(fmt.Sprintf("Run recorded: %s", runID))
	}
}

func collectItems(results []scoring.EntryResult) []itemResult {
	items := make([]itemResult, 0, len(results))
	for _, r := range results {
		item := itemResult{Index: r.Index}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else {
			m := r.Metrics
			item.Metrics = &m
		}
		items = append(items, item)
	}
	return items
}
