// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring runs the per-entry documentation-quality pipeline and
// aggregates the results.
//
// # Description
//
// For each dataset entry the Evaluator aligns the candidate's vocabulary,
// normalizes both texts, and produces seven metrics: parameter coverage,
// return coverage, word-set containment, usefulness, semantic similarity,
// ROUGE-L, and smoothed BLEU. The lexical sentence metrics (ROUGE-L,
// containment) score each candidate sentence against the full reference
// and keep the best sentence; the remaining metrics score the entry as a
// whole.
//
// # Execution Model
//
// Entries are independent, so the corpus loop is sequential by default
// and optionally parallel with a bounded worker count. Result order
// always matches input order. An entry failure aborts the whole run
// unless skip-failures is enabled, in which case the entry is recorded
// as skipped and excluded from aggregation.
package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/doceval/services/evaluation/dataset"
	"github.com/AleutianAI/doceval/services/evaluation/lexical"
	"github.com/AleutianAI/doceval/services/evaluation/semantic"
	"github.com/AleutianAI/doceval/services/evaluation/signature"
	"github.com/AleutianAI/doceval/services/evaluation/textnorm"
)

var evaluatorTracer = otel.Tracer("evaluation.scoring")

// EntryResult pairs a 1-based dataset position with its metrics, or with
// the error that skipped it.
type EntryResult struct {
	Index   int            `json:"index"`
	Metrics PerItemMetrics `json:"metrics"`
	Err     error          `json:"-"`
}

// Evaluator scores dataset entries.
//
// # Thread Safety
//
// Safe for concurrent use. Multiple goroutines may call ScoreEntry and
// ScoreCorpus simultaneously.
type Evaluator struct {
	aligner      *textnorm.Aligner
	rouge        *lexical.RougeScorer
	sem          *semantic.Scorer
	parallelism  int
	skipFailures bool
	logger       *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithParallelism bounds the number of entries scored concurrently.
// Values below 2 keep the sequential loop. Parallel runs still report
// results in input order.
func WithParallelism(n int) Option {
	return func(e *Evaluator) {
		e.parallelism = n
	}
}

// WithSkipFailures records failing entries as skipped instead of
// aborting the run. Skipped entries carry their error in the result and
// are excluded from aggregation.
func WithSkipFailures() Option {
	return func(e *Evaluator) {
		e.skipFailures = true
	}
}

// WithAligner replaces the default terminology alignment table.
func WithAligner(a *textnorm.Aligner) Option {
	return func(e *Evaluator) {
		e.aligner = a
	}
}

// WithRougeScorer replaces the default ROUGE-L scorer.
func WithRougeScorer(r *lexical.RougeScorer) Option {
	return func(e *Evaluator) {
		e.rouge = r
	}
}

// WithLogger sets the logger for skip warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an Evaluator scoring semantic similarity through
// sem.
func NewEvaluator(sem *semantic.Scorer, opts ...Option) *Evaluator {
	e := &Evaluator{
		aligner:     textnorm.NewAligner(),
		rouge:       lexical.NewRougeScorer(),
		sem:         sem,
		parallelism: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ScoreEntry produces the metric vector for a single entry.
//
// Pipeline order is fixed: terminology alignment first, so coverage and
// usefulness see the aligned vocabulary; then normalization for the
// lexical and semantic metrics. Only the semantic step can fail.
func (e *Evaluator) ScoreEntry(ctx context.Context, entry dataset.Entry) (PerItemMetrics, error) {
	ctx, span := evaluatorTracer.Start(ctx, "scoring.Evaluator.ScoreEntry")
	defer span.End()

	aligned := e.aligner.Align(entry.Candidate)

	refNorm := textnorm.Normalize(entry.Reference)
	candNorm := textnorm.Normalize(aligned)

	sig := signature.Extract(entry.SourceCode)

	// Each candidate sentence competes against the full reference; the
	// best sentence wins. Sentences that normalize to nothing are not
	// sentences.
	maxRouge := 0.0
	maxContain := 0.0
	for _, sentence := range textnorm.SplitSentences(aligned) {
		sentNorm := textnorm.Normalize(sentence)
		if sentNorm == "" {
			continue
		}
		if r := e.rouge.Score(refNorm, sentNorm).FMeasure; r > maxRouge {
			maxRouge = r
		}
		if c := lexical.Containment(refNorm, sentNorm); c > maxContain {
			maxContain = c
		}
	}

	semanticSim, err := e.sem.Score(ctx, refNorm, candNorm)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "semantic scoring failed")
		return PerItemMetrics{}, fmt.Errorf("semantic similarity: %w", err)
	}

	return PerItemMetrics{
		ParamCoverage:      signature.ParameterCoverage(sig, aligned),
		ReturnCoverage:     signature.ReturnCoverage(sig, aligned),
		Containment:        maxContain,
		Usefulness:         Usefulness(aligned, semanticSim),
		SemanticSimilarity: semanticSim,
		RougeL:             maxRouge,
		BLEU:               lexical.SentenceBLEU(textnorm.Words(refNorm), textnorm.Words(candNorm)),
	}, nil
}

// ScoreCorpus scores every entry and returns results in input order.
//
// With skip-failures disabled (the default) the first failing entry
// aborts the run and its error, tagged with the 1-based entry position,
// is returned. With skip-failures enabled the failing entries come back
// with Err set and scoring continues.
func (e *Evaluator) ScoreCorpus(ctx context.Context, entries []dataset.Entry) ([]EntryResult, error) {
	ctx, span := evaluatorTracer.Start(ctx, "scoring.Evaluator.ScoreCorpus",
		trace.WithAttributes(
			attribute.Int("entries", len(entries)),
			attribute.Int("parallelism", e.parallelism),
		))
	defer span.End()

	results := make([]EntryResult, len(entries))

	if e.parallelism <= 1 {
		for i, entry := range entries {
			res, err := e.scoreAt(ctx, i, entry)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "entry scoring failed")
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, entry := range entries {
		i, entry := i, entry // Capture loop variables
		g.Go(func() error {
			res, err := e.scoreAt(gCtx, i, entry)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "entry scoring failed")
		return nil, err
	}

	return results, nil
}

// scoreAt scores one entry at its 0-based position, applying the
// skip-failures policy.
func (e *Evaluator) scoreAt(ctx context.Context, i int, entry dataset.Entry) (EntryResult, error) {
	m, err := e.ScoreEntry(ctx, entry)
	if err != nil {
		if !e.skipFailures {
			return EntryResult{}, fmt.Errorf("entry %d: %w", i+1, err)
		}
		e.logger.Warn("skipping entry after scoring failure",
			slog.Int("entry", i+1),
			slog.String("error", err.Error()))
		return EntryResult{Index: i + 1, Err: err}, nil
	}
	return EntryResult{Index: i + 1, Metrics: m}, nil
}
