// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/doceval/services/evaluation/dataset"
	"github.com/AleutianAI/doceval/services/evaluation/semantic"
)

// constantEncoder returns the same vector for every text, pinning
// semantic similarity at 1.0 so the remaining metrics are deterministic.
type constantEncoder struct{}

func (constantEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

// flakyEncoder fails for texts containing a trigger word.
type flakyEncoder struct{}

func (flakyEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "boom") {
		return nil, fmt.Errorf("%w: model rejected input", semantic.ErrEncodingFailure)
	}
	return []float32{1, 0}, nil
}

func newTestEvaluator(opts ...Option) *Evaluator {
	return NewEvaluator(semantic.NewScorer(constantEncoder{}), opts...)
}

// Full pipeline over one entry with hand-computed expectations
func TestScoreEntry(t *testing.T) {
	e := newTestEvaluator()
	entry := dataset.Entry{
		Reference:  "Adds two numbers.",
		Candidate:  "Adds two numbers. Returns the sum.",
		SourceCode: "def add(a, b): return a + b",
	}

	m, err := e.ScoreEntry(context.Background(), entry)
	require.NoError(t, err)

	// Both parameter names and the return are mentioned.
	assert.InDelta(t, 1.0, m.ParamCoverage, 1e-9)
	assert.InDelta(t, 1.0, m.ReturnCoverage, 1e-9)

	// The first sentence repeats the reference words; only the trailing
	// period token of the normalized reference is unmatched.
	assert.InDelta(t, 0.75, m.Containment, 1e-9)

	// The first sentence reproduces the reference exactly after
	// stemming, so the best sentence scores a perfect ROUGE-L.
	assert.InDelta(t, 1.0, m.RougeL, 1e-9)

	// "returns" keyword plus pinned similarity.
	assert.InDelta(t, 1.0, m.Usefulness, 1e-9)
	assert.InDelta(t, 1.0, m.SemanticSimilarity, 1e-9)

	// 4-gram precisions 4/8, 3/7, 2/6, 1/5 with no brevity penalty.
	assert.InDelta(t, 0.3457, m.BLEU, 1e-3)
}

// Terminology alignment runs before every downstream metric
func TestScoreEntry_AlignmentFirst(t *testing.T) {
	e := newTestEvaluator()
	entry := dataset.Entry{
		Reference:  "Returns an array of items.",
		Candidate:  "Returns a list of items.",
		SourceCode: "def f(): pass",
	}

	m, err := e.ScoreEntry(context.Background(), entry)
	require.NoError(t, err)

	// "list" was rewritten to "array" before containment: four of the
	// six normalized reference words are covered instead of three.
	assert.InDelta(t, 2.0/3.0, m.Containment, 1e-9)

	// Stemmed sentence tokens differ from the reference only in "a"
	// versus "an".
	assert.InDelta(t, 0.8, m.RougeL, 1e-9)

	// No parameters and no return in the source: trivially covered.
	assert.InDelta(t, 1.0, m.ParamCoverage, 1e-9)
	assert.InDelta(t, 1.0, m.ReturnCoverage, 1e-9)

	assert.InDelta(t, 1.0, m.Usefulness, 1e-9)
}

// An empty candidate scores zero on sentence metrics without failing
func TestScoreEntry_EmptyCandidate(t *testing.T) {
	e := newTestEvaluator()
	entry := dataset.Entry{
		Reference: "Adds numbers.",
		Candidate: "",
	}

	m, err := e.ScoreEntry(context.Background(), entry)
	require.NoError(t, err)

	assert.Zero(t, m.Containment)
	assert.Zero(t, m.RougeL)
	assert.Zero(t, m.BLEU)

	// No source code: coverage is trivially complete.
	assert.InDelta(t, 1.0, m.ParamCoverage, 1e-9)

	// No keyword, similarity half only.
	assert.InDelta(t, 0.5, m.Usefulness, 1e-9)
}

// An encoder failure aborts the entry with the encoding sentinel
func TestScoreEntry_EncodingFailure(t *testing.T) {
	e := NewEvaluator(semantic.NewScorer(flakyEncoder{}))
	entry := dataset.Entry{
		Reference: "Fine reference.",
		Candidate: "boom goes the encoder",
	}

	_, err := e.ScoreEntry(context.Background(), entry)

	require.Error(t, err)
	assert.ErrorIs(t, err, semantic.ErrEncodingFailure)
}

// Corpus results carry 1-based indices in input order
func TestScoreCorpus_Order(t *testing.T) {
	e := newTestEvaluator()
	entries := []dataset.Entry{
		{Reference: "First.", Candidate: "First."},
		{Reference: "Second.", Candidate: "Second."},
		{Reference: "Third.", Candidate: "Third."},
	}

	results, err := e.ScoreCorpus(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i+1, r.Index)
		assert.NoError(t, r.Err)
	}
}

// A parallel run produces exactly the sequential results
func TestScoreCorpus_ParallelMatchesSequential(t *testing.T) {
	entries := []dataset.Entry{
		{Reference: "Adds two numbers.", Candidate: "Returns the sum.", SourceCode: "def add(a, b): return a + b"},
		{Reference: "Splits text.", Candidate: "Splits the input text into a list.", SourceCode: "def split(s): return s.split()"},
		{Reference: "Greets the user.", Candidate: "Prints a greeting."},
		{Reference: "Closes the file.", Candidate: "Closes the open file handle.", SourceCode: "def close(f): f.close()"},
		{Reference: "Computes an average.", Candidate: "Returns the mean of the sequence.", SourceCode: "def mean(xs): return sum(xs) / len(xs)"},
	}

	sequential, err := newTestEvaluator().ScoreCorpus(context.Background(), entries)
	require.NoError(t, err)

	parallel, err := newTestEvaluator(WithParallelism(4)).ScoreCorpus(context.Background(), entries)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

// Without skip-failures the first failing entry aborts the run
func TestScoreCorpus_FailFast(t *testing.T) {
	e := NewEvaluator(semantic.NewScorer(flakyEncoder{}))
	entries := []dataset.Entry{
		{Reference: "ok", Candidate: "fine"},
		{Reference: "ok", Candidate: "boom here"},
		{Reference: "ok", Candidate: "also fine"},
	}

	_, err := e.ScoreCorpus(context.Background(), entries)

	require.Error(t, err)
	assert.ErrorIs(t, err, semantic.ErrEncodingFailure)
	assert.Contains(t, err.Error(), "entry 2")
}

// With skip-failures the failing entry is recorded and the run completes
func TestScoreCorpus_SkipFailures(t *testing.T) {
	e := NewEvaluator(semantic.NewScorer(flakyEncoder{}), WithSkipFailures())
	entries := []dataset.Entry{
		{Reference: "ok", Candidate: "fine"},
		{Reference: "ok", Candidate: "boom here"},
		{Reference: "ok", Candidate: "also fine"},
	}

	results, err := e.ScoreCorpus(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	agg := NewAggregator()
	skipped := agg.AddResults(results)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 2, agg.Len())
}
