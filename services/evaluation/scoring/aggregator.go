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

import "errors"

// ErrEmptyCorpus indicates an aggregation over zero scored entries.
// Averages over nothing are reported as an error, never as silent zeros
// or NaN.
var ErrEmptyCorpus = errors.New("empty corpus")

// Aggregator accumulates per-item metrics for corpus-level averaging.
//
// It is an explicit value threaded through the scoring loop rather than
// shared module state, so parallel runs and tests each own their
// accumulation. Not safe for concurrent use; callers collect results
// first and aggregate once.
type Aggregator struct {
	items []PerItemMetrics
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records one scored entry.
func (a *Aggregator) Add(m PerItemMetrics) {
	a.items = append(a.items, m)
}

// AddResults records every successfully scored result and returns the
// number of skipped entries.
func (a *Aggregator) AddResults(results []EntryResult) int {
	skipped := 0
	for _, r := range results {
		if r.Err != nil {
			skipped++
			continue
		}
		a.Add(r.Metrics)
	}
	return skipped
}

// Len returns the number of recorded entries.
func (a *Aggregator) Len() int {
	return len(a.items)
}

// Aggregate computes corpus-level means over the recorded entries.
// Returns ErrEmptyCorpus when nothing was recorded.
func (a *Aggregator) Aggregate() (CorpusMetrics, error) {
	if len(a.items) == 0 {
		return CorpusMetrics{}, ErrEmptyCorpus
	}

	var sum PerItemMetrics
	for _, m := range a.items {
		sum.ParamCoverage += m.ParamCoverage
		sum.ReturnCoverage += m.ReturnCoverage
		sum.Containment += m.Containment
		sum.Usefulness += m.Usefulness
		sum.SemanticSimilarity += m.SemanticSimilarity
		sum.RougeL += m.RougeL
		sum.BLEU += m.BLEU
	}

	n := float64(len(a.items))
	return CorpusMetrics{
		AvgParamCoverage:      sum.ParamCoverage / n,
		AvgReturnCoverage:     sum.ReturnCoverage / n,
		AvgContainment:        sum.Containment / n,
		AvgUsefulness:         sum.Usefulness / n,
		AvgSemanticSimilarity: sum.SemanticSimilarity / n,
		AvgRougeL:             sum.RougeL / n,
		BLEU:                  sum.BLEU / n,
		Entries:               len(a.items),
	}, nil
}
