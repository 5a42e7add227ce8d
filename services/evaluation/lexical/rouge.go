// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lexical implements the surface-overlap metrics of the evaluation
// service: ROUGE-L, smoothed sentence-BLEU, and word-set containment.
//
// All three are pure functions of their token inputs. None of them touch
// normalization; callers pass text that has already gone through the
// textnorm pipeline where the metric requires it.
package lexical

// Score holds the precision/recall/F-measure triple of a ROUGE computation.
type Score struct {
	Precision float64
	Recall    float64
	FMeasure  float64
}

// RougeOption configures a RougeScorer instance.
type RougeOption func(*RougeScorer)

// WithoutStemming disables Porter stemming in the ROUGE tokenizer.
//
// The default scorer stems so that inflected variants count as matches;
// disable it only when comparing already-canonical token streams.
func WithoutStemming() RougeOption {
	return func(s *RougeScorer) {
		s.useStemmer = false
	}
}

// RougeScorer computes ROUGE-L between a reference and a candidate.
//
// ROUGE-L is based on the longest common subsequence of the two token
// streams: precision is LCS length over candidate length, recall is LCS
// length over reference length, and the F-measure is their harmonic mean.
//
// Thread Safety:
//
//	RougeScorer instances are safe for concurrent use; scoring is a pure
//	function over immutable configuration.
type RougeScorer struct {
	useStemmer bool
}

// NewRougeScorer creates a ROUGE-L scorer. Stemming is enabled unless
// WithoutStemming is given.
func NewRougeScorer(opts ...RougeOption) *RougeScorer {
	s := &RougeScorer{useStemmer: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes ROUGE-L for the candidate against the reference.
//
// Either side tokenizing to nothing yields a zero Score rather than an
// error: an empty comparison is a legitimate worst-case result.
func (s *RougeScorer) Score(reference, candidate string) Score {
	refTokens := Tokenize(reference, s.useStemmer)
	candTokens := Tokenize(candidate, s.useStemmer)

	if len(refTokens) == 0 || len(candTokens) == 0 {
		return Score{}
	}

	lcs := lcsLength(refTokens, candTokens)
	precision := float64(lcs) / float64(len(candTokens))
	recall := float64(lcs) / float64(len(refTokens))

	return Score{
		Precision: precision,
		Recall:    recall,
		FMeasure:  fmeasure(precision, recall),
	}
}

// fmeasure is the harmonic mean of precision and recall, 0 when both are 0.
func fmeasure(precision, recall float64) float64 {
	if precision+recall > 0 {
		return 2 * precision * recall / (precision + recall)
	}
	return 0
}

// lcsLength computes the longest-common-subsequence length of two token
// slices with a two-row dynamic programming table.
func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
