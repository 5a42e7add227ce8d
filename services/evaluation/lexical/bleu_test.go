// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lexical

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// An exact match long enough for a 4-gram scores 1.0
func TestSentenceBLEU_ExactMatch(t *testing.T) {
	tokens := []string{"the", "cat", "sat", "down"}
	assert.InDelta(t, 1.0, SentenceBLEU(tokens, tokens), 1e-9)
}

// No unigram overlap short-circuits to zero, smoothing does not apply
func TestSentenceBLEU_NoOverlap(t *testing.T) {
	got := SentenceBLEU([]string{"alpha", "beta"}, []string{"gamma", "delta"})
	assert.Zero(t, got)
}

// An empty candidate scores zero
func TestSentenceBLEU_EmptyCandidate(t *testing.T) {
	assert.Zero(t, SentenceBLEU([]string{"ref"}, nil))
	assert.Zero(t, SentenceBLEU(nil, nil))
}

// Hand-computed: p1=1, p2=1, p3=p4 smoothed to 0.1, BP=exp(-0.5)
func TestSentenceBLEU_ShortCandidate(t *testing.T) {
	got := SentenceBLEU([]string{"the", "cat", "sat"}, []string{"the", "cat"})
	assert.InDelta(t, 0.1918, got, 1e-3)
}

// Hand-computed: p1=2/3, p2=1/2, p3=p4 smoothed, BP=1 (candidate longer)
func TestSentenceBLEU_LongerCandidate(t *testing.T) {
	got := SentenceBLEU([]string{"a", "b"}, []string{"a", "b", "c"})
	assert.InDelta(t, 0.2403, got, 1e-3)
}

// A single matching token still earns partial credit through smoothing
func TestSentenceBLEU_SingleToken(t *testing.T) {
	got := SentenceBLEU([]string{"sum"}, []string{"sum"})
	// exp(0.75 * ln 0.1) with all higher orders smoothed
	assert.InDelta(t, 0.1778, got, 1e-3)
}

// Scores stay within [0,1] across assorted inputs
func TestSentenceBLEU_Bounded(t *testing.T) {
	cases := [][2]string{
		{"adds two numbers", "adds two numbers"},
		{"adds two numbers", "adds"},
		{"a b c d e f", "a c e"},
		{"x", "x y z w v u"},
	}
	for _, c := range cases {
		got := SentenceBLEU(strings.Fields(c[0]), strings.Fields(c[1]))
		assert.GreaterOrEqual(t, got, 0.0, "ref=%q cand=%q", c[0], c[1])
		assert.LessOrEqual(t, got, 1.0, "ref=%q cand=%q", c[0], c[1])
	}
}

// Repeated candidate tokens are clipped by reference counts
func TestSentenceBLEU_ClippedCounts(t *testing.T) {
	repeated := SentenceBLEU([]string{"the", "cat"}, []string{"the", "the", "the", "the"})
	honest := SentenceBLEU([]string{"the", "cat"}, []string{"the", "cat"})
	assert.Less(t, repeated, honest)
}

// n-gram counting windows
func TestNgramCounts(t *testing.T) {
	counts := ngramCounts([]string{"a", "b", "a", "b"}, 2)
	assert.Equal(t, 2, counts["a"+ngramSep+"b"])
	assert.Equal(t, 1, counts["b"+ngramSep+"a"])

	assert.Empty(t, ngramCounts([]string{"a"}, 2))
}

// Brevity penalty boundary behavior
func TestBrevityPenalty(t *testing.T) {
	assert.Equal(t, 1.0, brevityPenalty(2, 3))
	assert.Equal(t, 1.0, brevityPenalty(3, 3), "equal lengths give exp(0)")
	assert.Equal(t, 0.0, brevityPenalty(3, 0))
	assert.InDelta(t, 0.6065, brevityPenalty(3, 2), 1e-3)
}
