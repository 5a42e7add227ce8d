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
	"math"
	"strings"
)

const (
	// bleuMaxOrder is the n-gram order; weights are uniform 1/4.
	bleuMaxOrder = 4

	// bleuEpsilon is the additive smoothing constant applied to n-gram
	// precisions with a zero numerator.
	bleuEpsilon = 0.1

	// ngramSep joins n-gram tokens into map keys. A control byte cannot
	// appear in tokenized text, so joined keys never collide.
	ngramSep = "\x1f"
)

// SentenceBLEU computes smoothed 4-gram BLEU for a candidate against a
// single reference, both given as whitespace-tokenized slices.
//
// Precisions use clipped n-gram counts with the denominator floored at 1.
// Zero-numerator precisions above the unigram level are smoothed with an
// additive epsilon; a candidate sharing no unigram with the reference
// scores 0 outright. The brevity penalty is 1 for candidates longer than
// the reference, 0 for an empty candidate, and exp(1-r/c) otherwise.
//
// The score is bounded in [0,1]; identical token slices score 1.0 once the
// candidate is long enough to contain a 4-gram.
func SentenceBLEU(reference, candidate []string) float64 {
	numerators := make([]int, bleuMaxOrder)
	denominators := make([]int, bleuMaxOrder)

	for n := 1; n <= bleuMaxOrder; n++ {
		numerators[n-1], denominators[n-1] = modifiedPrecision(reference, candidate, n)
	}

	// No unigram overlap means no credit at all; smoothing does not apply.
	if numerators[0] == 0 {
		return 0
	}

	logSum := 0.0
	for i := 0; i < bleuMaxOrder; i++ {
		p := float64(numerators[i]) / float64(denominators[i])
		if numerators[i] == 0 {
			p = bleuEpsilon / float64(denominators[i])
		}
		logSum += math.Log(p) / bleuMaxOrder
	}

	return brevityPenalty(len(reference), len(candidate)) * math.Exp(logSum)
}

// modifiedPrecision returns the clipped n-gram match count and the total
// candidate n-gram count floored at 1.
func modifiedPrecision(reference, candidate []string, n int) (numerator, denominator int) {
	candCounts := ngramCounts(candidate, n)
	refCounts := ngramCounts(reference, n)

	for gram, count := range candCounts {
		denominator += count
		if refCount := refCounts[gram]; refCount < count {
			numerator += refCount
		} else {
			numerator += count
		}
	}

	if denominator < 1 {
		denominator = 1
	}
	return numerator, denominator
}

// ngramCounts counts the n-grams of a token slice. Slices shorter than n
// produce an empty map.
func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], ngramSep)]++
	}
	return counts
}

// brevityPenalty discounts candidates shorter than the reference.
func brevityPenalty(refLen, hypLen int) float64 {
	switch {
	case hypLen > refLen:
		return 1
	case hypLen == 0:
		return 0
	default:
		return math.Exp(1 - float64(refLen)/float64(hypLen))
	}
}
