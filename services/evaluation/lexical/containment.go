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

import "strings"

// Containment computes the fraction of distinct reference words present in
// the candidate.
//
// Both inputs are whitespace-split into sets, so duplicates and word order
// are ignored. A reference with no words scores 0.0. The metric is
// monotonic: growing the candidate's word set can never lower the score.
//
// Inputs are expected to be normalized text; the function itself performs
// no normalization.
func Containment(reference, candidate string) float64 {
	refWords := wordSet(reference)
	if len(refWords) == 0 {
		return 0
	}

	candWords := wordSet(candidate)

	matched := 0
	for w := range refWords {
		if _, ok := candWords[w]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(refWords))
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
