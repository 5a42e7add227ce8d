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
	"math"
	"strings"
)

// usefulnessKeywords mark documentation that tells a reader how to use
// the function, not just what it is. One hit earns the full keyword half
// of the score; hits do not stack.
var usefulnessKeywords = []string{"example", "returns", "input", "output"}

// Usefulness estimates human-perceived helpfulness of a candidate
// docstring: half keyword presence, half semantic similarity.
//
// The keyword check runs case-insensitively on the raw (aligned)
// candidate, not on normalized text, so tag lines like "@returns" still
// count as a mention. The result is capped at 1.0 and has no lower
// bound.
func Usefulness(candidate string, semanticSim float64) float64 {
	lowered := strings.ToLower(candidate)

	score := 0.0
	for _, kw := range usefulnessKeywords {
		if strings.Contains(lowered, kw) {
			score += 0.5
			break
		}
	}
	score += 0.5 * semanticSim

	return math.Min(score, 1.0)
}
