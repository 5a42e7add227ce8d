// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package signature

import (
	"math"
	"strings"
)

// ParameterCoverage measures how completely a candidate docstring mentions
// the signature's parameters and return value.
//
// A parameter hits when its name occurs case-insensitively as a substring
// of the raw candidate text. The return slot hits when no return is
// required or the candidate mentions one. A signature with no parameters
// and no return is trivially fully documented and scores 1.0.
//
// The raw ratio can exceed 1 when the signature has parameters but no
// return value: the return credit is then granted for free while the
// denominator counts parameters only. The result is capped at 1.0 to keep
// the metric in range.
func ParameterCoverage(sig Signature, candidate string) float64 {
	total := len(sig.ParameterNames)
	if sig.HasReturn {
		total++
	}
	if total == 0 {
		return 1.0
	}

	lowered := strings.ToLower(candidate)
	hits := 0
	for _, name := range sig.ParameterNames {
		if strings.Contains(lowered, strings.ToLower(name)) {
			hits++
		}
	}
	if returnDocumented(sig, candidate) {
		hits++
	}

	return math.Min(float64(hits)/float64(total), 1.0)
}

// ReturnCoverage reports whether the candidate documents the return value.
//
// Scores 1.0 when the signature has no return value or the candidate
// mentions one, 0.0 otherwise. Computed independently of ParameterCoverage;
// both share the single return-hit rule.
func ReturnCoverage(sig Signature, candidate string) float64 {
	if returnDocumented(sig, candidate) {
		return 1.0
	}
	return 0.0
}

func returnDocumented(sig Signature, candidate string) bool {
	return !sig.HasReturn || containsReturnToken(candidate)
}
