// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package textnorm

import "strings"

// Replacement is a single ordered terminology rewrite.
//
// Matching is a case-sensitive literal substring replacement, so a rule
// like "list" also rewrites inside larger words ("listed" becomes
// "arrayed"). That collision risk is accepted: rules are short, curated,
// and applied to prose where the tradeoff favors vocabulary alignment.
type Replacement struct {
	From string
	To   string
}

// DefaultReplacements returns the curated vocabulary-alignment rules
// applied to candidate text before semantic comparison.
//
// Order matters: rules run in sequence and later rules may re-match
// substrings introduced by earlier ones.
func DefaultReplacements() []Replacement {
	return []Replacement{
		{From: "list", To: "array"},
		{From: "sequence", To: "array"},
		{From: "string input", To: "input string"},
	}
}

// Aligner rewrites candidate text with a fixed, ordered replacement table
// to reduce penalizing synonymous but non-identical vocabulary.
type Aligner struct {
	replacements []Replacement
}

// NewAligner creates an Aligner with the given rules, or the default table
// when none are provided.
func NewAligner(replacements ...Replacement) *Aligner {
	if len(replacements) == 0 {
		replacements = DefaultReplacements()
	}
	return &Aligner{replacements: replacements}
}

// Align applies every replacement rule to the candidate in declared order.
//
// Each rule is a single non-recursive pass over the text. Align runs on the
// raw candidate before normalization so that all downstream consumers,
// including the raw-text keyword scorers, see the aligned vocabulary.
func (a *Aligner) Align(candidate string) string {
	for _, r := range a.replacements {
		candidate = strings.ReplaceAll(candidate, r.From, r.To)
	}
	return candidate
}

// Applied reports the rules that fire for the given candidate, in order.
//
// Used for debug logging when a run needs to explain why an aligned
// candidate differs from the raw text. Returns nil when no rule matches.
func (a *Aligner) Applied(candidate string) []Replacement {
	var fired []Replacement
	for _, r := range a.replacements {
		if strings.Contains(candidate, r.From) {
			fired = append(fired, r)
			candidate = strings.ReplaceAll(candidate, r.From, r.To)
		}
	}
	return fired
}
