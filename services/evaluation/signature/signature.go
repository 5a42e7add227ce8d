// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package signature derives structural documentation requirements from raw
// source text and scores candidate docstrings against them.
//
// Extraction is a textual heuristic, not a parser. It reads the first
// parenthesized group as the parameter list and treats any occurrence of the
// literal token "return" as evidence of a return value. This keeps the
// package independent of the AST extractor service: scoring works on
// whatever source fragment the dataset carries, including fragments that
// would not parse on their own.
package signature

import (
	"regexp"
	"strings"
)

// paramGroupRe captures the first parenthesized group, non-greedy, so a
// nested closing paren inside an annotation ends the match early.
var paramGroupRe = regexp.MustCompile(`\((.*?)\)`)

// Signature captures what a docstring is expected to document: the ordered
// parameter names of a function and whether it returns a value.
type Signature struct {
	ParameterNames []string
	HasReturn      bool
}

// Extract derives a Signature from raw source text.
//
// The parameter list is the content of the first parenthesized group. When
// no group exists the result is empty with HasReturn false, regardless of
// the rest of the text. Each comma-separated piece is trimmed, cut at its
// first ':' to drop a type annotation, and trimmed again; blank pieces are
// skipped. Annotations with internal commas (generic containers) over-split
// into extra names. Coverage scoring applies the same heuristic on both
// sides of a comparison, so the over-split stays best-effort instead of
// being an error.
func Extract(source string) Signature {
	m := paramGroupRe.FindStringSubmatch(source)
	if m == nil {
		return Signature{}
	}

	var names []string
	for _, piece := range strings.Split(m[1], ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		name, _, _ := strings.Cut(piece, ":")
		names = append(names, strings.TrimSpace(name))
	}

	return Signature{
		ParameterNames: names,
		HasReturn:      containsReturnToken(source),
	}
}

// containsReturnToken reports whether text mentions a return at all.
//
// The check is textual, not syntactic: a "return" inside a comment or a
// string literal counts. Every return heuristic in this package routes
// through here.
func containsReturnToken(text string) bool {
	return strings.Contains(strings.ToLower(text), "return")
}
