// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package textnorm canonicalizes documentation text for metric comparison.
//
// Every scorer in the evaluation service compares normalized text, never raw
// docstrings. Normalization is deliberately heuristic and regex-driven: the
// goal is stable token streams for lexical and semantic metrics, not a full
// markup parser. The pipeline stages are order-sensitive and must not be
// reordered; changing them shifts every downstream score.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	// Doc-tag suffixes are removed through end of line. Text is lowered
	// before these run, so "@Param" is covered as well.
	paramTagRe   = regexp.MustCompile(`@param.*`)
	returnsTagRe = regexp.MustCompile(`@returns.*`)

	spaceRunRe = regexp.MustCompile(`\s+`)

	// A token is a run of word characters or a single non-space symbol.
	// Unicode classes keep multi-byte letters in one token.
	tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+|\S`)

	sentenceEndRe = regexp.MustCompile(`[.!?]\s*`)
)

// Normalize canonicalizes raw documentation text.
//
// Stages, in order: lower-case and trim, strip @param/@returns tag lines,
// collapse whitespace runs, then re-tokenize into word runs and isolated
// punctuation joined by single spaces.
//
// Normalize is idempotent: applying it to already-normalized text returns
// the same string. Empty input yields an empty string.
func Normalize(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = paramTagRe.ReplaceAllString(s, "")
	s = returnsTagRe.ReplaceAllString(s, "")
	s = spaceRunRe.ReplaceAllString(s, " ")

	tokens := tokenRe.FindAllString(s, -1)
	return strings.Join(tokens, " ")
}

// SplitSentences segments candidate text on sentence-terminal punctuation.
//
// Pieces are split on '.', '!' or '?' followed by optional whitespace,
// trimmed, and dropped when empty. Order matches source order. The input is
// expected to be raw (pre-normalization) text; callers normalize each
// sentence afterwards.
func SplitSentences(text string) []string {
	parts := sentenceEndRe.Split(text, -1)

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// Words splits normalized text into its whitespace-delimited tokens.
//
// Returns nil for an empty string so callers can distinguish "no words"
// without a length check on a single empty element.
func Words(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
