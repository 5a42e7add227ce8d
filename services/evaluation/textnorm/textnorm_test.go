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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Lower-casing and trimming happen before everything else
func TestNormalize_LowercasesAndTrims(t *testing.T) {
	assert.Equal(t, "adds two numbers", Normalize("  Adds Two Numbers  "))
}

// Whitespace runs collapse to single spaces
func TestNormalize_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("hello \t\n  world"))
}

// Punctuation becomes isolated tokens
func TestNormalize_SeparatesPunctuation(t *testing.T) {
	assert.Equal(t, "returns the sum .", Normalize("Returns the sum."))
	assert.Equal(t, "don ' t", Normalize("don't"))
}

// @param tags are stripped through end of line
func TestNormalize_StripsParamTags(t *testing.T) {
	got := Normalize("Adds numbers\n@param a: the first value")
	assert.Equal(t, "adds numbers", got)
}

// @returns tags are stripped through end of line
func TestNormalize_StripsReturnsTags(t *testing.T) {
	got := Normalize("Adds numbers\n@returns the total")
	assert.Equal(t, "adds numbers", got)
}

// Multiple tag lines all disappear; surrounding prose survives
func TestNormalize_StripsMultipleTagLines(t *testing.T) {
	doc := "Sums values.\n@param a: first\n@param b: second\n@returns total"
	assert.Equal(t, "sums values .", Normalize(doc))
}

// Tag matching is effectively case-insensitive because lowering runs first
func TestNormalize_StripsUppercaseTags(t *testing.T) {
	got := Normalize("Does things\n@Param x: mixed case tag")
	assert.Equal(t, "does things", got)
}

// Tag stripping stops at the newline, keeping later lines
func TestNormalize_TagStripStopsAtNewline(t *testing.T) {
	doc := "@param a: first\nBut this line stays"
	assert.Equal(t, "but this line stays", Normalize(doc))
}

// Re-normalizing normalized text is a no-op
func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Returns the sum.",
		"Adds numbers\n@param a: value\n@returns total",
		"  Mixed   Case, with; punctuation!  ",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

// Empty input is not an error
func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   \n\t  "))
}

// Multi-byte letters stay in a single token
func TestNormalize_Unicode(t *testing.T) {
	assert.Equal(t, "café latte", Normalize("Café latte"))
}

// Basic sentence segmentation on terminal punctuation
func TestSplitSentences_Basic(t *testing.T) {
	got := SplitSentences("First. Second! Third?")
	assert.Equal(t, []string{"First", "Second", "Third"}, got)
}

// Text without terminal punctuation is one sentence
func TestSplitSentences_NoTerminator(t *testing.T) {
	got := SplitSentences("just one sentence")
	assert.Equal(t, []string{"just one sentence"}, got)
}

// Trailing terminator does not produce an empty sentence
func TestSplitSentences_TrailingPeriod(t *testing.T) {
	got := SplitSentences("Ends with period.")
	assert.Equal(t, []string{"Ends with period"}, got)
}

// Ellipses collapse into empty pieces that get dropped
func TestSplitSentences_Ellipsis(t *testing.T) {
	got := SplitSentences("Wait... done.")
	assert.Equal(t, []string{"Wait", "done"}, got)
}

// Empty and punctuation-only inputs produce no sentences
func TestSplitSentences_Empty(t *testing.T) {
	assert.Empty(t, SplitSentences(""))
	assert.Empty(t, SplitSentences(" . ! ? "))
}

// Splitting preserves the raw casing of each piece
func TestSplitSentences_PreservesRawText(t *testing.T) {
	got := SplitSentences("Returns X. See Also")
	assert.Equal(t, []string{"Returns X", "See Also"}, got)
}

// Words on empty text is nil, not a one-element slice
func TestWords_Empty(t *testing.T) {
	assert.Nil(t, Words(""))
}

// Words splits on single spaces from normalized text
func TestWords_Basic(t *testing.T) {
	assert.Equal(t, []string{"returns", "the", "sum", "."}, Words("returns the sum ."))
}
