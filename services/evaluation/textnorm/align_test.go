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
	"github.com/stretchr/testify/require"
)

// The default table carries the three curated rules in order
func TestDefaultReplacements_Order(t *testing.T) {
	reps := DefaultReplacements()
	require.Len(t, reps, 3)
	assert.Equal(t, Replacement{From: "list", To: "array"}, reps[0])
	assert.Equal(t, Replacement{From: "sequence", To: "array"}, reps[1])
	assert.Equal(t, Replacement{From: "string input", To: "input string"}, reps[2])
}

// Each default rule rewrites its vocabulary
func TestAligner_DefaultRules(t *testing.T) {
	a := NewAligner()

	assert.Equal(t, "returns a array of items", a.Align("returns a list of items"))
	assert.Equal(t, "the array of bytes", a.Align("the sequence of bytes"))
	assert.Equal(t, "takes input string", a.Align("takes string input"))
}

// Literal substring matching rewrites inside larger words
func TestAligner_SubstringCollision(t *testing.T) {
	a := NewAligner()
	assert.Equal(t, "arrayed items", a.Align("listed items"))
}

// Rules apply to every occurrence, not just the first
func TestAligner_ReplacesAllOccurrences(t *testing.T) {
	a := NewAligner()
	assert.Equal(t, "array of array", a.Align("list of sequence"))
}

// Matching is case-sensitive
func TestAligner_CaseSensitive(t *testing.T) {
	a := NewAligner()
	assert.Equal(t, "List of items", a.Align("List of items"))
}

// Text with no matching vocabulary passes through unchanged
func TestAligner_NoMatch(t *testing.T) {
	a := NewAligner()
	assert.Equal(t, "computes the mean", a.Align("computes the mean"))
}

// Empty candidate stays empty
func TestAligner_Empty(t *testing.T) {
	a := NewAligner()
	assert.Equal(t, "", a.Align(""))
}

// Custom rule tables override the defaults
func TestAligner_CustomRules(t *testing.T) {
	a := NewAligner(Replacement{From: "dict", To: "map"})

	assert.Equal(t, "returns a map", a.Align("returns a dict"))
	// Default rules are not active
	assert.Equal(t, "returns a list", a.Align("returns a list"))
}

// Applied reports the rules that fire, in declared order
func TestAligner_Applied(t *testing.T) {
	a := NewAligner()

	fired := a.Applied("a list in sequence")
	require.Len(t, fired, 2)
	assert.Equal(t, "list", fired[0].From)
	assert.Equal(t, "sequence", fired[1].From)

	assert.Nil(t, a.Applied("nothing to do"))
}
