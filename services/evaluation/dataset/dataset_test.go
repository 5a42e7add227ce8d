// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A well-formed dataset parses into entries in file order
func TestParse_Valid(t *testing.T) {
	payload := `{
		"dataset": [
			{"reference": "Adds two numbers.", "candidate": "Returns the sum of a and b.", "source_code": "def add(a, b): return a + b"},
			{"reference": "Greets the user.", "candidate": "Prints a greeting."}
		]
	}`

	entries, err := Parse(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Adds two numbers.", entries[0].Reference)
	assert.Equal(t, "Returns the sum of a and b.", entries[0].Candidate)
	assert.Equal(t, "def add(a, b): return a + b", entries[0].SourceCode)

	// source_code defaults to empty when absent.
	assert.Equal(t, "", entries[1].SourceCode)
}

// A missing top-level dataset key is a malformed dataset
func TestParse_MissingDatasetKey(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"items": []}`))

	assert.ErrorIs(t, err, ErrMalformedDataset)
}

// A null dataset value is a malformed dataset
func TestParse_NullDataset(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"dataset": null}`))

	assert.ErrorIs(t, err, ErrMalformedDataset)
}

// A non-array dataset value is a malformed dataset
func TestParse_NonArrayDataset(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"dataset": {"reference": "x"}}`))

	assert.ErrorIs(t, err, ErrMalformedDataset)
}

// Broken JSON is a malformed dataset
func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"dataset": [`))

	assert.ErrorIs(t, err, ErrMalformedDataset)
}

// An entry without a reference is malformed, reported with its 1-based position
func TestParse_MissingReference(t *testing.T) {
	payload := `{"dataset": [
		{"reference": "ok", "candidate": "ok"},
		{"candidate": "no reference here"}
	]}`

	_, err := Parse(strings.NewReader(payload))

	require.ErrorIs(t, err, ErrMalformedEntry)
	assert.Contains(t, err.Error(), "entry 2")
}

// An entry without a candidate is malformed
func TestParse_MissingCandidate(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"dataset": [{"reference": "only"}]}`))

	assert.ErrorIs(t, err, ErrMalformedEntry)
}

// Present-but-empty strings are valid values, not missing fields
func TestParse_EmptyStringsAllowed(t *testing.T) {
	entries, err := Parse(strings.NewReader(`{"dataset": [{"reference": "", "candidate": ""}]}`))

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "", entries[0].Reference)
}

// An empty dataset array parses to zero entries without error
func TestParse_EmptyArray(t *testing.T) {
	entries, err := Parse(strings.NewReader(`{"dataset": []}`))

	require.NoError(t, err)
	assert.Empty(t, entries)
}

// Load reads a dataset file from disk
func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	payload := `{"dataset": [{"reference": "r", "candidate": "c"}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0600))

	entries, err := Load(path)

	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// Load propagates the sentinel for structural errors, with the path attached
func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dataset": 7}`), 0600))

	_, err := Load(path)

	require.ErrorIs(t, err, ErrMalformedDataset)
	assert.Contains(t, err.Error(), "dataset.json")
}

// A missing file surfaces the open error
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))

	assert.Error(t, err)
}

// Files over the size limit are rejected before parsing
func TestLoad_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	payload := `{"dataset": [{"reference": "r", "candidate": "c"}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0600))

	_, err := loadLimited(path, 10)

	assert.ErrorIs(t, err, ErrDatasetTooLarge)
}
