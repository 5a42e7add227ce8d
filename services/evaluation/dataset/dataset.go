// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset loads and validates evaluation datasets.
//
// A dataset is a JSON file with a top-level "dataset" array of entries,
// each pairing a human-written reference docstring with a machine-written
// candidate and, optionally, the source code of the documented function.
// Structural problems are fatal: a dataset that cannot be trusted end to
// end produces a report that cannot be trusted either.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// DefaultMaxDatasetSize is the maximum dataset file size in bytes.
	// Larger files are rejected before parsing.
	DefaultMaxDatasetSize = 64 * 1024 * 1024 // 64MB

	// WarnDatasetSize triggers a warning for unusually large datasets.
	WarnDatasetSize = 8 * 1024 * 1024 // 8MB
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrMalformedDataset indicates the file is not a JSON object with a
	// "dataset" array.
	ErrMalformedDataset = errors.New("malformed dataset")

	// ErrMalformedEntry indicates an entry is missing a required field.
	ErrMalformedEntry = errors.New("malformed entry")

	// ErrDatasetTooLarge indicates the file exceeds DefaultMaxDatasetSize.
	ErrDatasetTooLarge = errors.New("dataset file exceeds maximum size")
)

// entryValidate is the shared validator instance for dataset entries.
var entryValidate = validator.New()

// =============================================================================
// Types
// =============================================================================

// Entry is one scored function: a reference docstring, a candidate
// docstring, and the source of the documented function. SourceCode may be
// empty; coverage metrics then trivially pass. Entries are immutable once
// loaded.
type Entry struct {
	Reference  string
	Candidate  string
	SourceCode string
}

// entryJSON is the wire shape of an entry. Pointer fields distinguish a
// missing key from an empty string: an empty reference is a valid (if
// useless) docstring, a missing one is a malformed entry.
type entryJSON struct {
	Reference  *string `json:"reference" validate:"required"`
	Candidate  *string `json:"candidate" validate:"required"`
	SourceCode *string `json:"source_code"`
}

// envelope is the top-level wire shape.
type envelope struct {
	Dataset []entryJSON `json:"dataset"`
}

// =============================================================================
// Loading
// =============================================================================

// Parse decodes a dataset from r.
//
// Returns ErrMalformedDataset when the payload is not a JSON object with a
// "dataset" array, and ErrMalformedEntry (with the 1-based entry position)
// when an entry lacks a reference or candidate. A present-but-empty
// "dataset" array parses to zero entries without error; whether that is
// acceptable is the aggregator's decision.
func Parse(r io.Reader) ([]Entry, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
	}
	if env.Dataset == nil {
		return nil, fmt.Errorf("%w: missing \"dataset\" array", ErrMalformedDataset)
	}

	entries := make([]Entry, 0, len(env.Dataset))
	for i, raw := range env.Dataset {
		if err := entryValidate.Struct(raw); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedEntry, i+1, err)
		}

		entry := Entry{
			Reference: *raw.Reference,
			Candidate: *raw.Candidate,
		}
		if raw.SourceCode != nil {
			entry.SourceCode = *raw.SourceCode
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Load reads and parses the dataset file at path, enforcing
// DefaultMaxDatasetSize.
func Load(path string) ([]Entry, error) {
	return loadLimited(path, DefaultMaxDatasetSize)
}

func loadLimited(path string, maxBytes int64) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrDatasetTooLarge, path, info.Size(), maxBytes)
	}
	if info.Size() > WarnDatasetSize {
		slog.Warn("large dataset file",
			slog.String("path", path),
			slog.Int64("bytes", info.Size()))
	}

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return entries, nil
}
