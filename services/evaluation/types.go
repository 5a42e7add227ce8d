// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package evaluation provides the docstring scoring HTTP service.
//
// This file contains request and response types for the scoring endpoints.
// The dataset payload itself is not modeled here: the score handler feeds
// the raw request body to the dataset package, so the HTTP surface and the
// file format share one parser and one set of validation errors.
package evaluation

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AleutianAI/doceval/services/evaluation/scoring"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxParallelism caps the per-request scoring worker count.
	MaxParallelism = 64
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// evalValidate is the validator instance for evaluation datatypes.
var evalValidate = validator.New()

// ErrAmbiguousDataset indicates a score request that provided both an inline
// dataset and a dataset path.
var ErrAmbiguousDataset = errors.New("dataset and dataset_path are mutually exclusive")

// =============================================================================
// Score Request / Response
// =============================================================================

// ScoreRequest carries the control fields of a corpus scoring request.
//
// # Description
//
// A score request supplies its entries either inline (a `dataset` array in
// the body, identical to the dataset file format) or by server-local path
// (`dataset_path`). Exactly one of the two must be present.
//
// The inline array is deliberately typed as raw JSON: the handler re-parses
// the whole body through the dataset package, which owns entry validation.
//
// # Examples
//
//	{"dataset": [{"reference": "...", "candidate": "...", "source_code": "..."}]}
//	{"dataset_path": "/data/eval/results.json", "parallelism": 4}
type ScoreRequest struct {
	// RequestID correlates logs, traces, and the stored run. Generated
	// server-side when absent.
	RequestID string `json:"request_id" validate:"omitempty,uuid4"`

	// Dataset is the inline entry array, parsed by the dataset package.
	Dataset json.RawMessage `json:"dataset"`

	// DatasetPath is a server-local JSON dataset file.
	DatasetPath string `json:"dataset_path"`

	// Parallelism overrides the service's scoring worker count. Zero keeps
	// the service default.
	Parallelism int `json:"parallelism" validate:"gte=0,lte=64"`

	// SkipFailures reports failed entries instead of aborting the run.
	SkipFailures bool `json:"skip_failures"`
}

// hasInlineDataset reports whether the request carried a dataset array.
func (r *ScoreRequest) hasInlineDataset() bool {
	return len(r.Dataset) > 0 && string(r.Dataset) != "null"
}

// EnsureDefaults populates default values for optional fields.
func (r *ScoreRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.New().String()
	}
}

// Validate validates the ScoreRequest fields.
//
// Checks the validator tags and the dataset/dataset_path exclusivity rule.
func (r *ScoreRequest) Validate() error {
	if err := evalValidate.Struct(r); err != nil {
		return err
	}
	if r.hasInlineDataset() && r.DatasetPath != "" {
		return ErrAmbiguousDataset
	}
	return nil
}

// ItemScore is one entry's result in a score response.
//
// Failed entries (skip-failures mode) carry Error instead of Metrics and are
// excluded from the corpus averages.
type ItemScore struct {
	Index   int                     `json:"index"`
	Metrics *scoring.PerItemMetrics `json:"metrics,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// ScoreResponse is the full result of a corpus scoring run.
type ScoreResponse struct {
	RequestID string                `json:"request_id"`
	Corpus    scoring.CorpusMetrics `json:"corpus"`
	Items     []ItemScore           `json:"items"`
	Skipped   int                   `json:"skipped"`

	// Report is the rendered plain-text report, byte-identical to the
	// CLI output for the same entries.
	Report string `json:"report"`

	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// =============================================================================
// Entry Request / Response
// =============================================================================

// EntryRequest scores a single reference/candidate pair.
//
// Reference and candidate are pointers so an absent key is rejected while an
// explicit empty string is scored (the same distinction the dataset file
// format makes).
type EntryRequest struct {
	RequestID  string  `json:"request_id" validate:"omitempty,uuid4"`
	Reference  *string `json:"reference" validate:"required"`
	Candidate  *string `json:"candidate" validate:"required"`
	SourceCode string  `json:"source_code"`
}

// EnsureDefaults populates default values for optional fields.
func (r *EntryRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.New().String()
	}
}

// Validate validates the EntryRequest fields.
func (r *EntryRequest) Validate() error {
	return evalValidate.Struct(r)
}

// EntryResponse is the result of a single-entry scoring request.
type EntryResponse struct {
	RequestID        string                 `json:"request_id"`
	Metrics          scoring.PerItemMetrics `json:"metrics"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
}

// =============================================================================
// Error Response
// =============================================================================

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	// Error is a human-readable description.
	Error string `json:"error"`

	// Code is a stable machine-readable identifier (e.g. "MALFORMED_DATASET").
	Code string `json:"code,omitempty"`

	// Details carries the underlying error text when it adds information.
	Details string `json:"details,omitempty"`
}
