// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics contains pre-defined metrics for the evaluation service.
//
// Description:
//
//	Provides standard counters and histograms for HTTP requests, corpus
//	scoring runs, per-entry scoring, and embedding-cache effectiveness.
//	All metrics use the "doceval_" prefix for consistent naming.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// --- HTTP Metrics ---

	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// HTTPActiveRequests tracks currently active HTTP requests.
	HTTPActiveRequests metric.Int64UpDownCounter

	// --- Scoring Metrics ---

	// CorpusRunsTotal counts total corpus scoring runs by status.
	CorpusRunsTotal metric.Int64Counter

	// CorpusRunDuration records corpus scoring duration in seconds.
	CorpusRunDuration metric.Float64Histogram

	// EntriesScoredTotal counts total entries scored by status.
	EntriesScoredTotal metric.Int64Counter

	// EntriesSkippedTotal counts entries excluded from aggregation after
	// scoring failures.
	EntriesSkippedTotal metric.Int64Counter

	// EntryScoreDuration records single-entry scoring duration in seconds.
	EntryScoreDuration metric.Float64Histogram

	// --- Encoder Cache Metrics ---

	// EncodeCacheHits reports cumulative embedding-cache hits at scrape time.
	EncodeCacheHits metric.Int64ObservableCounter

	// EncodeCacheMisses reports cumulative embedding-cache misses at scrape time.
	EncodeCacheMisses metric.Int64ObservableCounter

	// --- Error Metrics ---

	// ErrorsTotal counts total errors by type and component.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
//
// Description:
//
//	Registers all pre-defined metrics with the provided meter.
//	Returns an error if any metric registration fails.
//
// Inputs:
//
//	meter - The OTel meter to use for metric registration.
//
// Outputs:
//
//	*Metrics - The metrics instance with all counters and histograms initialized.
//	error - Non-nil if metric registration fails.
//
// Example:
//
//	meter := otel.Meter("evaluation")
//	metrics, err := telemetry.NewMetrics(meter)
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
//	metrics.CorpusRunsTotal.Add(ctx, 1, ...)
//
// Thread Safety: Safe for concurrent use after creation.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	// --- HTTP Metrics ---
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"doceval_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"doceval_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"doceval_http_active_requests",
		metric.WithDescription("Currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_active_requests: %w", err)
	}

	// --- Scoring Metrics ---
	m.CorpusRunsTotal, err = meter.Int64Counter(
		"doceval_corpus_runs_total",
		metric.WithDescription("Total corpus scoring runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create corpus_runs_total: %w", err)
	}

	m.CorpusRunDuration, err = meter.Float64Histogram(
		"doceval_corpus_run_duration_seconds",
		metric.WithDescription("Corpus scoring duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, fmt.Errorf("create corpus_run_duration: %w", err)
	}

	m.EntriesScoredTotal, err = meter.Int64Counter(
		"doceval_entries_scored_total",
		metric.WithDescription("Total dataset entries scored"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create entries_scored_total: %w", err)
	}

	m.EntriesSkippedTotal, err = meter.Int64Counter(
		"doceval_entries_skipped_total",
		metric.WithDescription("Entries excluded from aggregation after scoring failures"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create entries_skipped_total: %w", err)
	}

	m.EntryScoreDuration, err = meter.Float64Histogram(
		"doceval_entry_score_duration_seconds",
		metric.WithDescription("Single-entry scoring duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("create entry_score_duration: %w", err)
	}

	// Note: EncodeCacheHits/Misses require a callback registration, handled separately

	// --- Error Metrics ---
	m.ErrorsTotal, err = meter.Int64Counter(
		"doceval_errors_total",
		metric.WithDescription("Total errors by type and component"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}

	return m, nil
}

// RegisterEncoderCacheStats registers a callback for embedding-cache counters.
//
// Description:
//
//	Sets up observable counters that report cumulative cache hits and misses.
//	The callback is invoked each time metrics are scraped, so the encoder's
//	own counters stay the single source of truth.
//
// Inputs:
//
//	meter - The OTel meter to use for registration.
//	statsFunc - A function that returns the current (hits, misses) totals.
//
// Outputs:
//
//	metric.Registration - Registration handle for cleanup.
//	error - Non-nil if registration fails.
func (m *Metrics) RegisterEncoderCacheStats(meter metric.Meter, statsFunc func() (hits, misses int64)) (metric.Registration, error) {
	var err error
	m.EncodeCacheHits, err = meter.Int64ObservableCounter(
		"doceval_encode_cache_hits_total",
		metric.WithDescription("Cumulative embedding-cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create encode_cache_hits: %w", err)
	}

	m.EncodeCacheMisses, err = meter.Int64ObservableCounter(
		"doceval_encode_cache_misses_total",
		metric.WithDescription("Cumulative embedding-cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create encode_cache_misses: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		hits, misses := statsFunc()
		o.ObserveInt64(m.EncodeCacheHits, hits)
		o.ObserveInt64(m.EncodeCacheMisses, misses)
		return nil
	}, m.EncodeCacheHits, m.EncodeCacheMisses)
}
