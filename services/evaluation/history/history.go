// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists corpus-level scoring results to InfluxDB.
//
// Each scoring run becomes one time-series point, tagged with the run ID,
// dataset name, and encoder backend. That makes successive runs of the same
// dataset comparable over time (did the new docstring generator actually
// improve parameter coverage?) without keeping report files around.
//
// The sink is optional. Scoring never depends on it, and a write failure is
// the caller's to log and ignore.
package history

import (
	"context"
	"fmt"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/AleutianAI/doceval/services/evaluation/scoring"
)

// measurement is the InfluxDB measurement name for scoring runs.
const measurement = "docstring_evaluations"

// RunRecord describes one completed corpus scoring run.
type RunRecord struct {
	// RunID uniquely identifies the run (a UUID from the CLI or service).
	RunID string

	// Dataset is a short label for the scored dataset (usually the file name).
	Dataset string

	// Encoder names the embedding backend used ("sidecar", "openai", ...).
	Encoder string

	// Corpus holds the aggregated metrics for the run.
	Corpus scoring.CorpusMetrics

	// Skipped is the number of entries excluded after scoring failures.
	Skipped int

	// Duration is the wall-clock time of the run.
	Duration time.Duration

	// Timestamp is the point time. Zero means "now".
	Timestamp time.Time
}

// Store writes scoring runs to InfluxDB.
type Store struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	bucket   string
	org      string
}

// NewStore creates an InfluxDB-backed history store from the environment.
//
// Reads INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, and INFLUXDB_BUCKET,
// falling back to the local development stack defaults. The client connects
// lazily, so construction succeeds even when InfluxDB is down; the first
// StoreRun reports the failure.
func NewStore() (*Store, error) {
	url := os.Getenv("INFLUXDB_URL")
	if url == "" {
		url = "http://localhost:12130"
	}

	token := os.Getenv("INFLUXDB_TOKEN")
	if token == "" {
		// Fall back to the default dev token
		token = "your_super_secret_admin_token"
	}

	org := os.Getenv("INFLUXDB_ORG")
	if org == "" {
		org = "aleutian"
	}

	bucket := os.Getenv("INFLUXDB_BUCKET")
	if bucket == "" {
		bucket = "doceval"
	}

	client := influxdb2.NewClient(url, token)
	writeAPI := client.WriteAPIBlocking(org, bucket)

	return &Store{
		client:   client,
		writeAPI: writeAPI,
		bucket:   bucket,
		org:      org,
	}, nil
}

// StoreRun writes one run record as a point.
func (s *Store) StoreRun(ctx context.Context, rec *RunRecord) error {
	if rec == nil {
		return fmt.Errorf("run record must not be nil")
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	p := influxdb2.NewPointWithMeasurement(measurement).
		AddTag("run_id", rec.RunID).
		AddTag("dataset", rec.Dataset).
		AddTag("encoder", rec.Encoder).
		AddField("avg_param_coverage", rec.Corpus.AvgParamCoverage).
		AddField("avg_return_coverage", rec.Corpus.AvgReturnCoverage).
		AddField("avg_containment", rec.Corpus.AvgContainment).
		AddField("avg_usefulness", rec.Corpus.AvgUsefulness).
		AddField("avg_semantic_similarity", rec.Corpus.AvgSemanticSimilarity).
		AddField("avg_rouge_l", rec.Corpus.AvgRougeL).
		AddField("bleu", rec.Corpus.BLEU).
		AddField("entries", rec.Corpus.Entries).
		AddField("skipped", rec.Skipped).
		AddField("duration_seconds", rec.Duration.Seconds()).
		SetTime(ts)

	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write run point: %w", err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// Org returns the configured organization name.
func (s *Store) Org() string {
	return s.org
}

// Close releases the underlying InfluxDB client.
func (s *Store) Close() {
	s.client.Close()
}
