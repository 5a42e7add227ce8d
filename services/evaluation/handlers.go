// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/doceval/pkg/validation"
	"github.com/AleutianAI/doceval/services/evaluation/dataset"
	"github.com/AleutianAI/doceval/services/evaluation/history"
	"github.com/AleutianAI/doceval/services/evaluation/report"
	"github.com/AleutianAI/doceval/services/evaluation/scoring"
	"github.com/AleutianAI/doceval/services/evaluation/semantic"
	"github.com/AleutianAI/doceval/services/evaluation/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var handlersTracer = otel.Tracer("evaluation.handlers")

// healthChecker is implemented by encoders that can probe their backend.
type healthChecker interface {
	Health(ctx context.Context) error
}

// Handlers contains the HTTP handlers for the evaluation service.
type Handlers struct {
	scorer       *semantic.Scorer
	encoder      semantic.Encoder
	metrics      *telemetry.Metrics
	history      *history.Store
	logger       *slog.Logger
	encoderName  string
	parallelism  int
	skipFailures bool
}

// NewHandlers creates handlers scoring through the given encoder.
func NewHandlers(enc semantic.Encoder) *Handlers {
	return &Handlers{
		encoder: enc,
		scorer:  semantic.NewScorer(enc),
		logger:  slog.Default(),
	}
}

// WithMetrics sets the metrics instruments. Nil disables recording.
func (h *Handlers) WithMetrics(m *telemetry.Metrics) *Handlers {
	h.metrics = m
	return h
}

// WithHistory sets the run history sink. Nil disables it.
func (h *Handlers) WithHistory(store *history.Store) *Handlers {
	h.history = store
	return h
}

// WithScoringDefaults sets the service-level scoring defaults. A request
// can raise its own parallelism or skip-failures flag above these.
func (h *Handlers) WithScoringDefaults(parallelism int, skipFailures bool) *Handlers {
	h.parallelism = parallelism
	h.skipFailures = skipFailures
	return h
}

// WithEncoderName sets the backend label used in responses and history.
func (h *Handlers) WithEncoderName(name string) *Handlers {
	h.encoderName = name
	return h
}

// WithLogger sets the logger for request handling.
func (h *Handlers) WithLogger(logger *slog.Logger) *Handlers {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// HandleScore handles POST /v1/evaluation/score.
//
// Description:
//
//	Scores a whole corpus. The request supplies entries either inline
//	(a "dataset" array, same shape as the dataset file format) or via a
//	server-local "dataset_path". The inline body is re-parsed by the
//	dataset package, so both routes share one parser and one set of
//	validation rules.
//
// Request Body:
//
//	ScoreRequest
//
// Response:
//
//	200 OK: ScoreResponse
//	400 Bad Request: Malformed body, malformed dataset, or ambiguous input
//	413 Request Entity Too Large: Dataset file over the size limit
//	422 Unprocessable Entity: No scoreable entries
//	502 Bad Gateway: Embedding backend failure
func (h *Handlers) HandleScore(c *gin.Context) {
	ctx, span := handlersTracer.Start(c.Request.Context(), "HandleScore")
	defer span.End()
	start := time.Now()

	body, err := c.GetRawData()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "could not read request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	var req ScoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.Warn("Invalid score request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	req.EnsureDefaults()

	logger := h.logger.With(
		"request_id", req.RequestID,
		"trace_id", telemetry.TraceID(ctx),
		"handler", "HandleScore")
	span.SetAttributes(attribute.String("request.id", req.RequestID))

	if err := req.Validate(); err != nil {
		errCode := "INVALID_REQUEST"
		if errors.Is(err, ErrAmbiguousDataset) {
			errCode = "AMBIGUOUS_DATASET"
		}
		logger.Warn("Score request failed validation", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request",
			Code:    errCode,
			Details: err.Error(),
		})
		return
	}

	entries, errResp := h.resolveEntries(&req, body)
	if errResp != nil {
		span.SetStatus(codes.Error, errResp.body.Error)
		logger.Warn("Could not resolve dataset", "error", errResp.body.Details)
		h.recordRun(ctx, "error", start)
		c.JSON(errResp.status, errResp.body)
		return
	}
	span.SetAttributes(attribute.Int("dataset.entries", len(entries)))

	if len(entries) == 0 {
		h.recordRun(ctx, "error", start)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: "dataset contains no entries",
			Code:  "EMPTY_CORPUS",
		})
		return
	}

	logger.Info("Scoring corpus",
		"entries", len(entries),
		"parallelism", req.Parallelism,
		"skip_failures", req.SkipFailures)

	results, err := h.newEvaluator(&req).ScoreCorpus(ctx, entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Corpus scoring failed", "error", err)
		h.recordRun(ctx, "error", start)
		status, errCode := statusForError(err)
		c.JSON(status, ErrorResponse{
			Error:   "corpus scoring failed",
			Code:    errCode,
			Details: err.Error(),
		})
		return
	}

	agg := scoring.NewAggregator()
	skipped := agg.AddResults(results)
	corpus, err := agg.Aggregate()
	if err != nil {
		// Every entry failed and was skipped; nothing to average.
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("No scoreable entries after skipping failures", "skipped", skipped)
		h.recordRun(ctx, "error", start)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "no scoreable entries",
			Code:    "EMPTY_CORPUS",
			Details: err.Error(),
		})
		return
	}

	var buf bytes.Buffer
	if err := report.NewPrinter(&buf).Print(results, corpus); err != nil {
		logger.Warn("Report rendering failed", "error", err)
	}

	elapsed := time.Since(start)
	h.recordRun(ctx, "ok", start)
	if h.metrics != nil {
		h.metrics.EntriesScoredTotal.Add(ctx, int64(corpus.Entries))
		h.metrics.EntriesSkippedTotal.Add(ctx, int64(skipped))
	}
	span.SetAttributes(
		attribute.Int("corpus.scored", corpus.Entries),
		attribute.Int("corpus.skipped", skipped),
	)

	if h.history != nil {
		rec := &history.RunRecord{
			RunID:    req.RequestID,
			Dataset:  datasetLabel(&req),
			Encoder:  h.encoderName,
			Corpus:   corpus,
			Skipped:  skipped,
			Duration: elapsed,
		}
		if err := h.history.StoreRun(ctx, rec); err != nil {
			// Best effort. A run that scored is a run that succeeded.
			logger.Warn("Failed to store run history", "error", err)
		}
	}

	logger.Info("Corpus scored",
		"entries", corpus.Entries,
		"skipped", skipped,
		"duration_ms", elapsed.Milliseconds())

	c.JSON(http.StatusOK, ScoreResponse{
		RequestID:        req.RequestID,
		Corpus:           corpus,
		Items:            itemScores(results),
		Skipped:          skipped,
		Report:           buf.String(),
		ProcessingTimeMs: elapsed.Milliseconds(),
	})
}

// HandleScoreEntry handles POST /v1/evaluation/entry.
//
// Description:
//
//	Scores one reference/candidate pair without corpus aggregation.
//
// Request Body:
//
//	EntryRequest
//
// Response:
//
//	200 OK: EntryResponse
//	400 Bad Request: Validation error
//	502 Bad Gateway: Embedding backend failure
func (h *Handlers) HandleScoreEntry(c *gin.Context) {
	ctx, span := handlersTracer.Start(c.Request.Context(), "HandleScoreEntry")
	defer span.End()
	start := time.Now()

	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.Warn("Invalid entry request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	req.EnsureDefaults()

	logger := h.logger.With(
		"request_id", req.RequestID,
		"trace_id", telemetry.TraceID(ctx),
		"handler", "HandleScoreEntry")
	span.SetAttributes(attribute.String("request.id", req.RequestID))

	if err := req.Validate(); err != nil {
		logger.Warn("Entry request failed validation", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	entry := dataset.Entry{
		Reference:  *req.Reference,
		Candidate:  *req.Candidate,
		SourceCode: req.SourceCode,
	}

	ev := scoring.NewEvaluator(h.scorer, scoring.WithLogger(h.logger))
	m, err := ev.ScoreEntry(ctx, entry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Entry scoring failed", "error", err)
		if h.metrics != nil {
			h.metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("component", "entry_score")))
		}
		status, errCode := statusForError(err)
		c.JSON(status, ErrorResponse{
			Error:   "entry scoring failed",
			Code:    errCode,
			Details: err.Error(),
		})
		return
	}

	elapsed := time.Since(start)
	if h.metrics != nil {
		h.metrics.EntryScoreDuration.Record(ctx, elapsed.Seconds())
	}

	c.JSON(http.StatusOK, EntryResponse{
		RequestID:        req.RequestID,
		Metrics:          m,
		ProcessingTimeMs: elapsed.Milliseconds(),
	})
}

// HandleHealth handles GET /health.
//
// Description:
//
//	Returns the health status of the service. Always returns 200 if running.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "doceval-evaluation"})
}

// HandleReady handles GET /v1/evaluation/ready.
//
// Description:
//
//	Returns readiness including the embedding backend's health. The
//	sidecar is probed through its health endpoint; backends without a
//	health check are assumed ready.
//
// Response:
//
//	200 OK: Service and encoder are ready
//	503 Service Unavailable: Embedding backend unreachable
func (h *Handlers) HandleReady(c *gin.Context) {
	if hc, ok := h.encoder.(healthChecker); ok {
		if err := hc.Health(c.Request.Context()); err != nil {
			h.logger.Warn("Encoder health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":   false,
				"encoder": h.encoderName,
				"error":   err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "encoder": h.encoderName})
}

// =============================================================================
// Private Helpers
// =============================================================================

// handlerError pairs an HTTP status with its response body.
type handlerError struct {
	status int
	body   ErrorResponse
}

// resolveEntries produces the entries for a score request from either the
// inline dataset array or the dataset path.
func (h *Handlers) resolveEntries(req *ScoreRequest, body []byte) ([]dataset.Entry, *handlerError) {
	switch {
	case req.DatasetPath != "":
		clean, err := validation.SanitizeDatasetPath(req.DatasetPath)
		if err != nil {
			return nil, &handlerError{
				status: http.StatusBadRequest,
				body: ErrorResponse{
					Error:   "invalid dataset path",
					Code:    "INVALID_PATH",
					Details: err.Error(),
				},
			}
		}
		entries, err := dataset.Load(clean)
		if err != nil {
			status, errCode := statusForError(err)
			if errors.Is(err, fs.ErrNotExist) {
				status, errCode = http.StatusNotFound, "DATASET_NOT_FOUND"
			}
			return nil, &handlerError{
				status: status,
				body: ErrorResponse{
					Error:   "could not load dataset",
					Code:    errCode,
					Details: err.Error(),
				},
			}
		}
		return entries, nil

	case req.hasInlineDataset():
		// The raw body, not req.Dataset, goes to the parser: the dataset
		// package owns the envelope shape and the entry validation rules.
		entries, err := dataset.Parse(bytes.NewReader(body))
		if err != nil {
			status, errCode := statusForError(err)
			return nil, &handlerError{
				status: status,
				body: ErrorResponse{
					Error:   "could not parse dataset",
					Code:    errCode,
					Details: err.Error(),
				},
			}
		}
		return entries, nil

	default:
		return nil, &handlerError{
			status: http.StatusBadRequest,
			body: ErrorResponse{
				Error: "either dataset or dataset_path is required",
				Code:  "MISSING_DATASET",
			},
		}
	}
}

// newEvaluator builds a per-request evaluator from the service defaults and
// the request overrides.
func (h *Handlers) newEvaluator(req *ScoreRequest) *scoring.Evaluator {
	opts := []scoring.Option{scoring.WithLogger(h.logger)}

	parallelism := h.parallelism
	if req.Parallelism > 0 {
		parallelism = req.Parallelism
	}
	if parallelism > 0 {
		opts = append(opts, scoring.WithParallelism(parallelism))
	}
	if req.SkipFailures || h.skipFailures {
		opts = append(opts, scoring.WithSkipFailures())
	}

	return scoring.NewEvaluator(h.scorer, opts...)
}

// recordRun records the corpus run counter and duration when metrics are on.
func (h *Handlers) recordRun(ctx context.Context, status string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.CorpusRunsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status)))
	h.metrics.CorpusRunDuration.Record(ctx, time.Since(start).Seconds())
}

// itemScores converts evaluator results to their response shape.
func itemScores(results []scoring.EntryResult) []ItemScore {
	items := make([]ItemScore, 0, len(results))
	for _, r := range results {
		item := ItemScore{Index: r.Index}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else {
			m := r.Metrics
			item.Metrics = &m
		}
		items = append(items, item)
	}
	return items
}

// datasetLabel names the dataset for history tags without leaking the
// request body.
func datasetLabel(req *ScoreRequest) string {
	if req.DatasetPath != "" {
		return req.DatasetPath
	}
	return "inline"
}

// statusForError maps scoring pipeline errors to HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, dataset.ErrDatasetTooLarge):
		return http.StatusRequestEntityTooLarge, "DATASET_TOO_LARGE"
	case errors.Is(err, dataset.ErrMalformedDataset):
		return http.StatusBadRequest, "MALFORMED_DATASET"
	case errors.Is(err, dataset.ErrMalformedEntry):
		return http.StatusBadRequest, "MALFORMED_ENTRY"
	case errors.Is(err, scoring.ErrEmptyCorpus):
		return http.StatusUnprocessableEntity, "EMPTY_CORPUS"
	case errors.Is(err, semantic.ErrEncodingFailure):
		return http.StatusBadGateway, "ENCODING_FAILURE"
	case errors.Is(err, semantic.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	default:
		return http.StatusInternalServerError, "SCORE_FAILED"
	}
}
