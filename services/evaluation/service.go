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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/doceval/pkg/validation"
	"github.com/AleutianAI/doceval/services/evaluation/history"
	"github.com/AleutianAI/doceval/services/evaluation/semantic"
	"github.com/AleutianAI/doceval/services/evaluation/storage/badger"
	"github.com/AleutianAI/doceval/services/evaluation/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the evaluation service.
//
// # Description
//
// Service abstracts the evaluation server lifecycle, enabling testing and
// alternative implementations. Run() blocks and should only be called once
// per instance.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use after construction.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	// Cleanup of the cache, history sink, and telemetry is automatic
	// on return.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers
	// must not modify the routes.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds evaluation service configuration options.
//
// # Description
//
// Config centralizes all configuration for the evaluation service. Values
// can be populated from environment variables, config files, or
// programmatically for testing. All fields have defaults applied by New().
//
// # Examples
//
//	// Minimal config (uses all defaults)
//	cfg := Config{}
//
//	// Custom port and OpenAI embeddings
//	cfg := Config{
//	    Port:           9090,
//	    EncoderBackend: "openai",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 8090
	Port int

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: leaves the GIN_MODE env var in charge.
	GinMode string

	// EncoderBackend selects the embedding backend.
	// Valid values: "sidecar", "openai"
	// Default: "sidecar"
	EncoderBackend string

	// EmbeddingURL is the embeddings sidecar base URL.
	// Default: "http://localhost:8000"
	EmbeddingURL string

	// EmbeddingModel labels the model the sidecar runs. Used only to
	// namespace the vector cache; must match the deployed sidecar model.
	// Default: "all-MiniLM-L6-v2"
	EmbeddingModel string

	// CacheDir is the directory for the persistent vector cache.
	// If empty (and CacheInMemory is false), caching is disabled.
	CacheDir string

	// CacheInMemory enables an in-memory vector cache. Useful for testing.
	// Takes precedence over CacheDir.
	CacheInMemory bool

	// Parallelism is the default scoring worker count for corpus runs.
	// Zero keeps the evaluator's own default. Requests can override it.
	Parallelism int

	// SkipFailures makes failed entries non-fatal for all corpus runs.
	// Requests can enable it per-run regardless of this default.
	SkipFailures bool

	// HistoryEnabled turns on the InfluxDB run history sink.
	// Default: false
	HistoryEnabled bool

	// Telemetry configures tracing and metrics.
	// If nil, telemetry.DefaultConfig() is used.
	Telemetry *telemetry.Config
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Description
//
// service coordinates HTTP routing via Gin, the embedding backend with its
// optional BadgerDB vector cache, the InfluxDB run history sink, and
// OpenTelemetry tracing and metrics.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config            Config
	router            *gin.Engine
	handlers          *Handlers
	metrics           *telemetry.Metrics
	encoder           semantic.Encoder
	encoderName       string
	cacheDB           *badger.DB
	statsRegistration metric.Registration
	historyStore      *history.Store
	telemetryShutdown func(context.Context) error
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new evaluation Service with the given configuration.
//
// # Description
//
// New initializes all service components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing and metrics
//  3. Creates the embedding encoder (with optional vector cache)
//  4. Creates the run history sink if enabled
//  5. Sets up HTTP routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run evaluation service
//   - error: Non-nil if initialization fails
//
// # Examples
//
//	cfg := evaluation.Config{Port: 8090, CacheDir: "/var/cache/doceval"}
//	svc, err := evaluation.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
//
// # Assumptions
//
//   - Environment variables are set for the chosen backend (API keys, URLs)
//   - The embeddings sidecar need not be up yet; readiness reports it
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	// Initialize OpenTelemetry tracing and metrics
	tcfg := telemetry.DefaultConfig()
	if s.config.Telemetry != nil {
		tcfg = *s.config.Telemetry
	}
	shutdown, err := telemetry.Init(context.Background(), tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	s.telemetryShutdown = shutdown

	// Create metric instruments
	s.metrics, err = telemetry.NewMetrics(otel.Meter("evaluation"))
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	// Initialize the embedding encoder and optional vector cache
	if err := s.initEncoder(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize encoder: %w", err)
	}

	// Initialize the run history sink (optional)
	if s.config.HistoryEnabled {
		store, err := history.NewStore()
		if err != nil {
			s.cleanup()
			return nil, fmt.Errorf("failed to initialize history sink: %w", err)
		}
		s.historyStore = store
		slog.Info("Run history sink enabled",
			"org", store.Org(), "bucket", store.Bucket())
	}

	// Build handlers and HTTP router
	s.handlers = NewHandlers(s.encoder).
		WithMetrics(s.metrics).
		WithHistory(s.historyStore).
		WithScoringDefaults(s.config.Parallelism, s.config.SkipFailures).
		WithEncoderName(s.encoderName)
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting evaluation server",
		"port", s.config.Port,
		"encoder", s.encoderName)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8090
	}
	if cfg.EncoderBackend == "" {
		cfg.EncoderBackend = "sidecar"
	}
	if cfg.EmbeddingURL == "" {
		cfg.EmbeddingURL = "http://localhost:8000"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "all-MiniLM-L6-v2"
	}
	return cfg
}

// initEncoder creates the embedding encoder for the configured backend and
// wraps it with the BadgerDB vector cache when one is configured.
func (s *service) initEncoder() error {
	var (
		enc       semantic.Encoder
		namespace string
	)

	if err := validation.ValidateModelName(s.config.EmbeddingModel); err != nil {
		return fmt.Errorf("invalid embedding model: %w", err)
	}

	switch s.config.EncoderBackend {
	case "sidecar":
		base, err := validation.SanitizeServiceURL(s.config.EmbeddingURL)
		if err != nil {
			return fmt.Errorf("invalid embedding URL: %w", err)
		}
		enc = semantic.NewSidecarEncoder(base)
		namespace = "sidecar/" + s.config.EmbeddingModel
		slog.Info("Using sidecar embedding backend", "url", base)
	case "openai":
		oe, err := semantic.NewOpenAIEncoder()
		if err != nil {
			return fmt.Errorf("create OpenAI encoder: %w", err)
		}
		enc = oe
		namespace = "openai/" + oe.Model()
		slog.Info("Using OpenAI embedding backend", "model", oe.Model())
	default:
		slog.Warn("Unknown encoder backend, defaulting to sidecar",
			"backend", s.config.EncoderBackend)
		base, err := validation.SanitizeServiceURL(s.config.EmbeddingURL)
		if err != nil {
			return fmt.Errorf("invalid embedding URL: %w", err)
		}
		enc = semantic.NewSidecarEncoder(base)
		namespace = "sidecar/" + s.config.EmbeddingModel
	}
	s.encoderName = s.config.EncoderBackend

	if s.config.CacheInMemory || s.config.CacheDir != "" {
		db, err := s.openCache()
		if err != nil {
			return fmt.Errorf("open vector cache: %w", err)
		}
		s.cacheDB = db

		cached := semantic.NewCachedEncoder(enc, db, namespace)
		enc = cached

		reg, err := s.metrics.RegisterEncoderCacheStats(otel.Meter("evaluation"), cached.Stats)
		if err != nil {
			slog.Warn("Could not register cache stats instruments", "error", err)
		} else {
			s.statsRegistration = reg
		}
		slog.Info("Vector cache enabled",
			"path", db.Path(), "namespace", namespace)
	}

	s.encoder = enc
	return nil
}

// openCache opens the configured BadgerDB cache database.
func (s *service) openCache() (*badger.DB, error) {
	if s.config.CacheInMemory {
		return badger.OpenInMemory()
	}
	cfg := badger.DefaultConfig()
	cfg.Path = s.config.CacheDir
	cfg.Logger = slog.Default()
	return badger.OpenDB(cfg)
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("evaluation-service"))
	s.router.Use(telemetry.MetricsMiddleware(s.metrics))

	s.router.GET("/health", s.handlers.HandleHealth)

	// The Prometheus scrape endpoint exists only when the prometheus
	// metric exporter is active.
	if mh := telemetry.MetricsHandler(); mh != nil {
		s.router.GET("/metrics", gin.WrapH(mh))
	}

	v1 := s.router.Group("/v1")
	RegisterRoutes(v1, s.handlers)
}

// cleanup releases all resources held by the service.
//
// Called when Run() exits or on initialization failure.
func (s *service) cleanup() {
	if s.statsRegistration != nil {
		if err := s.statsRegistration.Unregister(); err != nil {
			slog.Warn("Cache stats unregister error", "error", err)
		}
	}

	if s.cacheDB != nil {
		if err := s.cacheDB.Close(); err != nil {
			slog.Warn("Vector cache close error", "error", err)
		}
	}

	if s.historyStore != nil {
		s.historyStore.Close()
	}

	if s.telemetryShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.telemetryShutdown(ctx); err != nil {
			slog.Warn("Telemetry shutdown error", "error", err)
		}
	}
}
