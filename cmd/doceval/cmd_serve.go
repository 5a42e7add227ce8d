package main

import (
	"fmt"
	"os"

	"github.com/AleutianAI/doceval/pkg/ux"
	"github.com/AleutianAI/doceval/services/evaluation"
	"github.com/spf13/cobra"
)

func runServe(_ *cobra.Command, _ []string) {
	// 1. Build the service config from flags and the config file
	cfg := evaluation.Config{
		Port:           resolveInt(servePort, config.Serve.Port, 0),
		GinMode:        config.Serve.GinMode,
		EncoderBackend: config.Encoder.Backend,
		EmbeddingURL:   config.Encoder.EmbeddingURL,
		EmbeddingModel: config.Encoder.Model,
		CacheDir:       config.Encoder.CacheDir,
		Parallelism:    config.Scoring.Parallelism,
		SkipFailures:   config.Scoring.SkipFailures,
		HistoryEnabled: config.History.Enabled,
	}
	if serveDebug {
		cfg.GinMode = "debug"
	} else if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}

	// 2. Construct the service
	svc, err := evaluation.New(cfg)
	if err != nil {
		ux.Error(fmt.Sprintf("Failed to start evaluation service: %v", err))
		os.Exit(1)
	}

	// 3. Print startup banner and run; Run blocks until shutdown
	printBanner(resolveInt(servePort, config.Serve.Port, 8090))
	if err := svc.Run(); err != nil {
		ux.Error(fmt.Sprintf("Evaluation service exited: %v", err))
		os.Exit(1)
	}
}

func printBanner(port int) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                    DOCEVAL EVALUATION SERVER                      ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Scores generated docstrings against references over HTTP.        ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/v1/evaluation/health             │  ║
║  │                                                             │  ║
║  │ # Score a dataset file on the server's disk                 │  ║
║  │ curl -X POST http://localhost:%d/v1/evaluation/score \    │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"dataset_path": "dataset.json"}'                     │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── POST /v1/evaluation/score   (inline dataset or dataset_path) ║
║  ├── POST /v1/evaluation/entry   (single reference/candidate)     ║
║  ├── GET  /v1/evaluation/health, /v1/evaluation/ready             ║
║  └── GET  /metrics               (prometheus, when enabled)       ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, port, port)
}
