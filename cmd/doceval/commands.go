// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath       string
	datasetPath      string
	encoderBackend   string
	embeddingURL     string
	parallelism      int
	skipFailures     bool
	cacheDir         string
	recordHistory    bool
	jsonOutput       bool
	servePort        int
	serveDebug       bool
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "doceval",
		Short: "A cli to score machine-generated docstrings against references",
		Long: `Doceval measures the quality of machine-generated function
documentation: lexical containment, parameter and return coverage,
semantic similarity through sentence embeddings, and a composite
usefulness score, aggregated over a whole dataset.`,
	}

	// --- Scoring ---
	scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "Score a docstring dataset and print the evaluation report",
		Run:   runScore, // Defined in cmd_score.go
	}

	// --- Service ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation HTTP service",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Run History ---
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Inspect scoring runs recorded to InfluxDB",
	}
	exportHistoryCmd = &cobra.Command{
		Use:   "export [run_id]",
		Short: "Export a recorded scoring run to CSV",
		Args:  cobra.ExactArgs(1),
		Run:   runExportHistory, // Defined in cmd_history.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run:   runVersion, // Defined in cmd_version.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (default: config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default), standard, minimal, or machine (scripting)")

	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the dataset JSON file (required)")
	scoreCmd.Flags().StringVar(&encoderBackend, "encoder", "", "Embedding backend: sidecar or openai")
	scoreCmd.Flags().StringVar(&embeddingURL, "embedding-url", "", "Embeddings sidecar base URL (default http://localhost:8000)")
	scoreCmd.Flags().IntVar(&parallelism, "parallel", 0, "Entries scored concurrently (0 or 1 = sequential)")
	scoreCmd.Flags().BoolVar(&skipFailures, "skip-failures", false,
		"Report entries that fail to encode instead of aborting the run")
	scoreCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for the on-disk vector cache (empty = no cache)")
	scoreCmd.Flags().BoolVar(&recordHistory, "history", false, "Record the run to InfluxDB")
	scoreCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON instead of the report")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default 8090)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Run gin in debug mode")

	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(exportHistoryCmd)
	exportHistoryCmd.Flags().StringP("output", "o", "", "Output filename (default: doceval_{RunID}.csv)")

	rootCmd.AddCommand(versionCmd)
}
