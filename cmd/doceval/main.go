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
	"log"
	"log/slog"
	"os"

	"github.com/AleutianAI/doceval/pkg/logging"
	"github.com/AleutianAI/doceval/pkg/ux"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	config    Config
	appLogger *logging.Logger
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	err := rootCmd.Execute()
	if appLogger != nil {
		appLogger.Close()
	}
	if err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Initialize UX personality from flag or environment
		if personalityLevel != "" {
			ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
		} else {
			ux.InitPersonality()
		}

		loadConfig()
		initLogging()
	}
}

// loadConfig reads the config file into the package-level config.
// The default config file is optional; a path the user named is not.
func loadConfig() {
	path := configPath
	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit {
			log.Fatalf("Error reading %s: %v", path, err)
		}
		return
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		log.Fatalf("Error parsing %s: %v", path, err)
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid config %s: %v", path, err)
	}
}

// initLogging builds the process logger and installs it as the slog
// default, so every package logging through slog.Default() shares its
// destinations.
func initLogging() {
	appLogger = logging.New(logging.Config{
		Level:   logging.ParseLevel(config.Logging.Level),
		LogDir:  config.Logging.Dir,
		Service: "cli",
		JSON:    config.Logging.JSON,
	})
	slog.SetDefault(appLogger.Slog())
}
