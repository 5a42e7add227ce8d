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

import "github.com/go-playground/validator/v10"

// configValidate is the package-level validator for config structs.
var configValidate = validator.New()

// Config mirrors the optional config.yaml. Flag values win over config
// values; config values win over built-in defaults.
type Config struct {
	Encoder EncoderConfig `yaml:"encoder"`
	Scoring ScoringConfig `yaml:"scoring"`
	History HistoryConfig `yaml:"history"`
	Serve   ServeConfig   `yaml:"serve"`
	Logging LoggingConfig `yaml:"logging"`
}

// Validate checks value constraints the YAML parse cannot. Zero values
// mean "use the default" and always pass.
func (c *Config) Validate() error {
	return configValidate.Struct(c)
}

// EncoderConfig selects and tunes the embedding backend.
type EncoderConfig struct {
	// Backend can be "sidecar" or "openai".
	Backend string `yaml:"backend" validate:"omitempty,oneof=sidecar openai"`

	// EmbeddingURL is the sidecar base URL, e.g. http://localhost:8000.
	EmbeddingURL string `yaml:"embedding_url" validate:"omitempty,url"`

	// Model names the embedding model. Used to namespace the vector cache;
	// must match the model the sidecar actually serves.
	Model string `yaml:"model" validate:"omitempty,max=128"`

	// CacheDir enables the on-disk vector cache when non-empty.
	CacheDir string `yaml:"cache_dir"`
}

// ScoringConfig carries the corpus scoring policy.
type ScoringConfig struct {
	Parallelism  int  `yaml:"parallelism" validate:"gte=0,lte=64"`
	SkipFailures bool `yaml:"skip_failures"`
}

// HistoryConfig toggles the InfluxDB run sink.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ServeConfig carries HTTP service settings for the serve command.
type ServeConfig struct {
	Port    int    `yaml:"port" validate:"gte=0,lte=65535"`
	GinMode string `yaml:"gin_mode" validate:"omitempty,oneof=debug release test"`
}

// LoggingConfig tunes the process logger.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Dir enables daily log files in the given directory alongside
	// stderr. Supports ~ expansion.
	Dir string `yaml:"dir"`

	// JSON switches stderr output to JSON. File logs are always JSON.
	JSON bool `yaml:"json"`
}

// resolveString returns the flag value when set, then the config value,
// then the default.
func resolveString(flagVal, cfgVal, def string) string {
	if flagVal != "" {
		return flagVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	return def
}

// resolveInt returns the flag value when positive, then the config value,
// then the default.
func resolveInt(flagVal, cfgVal, def int) int {
	if flagVal > 0 {
		return flagVal
	}
	if cfgVal > 0 {
		return cfgVal
	}
	return def
}
