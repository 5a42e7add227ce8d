// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// file paths or outbound HTTP calls. Using these validators prevents path
// traversal and request forgery against internal services.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxPathLength caps dataset paths well below common filesystem limits.
const maxPathLength = 4096

// ValidateDatasetPath validates a dataset file path before it is opened.
//
// Valid paths:
//   - 1-4096 characters
//   - .json extension
//   - no NUL bytes
//   - no ".." traversal segments
//
// Returns an error if the path is invalid.
//
// Example:
//
//	if err := validation.ValidateDatasetPath(path); err != nil {
//	    return nil, fmt.Errorf("invalid dataset path: %w", err)
//	}
//	// Safe to pass to os.Open
func ValidateDatasetPath(path string) error {
	if path == "" {
		return fmt.Errorf("dataset path cannot be empty")
	}

	if len(path) > maxPathLength {
		return fmt.Errorf("dataset path exceeds %d characters", maxPathLength)
	}

	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("dataset path contains NUL byte")
	}

	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return fmt.Errorf("dataset path must have .json extension, got %q", filepath.Ext(path))
	}

	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return fmt.Errorf("dataset path must not contain traversal segments: %q", path)
		}
	}

	return nil
}

// SanitizeDatasetPath cleans and validates a dataset file path.
// Returns the cleaned path if valid, or an error if invalid.
//
// Use this when the path arrives from an API request rather than a
// local flag:
//
//	safePath, err := validation.SanitizeDatasetPath(req.DatasetPath)
//	if err != nil {
//	    return err
//	}
//	// safePath is cleaned and validated
func SanitizeDatasetPath(path string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	if err := ValidateDatasetPath(cleaned); err != nil {
		return "", err
	}
	return cleaned, nil
}
