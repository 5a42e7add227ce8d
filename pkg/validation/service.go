// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// modelNamePattern matches encoder model identifiers.
// Allows: letters, digits, dots, underscores, hyphens, forward slashes
// (sentence-transformers/all-MiniLM-L6-v2), max 128 characters.
var modelNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/\-]{0,127}$`)

// ValidateServiceURL validates a sidecar base URL before requests are
// issued against it.
//
// Valid URLs:
//   - http or https scheme
//   - non-empty host
//   - no query string or fragment
//
// Returns an error if the URL is invalid.
//
// Example:
//
//	if err := validation.ValidateServiceURL(baseURL); err != nil {
//	    return nil, fmt.Errorf("invalid encoder URL: %w", err)
//	}
//	// Safe to join with endpoint paths
func ValidateServiceURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("service URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed service URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service URL must use http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("service URL has no host: %q", raw)
	}

	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("service URL must not carry query or fragment: %q", raw)
	}

	return nil
}

// ValidateModelName validates an encoder model identifier.
//
// Valid names:
//   - 1-128 characters
//   - letters, digits, dots, underscores, hyphens, forward slashes
//
// Returns an error if the name is invalid.
func ValidateModelName(name string) error {
	if name == "" {
		return fmt.Errorf("model name cannot be empty")
	}

	if !modelNamePattern.MatchString(name) {
		return fmt.Errorf("invalid model name: %q", name)
	}

	return nil
}

// SanitizeServiceURL normalizes and validates a sidecar base URL.
// Returns the URL without a trailing slash if valid, or an error if invalid.
func SanitizeServiceURL(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if err := ValidateServiceURL(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
