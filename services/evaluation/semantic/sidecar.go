// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSidecarTimeout is the default timeout for embedding requests.
const DefaultSidecarTimeout = 30 * time.Second

// SidecarEncoder calls the Python embeddings sidecar.
//
// # Description
//
// SidecarEncoder provides a Go interface to the embeddings service, which
// runs sentence-transformer models (like all-MiniLM-L6-v2) to generate
// vector embeddings for documentation text. The service exposes
// POST /batch_embed and GET /health.
//
// # Thread Safety
//
// SidecarEncoder is safe for concurrent use.
type SidecarEncoder struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
}

var _ Encoder = (*SidecarEncoder)(nil)

// NewSidecarEncoder creates an encoder configured to connect to the
// embeddings service at the given URL, e.g. "http://localhost:8000".
// The service should be running and accessible before scoring starts;
// use Health to verify.
func NewSidecarEncoder(baseURL string) *SidecarEncoder {
	return &SidecarEncoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultSidecarTimeout,
		},
		timeout: DefaultSidecarTimeout,
	}
}

// WithTimeout sets a custom timeout for embedding requests.
func (c *SidecarEncoder) WithTimeout(timeout time.Duration) *SidecarEncoder {
	c.timeout = timeout
	c.httpClient.Timeout = timeout
	return c
}

// WithRateLimit caps requests at rps per second with the given burst.
// A shared sidecar instance serving several scoring runs needs this to
// keep one run from starving the others.
func (c *SidecarEncoder) WithRateLimit(rps float64, burst int) *SidecarEncoder {
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// embedRequest is the request body for the /batch_embed endpoint.
type embedRequest struct {
	Texts []string `json:"texts"`
}

// embedResponse is the response from the /batch_embed endpoint.
type embedResponse struct {
	ID        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Model     string      `json:"model"`
	Vectors   [][]float32 `json:"vectors"`
	Dim       int         `json:"dim"`
}

// healthResponse is the response from the /health endpoint.
type healthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// Encode computes a vector embedding for a single text.
//
// Empty text is passed through to the service: normalization can produce
// an empty candidate, and the model embeds the empty string like any
// other input.
func (c *SidecarEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.BatchEncode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// BatchEncode computes embeddings for multiple texts in one request.
//
// # Description
//
// Batches texts into a single service call, one vector returned per
// input in input order. Batching the reference and candidate of an entry
// halves the round trips of per-text encoding.
//
// # Outputs
//
//   - [][]float32: The embedding vectors, one per input text.
//   - error: Wraps ErrEncodingFailure if the service cannot produce them.
func (c *SidecarEncoder) BatchEncode(ctx context.Context, texts []string) ([][]float32, error) {
	if ctx == nil {
		return nil, ErrInvalidInput
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts is empty", ErrInvalidInput)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", ErrEncodingFailure, err)
		}
	}

	// Build request
	reqBody := embedRequest{Texts: texts}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/batch_embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", ErrEncodingFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: embedding service returned status %d: %s", ErrEncodingFailure, resp.StatusCode, string(body))
	}

	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrEncodingFailure, err)
	}

	if len(embResp.Vectors) != len(texts) {
		return nil, fmt.Errorf("%w: embedding service returned %d vectors for %d texts", ErrEncodingFailure, len(embResp.Vectors), len(texts))
	}

	return embResp.Vectors, nil
}

// Health checks if the embeddings service is available and its model is
// loaded.
func (c *SidecarEncoder) Health(ctx context.Context) error {
	if ctx == nil {
		return ErrInvalidInput
	}

	url := c.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("embedding service unhealthy: status %d: %s", resp.StatusCode, string(body))
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}

	if health.Status != "ok" {
		return fmt.Errorf("embedding service not ready: %s", health.Status)
	}

	return nil
}

// BaseURL returns the configured base URL.
func (c *SidecarEncoder) BaseURL() string {
	return c.baseURL
}
