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
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEncoder produces embeddings through the OpenAI embeddings API.
// It is the hosted alternative to the local sidecar for environments
// without a GPU. Scores are comparable within one backend only; do not
// mix backends inside a single report.
type OpenAIEncoder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

var _ Encoder = (*OpenAIEncoder)(nil)

// NewOpenAIEncoder creates an encoder from the environment.
//
// The API key comes from OPENAI_API_KEY or, failing that, the Podman
// secret at /run/secrets/openai_api_key. The model comes from
// OPENAI_EMBEDDING_MODEL and defaults to text-embedding-3-small.
func NewOpenAIEncoder() (*OpenAIEncoder, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_EMBEDDING_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the OpenAI API Key from Podman Secrets")
		} else {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
		slog.Warn("OPENAI_EMBEDDING_MODEL not set, defaulting to text-embedding-3-small")
	}
	slog.Info("Initializing OpenAI embedding client", "model", model)
	return &OpenAIEncoder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
	}, nil
}

// Model returns the embedding model name, used for cache namespacing.
func (o *OpenAIEncoder) Model() string {
	return string(o.model)
}

// Encode implements the Encoder interface.
func (o *OpenAIEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: o.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai embeddings: %v", ErrEncodingFailure, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: openai returned no embeddings", ErrEncodingFailure)
	}
	return resp.Data[0].Embedding, nil
}
