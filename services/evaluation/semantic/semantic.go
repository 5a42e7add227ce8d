// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package semantic scores meaning-level similarity between reference and
// candidate documentation.
//
// Texts are encoded into dense vectors by an Encoder backend and compared
// with cosine similarity. The default backend is the embeddings sidecar
// (SidecarEncoder), which runs sentence-transformer models locally; an
// OpenAI-backed encoder and a Badger-backed caching decorator are
// available for hosted and repeated runs.
//
// Similarity is the only metric in the evaluation service whose value
// depends on model weights rather than on the text alone. Given a fixed
// backend and fixed inputs it is deterministic.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput indicates a nil context or malformed argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEncodingFailure indicates the backend could not produce a vector.
	ErrEncodingFailure = errors.New("encoding failure")
)

// Encoder converts text into a dense embedding vector.
//
// Implementations must accept empty text: normalization can reduce a
// candidate docstring to an empty string, and such entries are still
// scored. Errors wrap ErrEncodingFailure so callers can detect encoding
// problems without knowing the backend.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Scorer computes semantic similarity through a fixed Encoder.
type Scorer struct {
	enc Encoder
}

// NewScorer creates a Scorer backed by the given encoder.
func NewScorer(enc Encoder) *Scorer {
	return &Scorer{enc: enc}
}

// Score encodes both texts and returns their cosine similarity.
//
// The reference is encoded first; an encoding failure on either side
// aborts the pair. The result is a raw cosine in [-1, 1], not clamped.
func (s *Scorer) Score(ctx context.Context, reference, candidate string) (float64, error) {
	refVec, err := s.enc.Encode(ctx, reference)
	if err != nil {
		return 0, fmt.Errorf("encode reference: %w", err)
	}

	candVec, err := s.enc.Encode(ctx, candidate)
	if err != nil {
		return 0, fmt.Errorf("encode candidate: %w", err)
	}

	return CosineSimilarity(refVec, candVec), nil
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// between -1 (opposite) and 1 (identical). Mismatched lengths, empty
// vectors, and zero vectors all score 0.0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
