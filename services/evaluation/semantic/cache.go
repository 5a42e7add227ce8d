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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/doceval/services/evaluation/storage/badger"
)

// CachedEncoder wraps an Encoder with a BadgerDB vector cache.
//
// Re-running an evaluation re-encodes the same reference texts every
// time; with a hosted backend that is paid latency. The cache keys on a
// SHA-256 of the input text, namespaced per model, so switching models
// never serves stale vectors.
//
// The cache is strictly best-effort: a read or write failure degrades to
// the inner encoder with a warning, never to a scoring failure.
//
// Thread Safety: Safe for concurrent use.
type CachedEncoder struct {
	inner     Encoder
	db        *badger.DB
	namespace string
	ttl       time.Duration
	logger    *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Encoder = (*CachedEncoder)(nil)

// NewCachedEncoder creates a caching decorator around inner.
//
// The namespace must identify the backend and model (for example
// "sidecar/all-MiniLM-L6-v2") so vectors from different models never
// share keys.
func NewCachedEncoder(inner Encoder, db *badger.DB, namespace string) *CachedEncoder {
	return &CachedEncoder{
		inner:     inner,
		db:        db,
		namespace: namespace,
		logger:    slog.Default(),
	}
}

// WithTTL expires cached vectors after d. Zero means no expiry.
func (c *CachedEncoder) WithTTL(d time.Duration) *CachedEncoder {
	c.ttl = d
	return c
}

// WithLogger sets the logger for cache degradation warnings.
func (c *CachedEncoder) WithLogger(logger *slog.Logger) *CachedEncoder {
	c.logger = logger
	return c
}

// Encode returns the cached vector for text, encoding and storing it on a
// miss.
func (c *CachedEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if ctx == nil {
		return nil, ErrInvalidInput
	}

	key := c.cacheKey(text)

	if vector, ok := c.lookup(ctx, key); ok {
		c.hits.Add(1)
		return vector, nil
	}
	c.misses.Add(1)

	vector, err := c.inner.Encode(ctx, text)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, vector)
	return vector, nil
}

// Stats returns the hit and miss counts since creation.
func (c *CachedEncoder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Health reports the inner encoder's health when it exposes a check.
// The cache itself has no remote dependency to probe.
func (c *CachedEncoder) Health(ctx context.Context) error {
	if hc, ok := c.inner.(interface{ Health(context.Context) error }); ok {
		return hc.Health(ctx)
	}
	return nil
}

func (c *CachedEncoder) cacheKey(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return []byte(fmt.Sprintf("emb:%s:%s", c.namespace, hex.EncodeToString(sum[:])))
}

func (c *CachedEncoder) lookup(ctx context.Context, key []byte) ([]float32, bool) {
	var vector []float32
	found := false

	err := c.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &vector); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		c.logger.Warn("embedding cache read failed, falling back to encoder",
			slog.String("error", err.Error()))
		return nil, false
	}

	return vector, found
}

func (c *CachedEncoder) store(ctx context.Context, key []byte, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		c.logger.Warn("embedding cache marshal failed", slog.String("error", err.Error()))
		return
	}

	err = c.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry(key, data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.logger.Warn("embedding cache write failed", slog.String("error", err.Error()))
	}
}
