// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package embedclient turns text into a fixed-dimension vector and amortizes
// the cost of a slow external embedder (§4.1) over repeated requests for
// identical bytes.
//
// Grounded on the teacher's ToolEmbeddingCache (warm/score/degrade shape,
// RWMutex-guarded map) and BadgerRouterCacheStore (persistent tier, corpus
// hash as key, native BadgerDB TTL), generalized from a startup-warmed,
// fixed-corpus cache to an on-demand, unbounded-corpus one: every distinct
// piece of content gets embedded and cached, not just a fixed tool registry.
package embedclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/aleutian/memsearch/internal/memory"
	"github.com/aleutian/memsearch/internal/telemetry"
)

// DefaultTimeout bounds a single embed call, retries included (§4.1:
// "default <= 15s").
const DefaultTimeout = 15 * time.Second

// DefaultMaxAttempts bounds the retry policy (§4.1: "default 3").
const DefaultMaxAttempts = 3

// DefaultRateLimit is the sustained request budget to the remote embedder
// (§4.1: "default 5 requests/second").
const DefaultRateLimit = 5.0

// Remote is the transport to an external embedding service. Implementations
// translate text into a provider-specific request; Client supplies caching,
// dedup, rate limiting, and retry around whatever Remote does.
type Remote interface {
	Embed(ctx context.Context, text string) (memory.Vector, error)
}

// Options configures a Client. Zero values fall back to the package
// defaults, matching the teacher's environment-or-default pattern.
type Options struct {
	CacheSize   int
	Persistent  *PersistentStore // nil disables the on-disk tier
	Timeout     time.Duration
	MaxAttempts int
	RateLimit   float64 // sustained requests/second; <= 0 uses DefaultRateLimit
	Logger      *slog.Logger
}

// Client is the bounded, cached, rate-limited embedding client of §4.1.
//
// # Thread Safety
//
// Safe for concurrent use. The hot cache is guarded internally; the
// singleflight group deduplicates concurrent misses for the same content
// hash so the remote embedder is called at most once per distinct text in
// flight at any moment.
type Client struct {
	remote      Remote
	hot         *hotCache
	persistent  *PersistentStore
	group       singleflight.Group
	limiter     *rate.Limiter
	timeout     time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// New constructs a Client around remote. remote must not be nil.
func New(remote Remote, opts Options) (*Client, error) {
	if remote == nil {
		return nil, Internal("embedclient.new", errors.New("remote embedder must not be nil"))
	}

	hot, err := newHotCache(opts.CacheSize)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	rps := opts.RateLimit
	if rps <= 0 {
		rps = DefaultRateLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		remote:      remote,
		hot:         hot,
		persistent:  opts.Persistent,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		timeout:     timeout,
		maxAttempts: maxAttempts,
		logger:      logger,
	}, nil
}

// ContentHash computes the cache key of §4.1: lowercase hex SHA-256 over the
// exact bytes that will be sent to the embedder.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Embed returns the dense vector for text, consulting the hot cache, then
// the persistent cache, then the remote embedder in that order.
//
// Failure semantics (§4.1, §7): an Unavailable error (rate-limited or the
// remote embedder unreachable/timing out) is never fatal at the system
// level — callers must proceed without an embedding. A Rejected error means
// retrying will not help; Internal means a local defect (encode/decode).
func (c *Client) Embed(ctx context.Context, text string) (memory.Vector, error) {
	ctx, span := telemetry.StartSpan(ctx, "embedclient.embed")
	defer span.End()

	hash := ContentHash(text)

	if v, ok := c.hot.get(hash); ok {
		return v, nil
	}

	result, err, _ := c.group.Do(hash, func() (any, error) {
		// Re-check without counting: the miss was already recorded above.
		if v, ok := c.hot.lru.Get(hash); ok {
			return v, nil
		}

		if v, ok, perr := c.persistent.Load(ctx, hash); perr == nil && ok {
			c.hot.put(hash, v)
			return v, nil
		}

		if !c.limiter.Allow() {
			return nil, Unavailable("embedclient.embed", errors.New("rate limit exceeded"))
		}

		v, err := c.embedWithRetry(ctx, text)
		if err != nil {
			return nil, err
		}

		c.hot.put(hash, v)
		if serr := c.persistent.Save(ctx, hash, v); serr != nil {
			c.logger.Warn("embedclient: failed to persist vector",
				slog.String("error", serr.Error()),
			)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(memory.Vector), nil
}

// embedWithRetry calls the remote embedder under the configured timeout,
// retrying transient failures with exponential backoff and jitter, bounded
// by maxAttempts (§4.1). A Rejected (permanent) failure aborts immediately.
func (c *Client) embedWithRetry(ctx context.Context, text string) (memory.Vector, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	op := func() (memory.Vector, error) {
		v, err := c.remote.Embed(callCtx, text)
		if err != nil {
			if memory.IsKind(err, memory.KindPermanentDependency) {
				return nil, backoff.Permanent(err)
			}
			return nil, fmt.Errorf("%w", err)
		}
		return v, nil
	}

	v, err := backoff.Retry(callCtx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.maxAttempts)),
	)
	if err != nil {
		var perr *memory.Error
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, Unavailable("embedclient.embed_with_retry", err)
	}
	return v, nil
}

// Stats returns a snapshot of the hot-tier cache counters (§9 test "Cache
// hit after miss": stats().hits / stats().misses).
func (c *Client) Stats() CacheStats {
	return c.hot.snapshot()
}

// Len reports the number of entries currently held in the hot tier.
func (c *Client) Len() int {
	return c.hot.len()
}

// Clear drops every entry from the hot tier and resets its hit/miss/eviction
// counters to zero (§4.1's public contract: "embed, stats, clear"). The
// persistent tier, if configured, is untouched — clear targets only the
// in-process LRU, the same scope as the teacher's cache-invalidation
// commands.
func (c *Client) Clear() {
	c.hot.clear()
}
