// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package embedclient

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aleutian/memsearch/internal/memory"
)

// stubRemote is a deterministic, in-test-process Remote. calls counts every
// invocation so tests can assert on cache-hit behavior without a network
// round trip.
type stubRemote struct {
	calls   atomic.Int64
	delay   time.Duration
	err     error
	vecFunc func(text string) memory.Vector
}

func (s *stubRemote) Embed(ctx context.Context, text string) (memory.Vector, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.vecFunc != nil {
		return s.vecFunc(text), nil
	}
	return memory.Vector{0.1, 0.2, 0.3}, nil
}

func newTestClient(t *testing.T, remote Remote) *Client {
	t.Helper()
	c, err := New(remote, Options{CacheSize: 1000, RateLimit: 1000})
	require.NoError(t, err)
	return c
}

func TestEmbed_CacheHitAfterMiss(t *testing.T) {
	remote := &stubRemote{delay: 10 * time.Millisecond}
	c := newTestClient(t, remote)

	v1, err := c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Equal(t, memory.Vector{0.1, 0.2, 0.3}, v1)

	v2, err := c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Equal(t, v1, v2)

	require.Equal(t, int64(1), remote.calls.Load())

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
}

func TestEmbed_DistinctTextsDistinctVectors(t *testing.T) {
	remote := &stubRemote{
		vecFunc: func(text string) memory.Vector {
			return memory.Vector{float32(len(text))}
		},
	}
	c := newTestClient(t, remote)

	a, err := c.Embed(context.Background(), "short")
	require.NoError(t, err)
	b, err := c.Embed(context.Background(), "a bit longer")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.Equal(t, int64(2), remote.calls.Load())
}

func TestEmbed_UnavailableIsNotFatal(t *testing.T) {
	remote := &stubRemote{err: Unavailable("stub", errors.New("connection refused"))}
	c, err := New(remote, Options{CacheSize: 10, RateLimit: 1000, MaxAttempts: 1})
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "anything")
	require.Error(t, err)
	require.True(t, IsUnavailable(err))
}

func TestEmbed_RejectedDoesNotRetry(t *testing.T) {
	remote := &stubRemote{err: Rejected("stub", errors.New("bad input"))}
	c, err := New(remote, Options{CacheSize: 10, RateLimit: 1000, MaxAttempts: 5})
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "anything")
	require.Error(t, err)
	require.True(t, memory.IsKind(err, memory.KindPermanentDependency))
	require.Equal(t, int64(1), remote.calls.Load())
}

func TestEmbed_RateLimitDenialIsUnavailable(t *testing.T) {
	remote := &stubRemote{}
	c, err := New(remote, Options{CacheSize: 10, RateLimit: 0.0001})
	require.NoError(t, err)

	// Burst of 1 at a near-zero refill rate: first call consumes the only
	// token (and may embed), the second must be denied by the limiter.
	_, _ = c.Embed(context.Background(), "first")
	_, err = c.Embed(context.Background(), "second")
	require.Error(t, err)
	require.True(t, IsUnavailable(err))
}

func TestClient_ClearDropsEntriesAndResetsStats(t *testing.T) {
	remote := &stubRemote{}
	c := newTestClient(t, remote)

	_, err := c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Clear()

	require.Equal(t, 0, c.Len())
	require.Equal(t, CacheStats{}, c.Stats())

	_, err = c.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Equal(t, int64(2), remote.calls.Load(), "cleared cache should force a re-embed")
}

func TestContentHash_Deterministic(t *testing.T) {
	require.Equal(t, ContentHash("same text"), ContentHash("same text"))
	require.NotEqual(t, ContentHash("a"), ContentHash("b"))
}

func TestNew_RejectsNilRemote(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)
}
