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
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aleutian/memsearch/internal/memory"
	"github.com/aleutian/memsearch/internal/telemetry"
)

// DefaultCacheSize is the hard cap on hot-tier entries absent an explicit
// override (§6 *_EMBEDDING_CACHE_SIZE).
const DefaultCacheSize = 1000

// cacheStats are the lock-free hit/miss/eviction counters exposed via
// Stats(). Modeled on the claude-mnemonic CacheStats/Snapshot split: atomics
// internally, a plain value type for callers.
type cacheStats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// CacheStats is a point-in-time snapshot of hot-tier cache performance.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns the fraction of lookups satisfied from the hot tier, in
// [0, 1]. Returns 0 when no lookups have occurred.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// hotCache is the in-memory, per-process LRU tier (§4.1, §5.4: "per-process,
// not shared"). Every entry is keyed by the SHA-256 content hash computed by
// the caller — this package never re-derives it.
type hotCache struct {
	lru   *lru.Cache[string, memory.Vector]
	stats cacheStats
}

// newHotCache builds a bounded LRU cache. size <= 0 falls back to
// DefaultCacheSize rather than rejecting the caller, matching the teacher's
// pattern of defaulting absent-or-zero config rather than erroring.
func newHotCache(size int) (*hotCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &hotCache{}
	evictCb := func(_ string, _ memory.Vector) {
		c.stats.evictions.Add(1)
		telemetry.EmbedCacheHitTotal.WithLabelValues("evicted").Inc()
	}
	l, err := lru.NewWithEvict[string, memory.Vector](size, evictCb)
	if err != nil {
		return nil, Internal("embedclient.new_hot_cache", err)
	}
	c.lru = l
	return c, nil
}

// get returns the cached vector for key, recording a hit or miss.
func (c *hotCache) get(key string) (memory.Vector, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.stats.hits.Add(1)
		telemetry.EmbedCacheHitTotal.WithLabelValues("hit").Inc()
	} else {
		c.stats.misses.Add(1)
		telemetry.EmbedCacheHitTotal.WithLabelValues("miss").Inc()
	}
	return v, ok
}

// put inserts or refreshes a vector for key, promoting it to most-recently-used.
func (c *hotCache) put(key string, v memory.Vector) {
	c.lru.Add(key, v)
}

// snapshot returns the current counters without resetting them.
func (c *hotCache) snapshot() CacheStats {
	return CacheStats{
		Hits:      c.stats.hits.Load(),
		Misses:    c.stats.misses.Load(),
		Evictions: c.stats.evictions.Load(),
	}
}

// len reports the current number of cached entries.
func (c *hotCache) len() int {
	return c.lru.Len()
}

// clear drops every cached vector and zeroes the hit/miss/eviction counters
// (§4.1's public contract: "embed, stats, clear" — "drops all entries and
// resets counters"). Purge fires the eviction callback for each entry, so
// the counters are reset after purging rather than before, or the eviction
// count would immediately go non-zero again.
func (c *hotCache) clear() {
	c.lru.Purge()
	c.stats.hits.Store(0)
	c.stats.misses.Store(0)
	c.stats.evictions.Store(0)
}
