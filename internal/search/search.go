// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aleutian/memsearch/internal/embedclient"
	"github.com/aleutian/memsearch/internal/memory"
	"github.com/aleutian/memsearch/internal/storage"
	"github.com/aleutian/memsearch/internal/telemetry"
)

// Result is one hybrid-search hit, ready for the context assembler.
type Result struct {
	Entry memory.Entry
	Score float64
}

// Response is the full outcome of Engine.Search, including the §4.3
// degradation flag the assembler and hooks must propagate.
type Response struct {
	Results  []Result
	Degraded bool // true when embed(query) was unavailable and ranking fell back to pure lexical
}

// Engine runs hybrid search over a Store, fusing vector and lexical
// evidence via RRF. Grounded on the teacher's errgroup-based parallel
// fan-out (ToolEmbeddingCache.Warm) generalized from an N-way bounded
// semaphore to a fixed two-way fan-out (vector branch, lexical branch).
type Engine struct {
	store    *storage.Store
	embedder *embedclient.Client
	weights  Weights
	logger   *slog.Logger
}

// New constructs an Engine. embedder may be nil, in which case every search
// is lexical-only and always reports Degraded=true — this models a
// deployment that has disabled the embedding cache entirely (§6
// *_EMBEDDING_CACHE_ENABLED=false), not just a transient outage.
func New(store *storage.Store, embedder *embedclient.Client, weights Weights, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, embedder: embedder, weights: weights, logger: logger}
}

// Options configures a single Search call.
type Options struct {
	// K is the final result count after fusion and truncation.
	K int
	// FanoutMultiplier scales K into K_v/K_l (§4.3: "typically 2-5x").
	// <= 0 uses 3.
	FanoutMultiplier int
	Filter           storage.Filter
	// RelevanceThreshold drops fused results scoring below it, applied
	// after truncation (§4.3 "Relevance threshold").
	RelevanceThreshold float64
}

// Search runs the §4.3 algorithm: parallel vector_search and lexical_search,
// RRF fusion, deterministic tie-break, truncation, then threshold.
func (e *Engine) Search(ctx context.Context, queryText string, opts Options) (Response, error) {
	ctx, span := telemetry.StartSpan(ctx, "search.hybrid_search")
	defer span.End()

	start := time.Now()
	resp, err := e.search(ctx, queryText, opts)
	telemetry.SearchLatency.Observe(time.Since(start).Seconds())
	if resp.Degraded {
		telemetry.SearchDegradedTotal.Inc()
	}
	return resp, err
}

func (e *Engine) search(ctx context.Context, queryText string, opts Options) (Response, error) {
	k := opts.K
	if k <= 0 {
		k = 10
	}
	fanout := opts.FanoutMultiplier
	if fanout <= 0 {
		fanout = 3
	}
	branchLimit := k * fanout

	var (
		vectorRanked  []storage.Ranked
		lexicalRanked []storage.Ranked
		degraded      bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		vec, err := e.queryVector(gctx, queryText)
		if err != nil {
			if embedclient.IsUnavailable(err) {
				degraded = true
				return nil
			}
			return err
		}
		if vec == nil {
			degraded = true
			return nil
		}
		ranked, err := e.store.VectorSearch(gctx, vec, branchLimit, opts.Filter)
		if err != nil {
			// §4.3: "If lexical search fails... fall back to pure vector."
			// Symmetrically, a vector-branch storage failure degrades to
			// lexical-only rather than failing the whole search.
			e.logger.Warn("search: vector branch failed, degrading to lexical-only", slog.String("error", err.Error()))
			degraded = true
			return nil
		}
		vectorRanked = ranked
		return nil
	})

	g.Go(func() error {
		ranked, err := e.store.LexicalSearch(gctx, queryText, branchLimit, opts.Filter)
		if err != nil {
			e.logger.Warn("search: lexical branch failed", slog.String("error", err.Error()))
			lexicalRanked = nil
			return nil
		}
		lexicalRanked = ranked
		return nil
	})

	if err := g.Wait(); err != nil {
		return Response{}, err
	}

	if len(vectorRanked) == 0 && len(lexicalRanked) == 0 {
		return Response{Degraded: degraded}, nil
	}

	vectorIDs := idsOf(vectorRanked)
	lexicalIDs := idsOf(lexicalRanked)

	meta := make(map[string]Candidate, len(vectorIDs)+len(lexicalIDs))
	entries := make(map[string]memory.Entry, len(vectorIDs)+len(lexicalIDs))
	for _, id := range append(append([]string{}, vectorIDs...), lexicalIDs...) {
		if _, ok := entries[id]; ok {
			continue
		}
		entry, err := e.store.Get(ctx, id)
		if err != nil {
			continue // a row vanished between search and fetch; skip rather than fail the whole query
		}
		entries[id] = entry
		meta[id] = Candidate{ID: id, CreatedAt: entry.CreatedAt.UnixNano()}
	}

	fused := Fuse(vectorIDs, lexicalIDs, meta, e.weights)
	if len(fused) > k {
		fused = fused[:k]
	}

	out := make([]Result, 0, len(fused))
	for _, f := range fused {
		if f.Score < opts.RelevanceThreshold {
			continue
		}
		entry, ok := entries[f.ID]
		if !ok {
			continue
		}
		out = append(out, Result{Entry: entry, Score: f.Score})
	}

	return Response{Results: out, Degraded: degraded}, nil
}

func (e *Engine) queryVector(ctx context.Context, queryText string) (memory.Vector, error) {
	if e.embedder == nil {
		return nil, nil
	}
	return e.embedder.Embed(ctx, queryText)
}

func idsOf(ranked []storage.Ranked) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	return ids
}
