// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search fuses dense (vector) and sparse (lexical) evidence into a
// single ranked list via Reciprocal Rank Fusion (§4.3), with deterministic
// tie-breaking and graceful degradation when either branch is unavailable.
package search

import (
	"math"
	"sort"

	"github.com/aleutian/memsearch/internal/memory"
)

// DefaultSmoothing is the RRF constant C (§4.3 default 60).
const DefaultSmoothing = 60.0

// DefaultVectorWeight and DefaultLexicalWeight are w_v and w_l (§4.3
// defaults 1.0 and 0.7).
const (
	DefaultVectorWeight  = 1.0
	DefaultLexicalWeight = 0.7
)

// Weights configures the RRF fusion formula.
type Weights struct {
	Vector    float64
	Lexical   float64
	Smoothing float64
}

// DefaultWeights returns the §4.3 default configuration.
func DefaultWeights() Weights {
	return Weights{Vector: DefaultVectorWeight, Lexical: DefaultLexicalWeight, Smoothing: DefaultSmoothing}
}

// Candidate carries the per-entry metadata the tie-break rule needs beyond
// rank: CreatedAt (newer wins) and ID (lexicographically smaller wins).
type Candidate struct {
	ID        string
	CreatedAt int64 // unix nanoseconds; avoids importing time into the hot comparator
}

// Scored is one fused result.
type Scored struct {
	ID    string
	Score float64
}

// Fuse combines vector and lexical rankings into a single deterministic
// ordering (§4.3 steps 2-3).
//
// vectorRanked and lexicalRanked are each already sorted best-first (rank 1
// = index 0) by their respective search. meta supplies CreatedAt for every
// id appearing in either list; an id missing from meta is treated as
// CreatedAt=0, which only affects tie-breaking, never inclusion.
func Fuse(vectorRanked, lexicalRanked []string, meta map[string]Candidate, w Weights) []Scored {
	vectorRank := rankIndex(vectorRanked)
	lexicalRank := rankIndex(lexicalRanked)

	ids := make(map[string]struct{}, len(vectorRank)+len(lexicalRank))
	for id := range vectorRank {
		ids[id] = struct{}{}
	}
	for id := range lexicalRank {
		ids[id] = struct{}{}
	}

	results := make([]Scored, 0, len(ids))
	for id := range ids {
		rv, hasV := vectorRank[id]
		rl, hasL := lexicalRank[id]

		var score float64
		if hasV {
			score += w.Vector / (w.Smoothing + float64(rv))
		}
		if hasL {
			score += w.Lexical / (w.Smoothing + float64(rl))
		}
		results = append(results, Scored{ID: id, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return less(results[i], results[j], vectorRank, lexicalRank, meta)
	})

	return results
}

// less implements the §4.3 step-3 deterministic ordering: score desc, then
// rank_v asc, then rank_l asc, then created_at desc, then id asc.
func less(a, b Scored, vectorRank, lexicalRank map[string]int, meta map[string]Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}

	ra, rb := rankOrInf(a.ID, vectorRank), rankOrInf(b.ID, vectorRank)
	if ra != rb {
		return ra < rb
	}

	la, lb := rankOrInf(a.ID, lexicalRank), rankOrInf(b.ID, lexicalRank)
	if la != lb {
		return la < lb
	}

	ca, cb := meta[a.ID].CreatedAt, meta[b.ID].CreatedAt
	if ca != cb {
		return ca > cb
	}

	return a.ID < b.ID
}

func rankOrInf(id string, rank map[string]int) float64 {
	if r, ok := rank[id]; ok {
		return float64(r)
	}
	return math.Inf(1)
}

// rankIndex converts a best-first-ordered id slice into a 1-indexed rank map.
func rankIndex(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i + 1
	}
	return m
}
