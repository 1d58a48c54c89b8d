// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assembler

import (
	"sort"

	"github.com/aleutian/memsearch/internal/search"
)

// Strategy is the single recognized enumeration of §4.4 candidate orderings.
type Strategy string

const (
	StrategyRelevance Strategy = "relevance"
	StrategyRecency   Strategy = "recency"
	StrategyDiverse   Strategy = "diverse"
)

// DefaultDiversePerType caps entries per content_type under the diverse
// strategy (§4.4). Not named by the spec text as a number, so it is
// recorded here as the one open choice this module makes.
const DefaultDiversePerType = 3

// order re-sequences candidates per the chosen strategy ahead of the
// greedy pack (§4.4 "Strategies"). relevance is a no-op: candidates already
// arrive in hybrid-search rank order.
func order(strategy Strategy, candidates []search.Result) []search.Result {
	switch strategy {
	case StrategyRecency:
		out := make([]search.Result, len(candidates))
		copy(out, candidates)
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Entry.CreatedAt.After(out[j].Entry.CreatedAt)
		})
		return out
	default:
		return candidates
	}
}

// diverseCap reports whether including candidate would exceed
// DefaultDiversePerType for its content_type, given counts already packed.
func diverseCap(strategy Strategy, contentType string, counts map[string]int) bool {
	if strategy != StrategyDiverse {
		return false
	}
	return counts[contentType] >= DefaultDiversePerType
}
