// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assembler packs hybrid-search results into a single text block
// under a strict token budget (§4.4). Assembly is CPU-bound and stateless
// across calls — there is no shared mutable state to guard.
package assembler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aleutian/memsearch/internal/memory"
	"github.com/aleutian/memsearch/internal/search"
)

// entryDelimiter separates formatted entries in the assembled block (§4.4
// step 5: "a stable delimiter").
const entryDelimiter = "\n---\n"

// defaultCandidatePool is the absolute number of candidates the assembler
// asks search for (§4.4 step 1: "10-20").
const defaultCandidatePool = 15

// AssembledContext is the public result of Assemble (§4.4).
type AssembledContext struct {
	Text             string
	IncludedEntryIDs []string
	EstimatedTokens  int
	Sources          []string // content_type values actually present in Text
}

// Searcher is the subset of search.Engine that Assemble depends on,
// narrowed to ease testing with a stub.
type Searcher interface {
	Search(ctx context.Context, queryText string, opts search.Options) (search.Response, error)
}

// Assembler builds AssembledContext blocks from hybrid search results.
type Assembler struct {
	engine    Searcher
	estimator TokenEstimator
}

// New constructs an Assembler. A nil estimator falls back to CharsPerToken.
func New(engine Searcher, estimator TokenEstimator) *Assembler {
	if estimator == nil {
		estimator = CharsPerToken
	}
	return &Assembler{engine: engine, estimator: estimator}
}

// Assemble runs the §4.4 algorithm: candidate pool, relevance threshold,
// strategy ordering, then a greedy token-budget pack.
func (a *Assembler) Assemble(ctx context.Context, query string, budgetTokens int, strategy Strategy, threshold float64) (AssembledContext, error) {
	resp, err := a.engine.Search(ctx, query, search.Options{
		K:                  defaultCandidatePool,
		RelevanceThreshold: threshold,
	})
	if err != nil {
		return AssembledContext{}, err
	}

	candidates := order(strategy, resp.Results)

	var (
		parts       []string
		includedIDs []string
		total       int
		sourcesSeen = map[string]struct{}{}
		typeCounts  = map[string]int{}
	)

	for _, c := range candidates {
		contentType := string(c.Entry.ContentType)
		if diverseCap(strategy, contentType, typeCounts) {
			continue
		}

		formatted := formatEntry(c.Entry)
		cost := a.estimator(formatted)

		if total+cost > budgetTokens {
			if len(includedIDs) == 0 {
				// §4.4 step 4: "unless no entry has yet fit, in which case
				// one entry is included after truncating its content to fit."
				truncated := memory.Entry{
					ID:          c.Entry.ID,
					Content:     TruncateToTokens(c.Entry.Content, budgetTokens, wrapHeaderAware(a.estimator, c.Entry)),
					ContentType: c.Entry.ContentType,
					SourceTool:  c.Entry.SourceTool,
					FilePath:    c.Entry.FilePath,
				}
				formattedTruncated := formatEntry(truncated)
				truncCost := a.estimator(formattedTruncated)
				if truncCost <= budgetTokens && truncated.Content != "" {
					parts = append(parts, formattedTruncated)
					includedIDs = append(includedIDs, truncated.ID)
					total += truncCost
					sourcesSeen[contentType] = struct{}{}
					typeCounts[contentType]++
				}
			}
			continue
		}

		parts = append(parts, formatted)
		includedIDs = append(includedIDs, c.Entry.ID)
		total += cost
		sourcesSeen[contentType] = struct{}{}
		typeCounts[contentType]++
	}

	sources := make([]string, 0, len(sourcesSeen))
	for s := range sourcesSeen {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	return AssembledContext{
		Text:             strings.Join(parts, entryDelimiter),
		IncludedEntryIDs: includedIDs,
		EstimatedTokens:  total,
		Sources:          sources,
	}, nil
}

// wrapHeaderAware estimates the cost of content as if it were wrapped in
// entry's header, so the truncation loop converges against the same budget
// the caller will ultimately check.
func wrapHeaderAware(estimate TokenEstimator, entry memory.Entry) TokenEstimator {
	return func(content string) int {
		e := entry
		e.Content = content
		return estimate(formatEntry(e))
	}
}

// formatEntry renders a single entry with its §4.4 step-5 header.
func formatEntry(e memory.Entry) string {
	var header strings.Builder
	header.WriteString(fmt.Sprintf("[%s", e.ContentType))
	if e.SourceTool != "" {
		header.WriteString(fmt.Sprintf(" via %s", e.SourceTool))
	}
	if e.FilePath != "" {
		header.WriteString(fmt.Sprintf(" %s", e.FilePath))
	}
	header.WriteString("]")
	return header.String() + "\n" + e.Content
}
