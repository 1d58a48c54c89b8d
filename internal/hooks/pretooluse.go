// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aleutian/memsearch/internal/assembler"
	"github.com/aleutian/memsearch/internal/docsclient"
	"github.com/aleutian/memsearch/internal/resourcemonitor"
)

// injectableTools is the §4.5 step 1 "typically writes/edits and a few
// others" list: tools whose inputs are worth assembling context for.
var injectableTools = map[toolKind]bool{
	toolKindFileWrite: true,
	toolKindFileRead:  true,
}

// docsShareOfBudget is the fraction of ContextMaxTokens held back from
// memory search: the memory assembly is capped at the remaining
// (1 - docsShareOfBudget) share, and the docs snippets come first in the
// output (§4.5 step 3: "docs first if present, then memory"). The docs
// snippets themselves are not measured or truncated against this share,
// so the combined output can exceed ContextMaxTokens. Not named as a
// fraction by the spec text; recorded here as this module's open choice.
const docsShareOfBudget = 0.3

// PreToolUse runs the §4.5 inject workflow. It never returns a non-zero
// exit: "On any failure, emit nothing and exit 0" applies uniformly, so
// the return value is always the emitted output (possibly empty) alongside
// ExitSuccess.
func PreToolUse(ctx context.Context, rt Runtime, ev Event) (string, ExitCode) {
	if !injectableTools[classifyTool(ev.ToolName)] {
		return "", ExitSuccess
	}

	if rt.Resources != nil {
		if reading, err := rt.Resources.Check(ctx); err == nil && reading.Status == resourcemonitor.StatusCritical {
			rt.Logger.Warn("pre-tool-use: skipping injection, host resources critical")
			return "", ExitSuccess
		}
	}

	in := decodeToolPayload(ev.ToolInput)
	queryText := in.writtenContent()
	if queryText == "" {
		queryText = in.filePath()
	}
	if queryText == "" {
		return "", ExitSuccess
	}

	var (
		docsText string
		memText  string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if rt.Docs == nil {
			return nil
		}
		libs := detectLibraries(queryText)
		if len(libs) == 0 {
			return nil
		}
		snippets, err := rt.Docs.Lookup(gctx, libs, 3)
		if err != nil {
			rt.Logger.Warn("pre-tool-use: docs lookup failed", slog.String("error", err.Error()))
			return nil
		}
		docsText = formatSnippets(snippets)
		return nil
	})

	g.Go(func() error {
		if rt.Assembler == nil {
			return nil
		}
		memBudget := int(float64(rt.Config.ContextMaxTokens) * (1 - docsShareOfBudget))
		assembled, err := rt.Assembler.Assemble(gctx, queryText, memBudget, assembler.StrategyRelevance, rt.Config.ContextRelevanceThreshold)
		if err != nil {
			rt.Logger.Warn("pre-tool-use: memory search failed", slog.String("error", err.Error()))
			return nil
		}
		memText = assembled.Text
		return nil
	})

	_ = g.Wait() // every branch swallows its own error; Wait only joins goroutines

	combined := combineContext(docsText, memText)
	return combined, ExitSuccess
}

func combineContext(docsText, memText string) string {
	var parts []string
	if docsText != "" {
		parts = append(parts, docsText)
	}
	if memText != "" {
		parts = append(parts, memText)
	}
	return strings.Join(parts, "\n---\n")
}

func formatSnippets(snippets []docsclient.Snippet) string {
	if len(snippets) == 0 {
		return ""
	}
	var b strings.Builder
	for i, s := range snippets {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "[docs %s]\n%s", s.Library, s.Content)
	}
	return b.String()
}
