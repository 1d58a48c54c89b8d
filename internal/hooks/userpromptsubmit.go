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
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aleutian/memsearch/internal/assembler"
)

// UserPromptSubmit runs the §4.5 "enhance prompt with relevant memory /
// docs" workflow: the same parallel docs+memory shape as PreToolUse, keyed
// by the submitted prompt text instead of a tool's inputs. Like
// PreToolUse, failure degrades to an empty block rather than a non-zero
// exit — enhancement is always optional.
func UserPromptSubmit(ctx context.Context, rt Runtime, ev Event) (string, ExitCode) {
	if ev.UserPrompt == "" {
		return "", ExitSuccess
	}

	var docsText, memText string
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if rt.Docs == nil {
			return nil
		}
		libs := detectLibraries(ev.UserPrompt)
		if len(libs) == 0 {
			return nil
		}
		snippets, err := rt.Docs.Lookup(gctx, libs, 3)
		if err != nil {
			rt.Logger.Warn("user-prompt-submit: docs lookup failed", slog.String("error", err.Error()))
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
		assembled, err := rt.Assembler.Assemble(gctx, ev.UserPrompt, memBudget, assembler.StrategyRelevance, rt.Config.ContextRelevanceThreshold)
		if err != nil {
			rt.Logger.Warn("user-prompt-submit: memory search failed", slog.String("error", err.Error()))
			return nil
		}
		memText = assembled.Text
		return nil
	})

	_ = g.Wait()

	return combineContext(docsText, memText), ExitSuccess
}
