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
	"time"

	"github.com/aleutian/memsearch/internal/memory"
)

// sessionSummaryLookback bounds scan_recent when the host has no session
// concept to scope by (§4.5 step 1: "or all entries since session start if
// no session concept exists"). Entry carries no session_id field (§3), so
// every session-end/pre-compact summary is scoped by this fixed window
// rather than a true session boundary. Not named as a duration by the
// spec text; recorded here as this module's open choice.
const sessionSummaryLookback = 4 * time.Hour

// sessionSummaryScanLimit bounds how many recent entries a summary
// aggregates over, independent of the lookback window.
const sessionSummaryScanLimit = 500

// EndSession runs the shared §4.5 session-end/pre-compact workflow:
// aggregate recent activity, render a markdown summary, persist it as a
// context entry, and write it to the marker file. Always returns
// ExitSuccess — "both hooks must be non-blocking to host shutdown/
// compaction" (§4.5 step 6).
func EndSession(ctx context.Context, rt Runtime, ev Event, source memory.SourceTool) ExitCode {
	since := time.Now().Add(-sessionSummaryLookback)

	entries, err := rt.Store.ScanRecent(ctx, since, sessionSummaryScanLimit)
	if err != nil {
		rt.Logger.Warn("session summary: scan_recent failed", slog.String("error", err.Error()))
		entries = nil
	}

	summary := renderSummary(ev.SessionID, entries)

	newEntry := memory.Entry{
		ID:          memory.NewID(),
		Content:     summary,
		ContentType: memory.ContentTypeContext,
		SourceTool:  source,
		CreatedAt:   time.Now(),
	}
	vec, _ := tryEmbed(ctx, rt, summary)
	if err := rt.Store.Insert(ctx, newEntry, vec, rt.ModelID); err != nil {
		rt.Logger.Warn("session summary: insert failed", slog.String("error", err.Error()))
	}

	path := memory.MarkerPath(rt.StateDir)
	if err := WriteMarkerAtomic(path, []byte(summary)); err != nil {
		rt.Logger.Warn("session summary: marker write failed", slog.String("error", err.Error()))
	}

	return ExitSuccess
}

// sessionStats tallies the §4.5 step 2 aggregate counts over a recent
// entry window.
type sessionStats struct {
	filesModified int
	tasksRecorded int
	decisions     int
	learnings     int
}

func aggregate(entries []memory.Entry) sessionStats {
	var s sessionStats
	filesSeen := make(map[string]struct{})
	for _, e := range entries {
		switch e.ContentType {
		case memory.ContentTypeCode:
			if e.FilePath != "" {
				filesSeen[e.FilePath] = struct{}{}
			}
		case memory.ContentTypeDecision:
			s.decisions++
			if e.SourceTool == memory.SourceToolTodoWrite {
				s.tasksRecorded++
			}
		case memory.ContentTypeLearning:
			s.learnings++
		}
	}
	s.filesModified = len(filesSeen)
	return s
}

func renderSummary(sessionID string, entries []memory.Entry) string {
	stats := aggregate(entries)

	var b strings.Builder
	fmt.Fprintf(&b, "# Session summary\n\n")
	if sessionID != "" {
		fmt.Fprintf(&b, "Session: `%s`\n\n", sessionID)
	}
	fmt.Fprintf(&b, "- Files modified: %d\n", stats.filesModified)
	fmt.Fprintf(&b, "- Tasks recorded: %d\n", stats.tasksRecorded)
	fmt.Fprintf(&b, "- Decisions recorded: %d\n", stats.decisions)
	fmt.Fprintf(&b, "- Learnings captured: %d\n", stats.learnings)
	return b.String()
}
