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
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleutian/memsearch/internal/memory"
)

func TestAggregate_CountsByContentType(t *testing.T) {
	entries := []memory.Entry{
		{ContentType: memory.ContentTypeCode, FilePath: "a.go"},
		{ContentType: memory.ContentTypeCode, FilePath: "a.go"}, // same file, counted once
		{ContentType: memory.ContentTypeCode, FilePath: "b.go"},
		{ContentType: memory.ContentTypeDecision, SourceTool: memory.SourceToolTodoWrite},
		{ContentType: memory.ContentTypeDecision},
		{ContentType: memory.ContentTypeLearning},
	}
	stats := aggregate(entries)
	require.Equal(t, 2, stats.filesModified)
	require.Equal(t, 2, stats.decisions)
	require.Equal(t, 1, stats.tasksRecorded)
	require.Equal(t, 1, stats.learnings)
}

func TestRenderSummary_IncludesSessionIDWhenPresent(t *testing.T) {
	out := renderSummary("sess-42", nil)
	require.Contains(t, out, "sess-42")
	require.Contains(t, out, "Files modified: 0")
}

func TestRenderSummary_OmitsSessionLineWhenAbsent(t *testing.T) {
	out := renderSummary("", nil)
	require.NotContains(t, out, "Session:")
}

func TestEndSession_PersistsSummaryAndMarker(t *testing.T) {
	dir := t.TempDir()
	store := &stubStore{recent: []memory.Entry{
		{ContentType: memory.ContentTypeCode, FilePath: "a.go"},
	}}
	rt := Runtime{
		Store:    store,
		StateDir: dir,
		Logger:   slog.Default(),
	}

	code := EndSession(context.Background(), rt, Event{SessionID: "sess-1"}, memory.SourceToolSessionEnd)
	require.Equal(t, ExitSuccess, code)

	require.Len(t, store.inserted, 1)
	require.Equal(t, memory.SourceToolSessionEnd, store.inserted[0].SourceTool)
	require.Contains(t, store.inserted[0].Content, "sess-1")

	_, err := os.Stat(memory.MarkerPath(dir))
	require.NoError(t, err)
}

func TestEndSession_ScanFailureStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	store := &stubStore{scanErr: context.DeadlineExceeded}
	rt := Runtime{Store: store, StateDir: dir, Logger: slog.Default()}

	code := EndSession(context.Background(), rt, Event{SessionID: "sess-2"}, memory.SourceToolPreCompact)
	require.Equal(t, ExitSuccess, code)
	require.Len(t, store.inserted, 1)
}

func TestEndSession_InsertFailureStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	store := &stubStore{insertAt: func(memory.Entry, memory.Vector) error {
		return context.DeadlineExceeded
	}}
	rt := Runtime{Store: store, StateDir: dir, Logger: slog.Default()}

	code := EndSession(context.Background(), rt, Event{SessionID: "sess-3"}, memory.SourceToolSessionEnd)
	require.Equal(t, ExitSuccess, code)

	_, err := os.Stat(memory.MarkerPath(dir))
	require.NoError(t, err)
}
