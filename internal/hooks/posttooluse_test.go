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
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aleutian/memsearch/internal/keywords"
	"github.com/aleutian/memsearch/internal/memory"
)

type stubStore struct {
	inserted []memory.Entry
	insertAt func(memory.Entry, memory.Vector) error
	recent   []memory.Entry
	scanErr  error
}

func (s *stubStore) Insert(_ context.Context, entry memory.Entry, vec memory.Vector, _ string) error {
	if s.insertAt != nil {
		if err := s.insertAt(entry, vec); err != nil {
			return err
		}
	}
	s.inserted = append(s.inserted, entry)
	return nil
}

func (s *stubStore) ScanRecent(_ context.Context, _ time.Time, _ int) ([]memory.Entry, error) {
	return s.recent, s.scanErr
}

type stubEmbedder struct {
	vec memory.Vector
	err error
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) (memory.Vector, error) {
	return e.vec, e.err
}

func testRuntime(t *testing.T, store *stubStore) Runtime {
	t.Helper()
	return Runtime{
		Store:     store,
		Extractor: keywords.NewExtractor(keywords.Vocabulary{}),
		Logger:    slog.Default(),
	}
}

func TestPostToolUse_WriteToolInserted(t *testing.T) {
	store := &stubStore{}
	rt := testRuntime(t, store)

	ev := Event{
		Name:      EventPostToolUse,
		ToolName:  "Write",
		ToolInput: json.RawMessage(`{"file_path":"main.go","content":"package main"}`),
	}

	code := PostToolUse(context.Background(), rt, ev)
	require.Equal(t, ExitSuccess, code)
	require.Len(t, store.inserted, 1)
	require.Equal(t, "main.go", store.inserted[0].FilePath)
	require.Equal(t, memory.ContentTypeCode, store.inserted[0].ContentType)
	require.NotEmpty(t, store.inserted[0].ID)
	require.False(t, store.inserted[0].CreatedAt.IsZero())
}

func TestPostToolUse_BashNoiseCommandSkipped(t *testing.T) {
	store := &stubStore{}
	rt := testRuntime(t, store)

	ev := Event{
		Name:         EventPostToolUse,
		ToolName:     "Bash",
		ToolInput:    json.RawMessage(`{"command":"ls -la"}`),
		ToolResponse: json.RawMessage(`{"output":"a very long directory listing well past the threshold"}`),
	}

	code := PostToolUse(context.Background(), rt, ev)
	require.Equal(t, ExitSuccess, code)
	require.Empty(t, store.inserted)
}

func TestPostToolUse_BashCapturedWhenSubstantial(t *testing.T) {
	store := &stubStore{}
	rt := testRuntime(t, store)

	ev := Event{
		Name:         EventPostToolUse,
		ToolName:     "Bash",
		ToolInput:    json.RawMessage(`{"command":"go test ./..."}`),
		ToolResponse: json.RawMessage(`{"output":"ok   github.com/example/pkg   0.421s  PASS all tests run clean"}`),
	}

	code := PostToolUse(context.Background(), rt, ev)
	require.Equal(t, ExitSuccess, code)
	require.Len(t, store.inserted, 1)
	require.Equal(t, memory.SourceToolBash, store.inserted[0].SourceTool)
}

func TestPostToolUse_ReadDisallowedExtensionSkipped(t *testing.T) {
	store := &stubStore{}
	rt := testRuntime(t, store)

	ev := Event{
		Name:      EventPostToolUse,
		ToolName:  "Read",
		ToolInput: json.RawMessage(`{"file_path":"logo.png"}`),
	}

	code := PostToolUse(context.Background(), rt, ev)
	require.Equal(t, ExitSuccess, code)
	require.Empty(t, store.inserted)
}

func TestPostToolUse_TodoWriteAlwaysCaptured(t *testing.T) {
	store := &stubStore{}
	rt := testRuntime(t, store)

	ev := Event{
		Name:         EventPostToolUse,
		ToolName:     "TodoWrite",
		SessionID:    "sess-1",
		ToolResponse: json.RawMessage(`{"content":"[{\"id\":1,\"status\":\"done\"}]"}`),
	}

	code := PostToolUse(context.Background(), rt, ev)
	require.Equal(t, ExitSuccess, code)
	require.Len(t, store.inserted, 1)
	require.Equal(t, "todo/sess-1.json", store.inserted[0].FilePath)
}

func TestPostToolUse_UnroutableToolSkipped(t *testing.T) {
	store := &stubStore{}
	rt := testRuntime(t, store)

	ev := Event{Name: EventPostToolUse, ToolName: "WebFetch"}
	code := PostToolUse(context.Background(), rt, ev)
	require.Equal(t, ExitSuccess, code)
	require.Empty(t, store.inserted)
}

func TestPostToolUse_EmbedUnavailableStillInserts(t *testing.T) {
	store := &stubStore{}
	rt := testRuntime(t, store)
	rt.Embedder = &stubEmbedder{err: errors.New("rate limited")}

	ev := Event{
		Name:      EventPostToolUse,
		ToolName:  "Write",
		ToolInput: json.RawMessage(`{"file_path":"a.go","content":"package a"}`),
	}

	code := PostToolUse(context.Background(), rt, ev)
	require.Equal(t, ExitSuccess, code)
	require.Len(t, store.inserted, 1)
}

func TestPostToolUse_InsertFailureReturnsWarn(t *testing.T) {
	store := &stubStore{insertAt: func(memory.Entry, memory.Vector) error {
		return memory.NewError(memory.KindIntegrityViolation, "op", errors.New("disk full"))
	}}
	rt := testRuntime(t, store)

	ev := Event{
		Name:      EventPostToolUse,
		ToolName:  "Write",
		ToolInput: json.RawMessage(`{"file_path":"a.go","content":"package a"}`),
	}

	code := PostToolUse(context.Background(), rt, ev)
	require.Equal(t, ExitWarn, code)
}

func TestCommandSlug(t *testing.T) {
	require.Equal(t, "go_test______", commandSlug("go test ./..."))
	require.Equal(t, "cmd", commandSlug(""))
}

func TestSourceToolFor(t *testing.T) {
	require.Equal(t, memory.SourceToolEdit, sourceToolFor("Edit"))
	require.Equal(t, memory.SourceToolEdit, sourceToolFor("MultiEdit"))
	require.Equal(t, memory.SourceToolWrite, sourceToolFor("Write"))
}
