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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleutian/memsearch/internal/config"
	"github.com/aleutian/memsearch/internal/keywords"
	"github.com/aleutian/memsearch/internal/memory"
)

func dispatchRuntime(t *testing.T, store *stubStore) Runtime {
	t.Helper()
	return Runtime{
		Store:     store,
		Extractor: keywords.NewExtractor(keywords.Vocabulary{}),
		StateDir:  t.TempDir(),
		Config:    config.Config{HooksEnabled: true},
		Logger:    slog.Default(),
	}
}

func TestDispatch_GloballyDisabledShortCircuits(t *testing.T) {
	rt := dispatchRuntime(t, &stubStore{})
	rt.Config.HooksEnabled = false

	out, code, err := Dispatch(context.Background(), rt, Event{Name: EventPostToolUse, ToolName: "Write"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, code)
	require.Empty(t, out)
}

func TestDispatch_PerHookDisabledShortCircuits(t *testing.T) {
	store := &stubStore{}
	rt := dispatchRuntime(t, store)
	rt.Config.HookEnabled = map[string]bool{string(EventPostToolUse): false}

	ev := Event{
		Name:      EventPostToolUse,
		ToolName:  "Write",
		ToolInput: json.RawMessage(`{"file_path":"a.go","content":"package a"}`),
	}
	_, code, err := Dispatch(context.Background(), rt, ev, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, code)
	require.Empty(t, store.inserted)
}

func TestDispatch_RoutesPostToolUse(t *testing.T) {
	store := &stubStore{}
	rt := dispatchRuntime(t, store)

	ev := Event{
		Name:      EventPostToolUse,
		ToolName:  "Write",
		ToolInput: json.RawMessage(`{"file_path":"a.go","content":"package a"}`),
	}
	_, code, err := Dispatch(context.Background(), rt, ev, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, code)
	require.Len(t, store.inserted, 1)
}

func TestDispatch_RoutesSessionStart(t *testing.T) {
	rt := dispatchRuntime(t, &stubStore{})
	require.NoError(t, WriteMarkerAtomic(memory.MarkerPath(rt.StateDir), []byte("prior summary")))

	var stderr bytes.Buffer
	_, code, err := Dispatch(context.Background(), rt, Event{Name: EventSessionStart}, &stderr)
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, code)
	require.Contains(t, stderr.String(), "prior summary")
}

func TestDispatch_RoutesSessionEndAndPreCompact(t *testing.T) {
	store := &stubStore{}
	rt := dispatchRuntime(t, store)

	_, code, err := Dispatch(context.Background(), rt, Event{Name: EventSessionEnd, SessionID: "s1"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, code)
	require.Len(t, store.inserted, 1)
	require.Equal(t, memory.SourceToolSessionEnd, store.inserted[0].SourceTool)

	_, code, err = Dispatch(context.Background(), rt, Event{Name: EventPreCompact, SessionID: "s2"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, code)
	require.Len(t, store.inserted, 2)
	require.Equal(t, memory.SourceToolPreCompact, store.inserted[1].SourceTool)
}

func TestDispatch_UnrecognizedEventIsWarn(t *testing.T) {
	rt := dispatchRuntime(t, &stubStore{})
	_, code, err := Dispatch(context.Background(), rt, Event{Name: EventName("bogus")}, &bytes.Buffer{})
	require.Error(t, err)
	require.Equal(t, ExitWarn, code)
}
