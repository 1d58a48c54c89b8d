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
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleutian/memsearch/internal/memory"
)

func TestSessionStart_NoMarkerIsQuietSuccess(t *testing.T) {
	dir := t.TempDir()
	rt := Runtime{StateDir: dir, Logger: slog.Default()}

	var out bytes.Buffer
	code := SessionStart(rt, &out)
	require.Equal(t, ExitSuccess, code)
	require.Empty(t, out.String())
}

func TestSessionStart_DisplaysAndConsumesMarker(t *testing.T) {
	dir := t.TempDir()
	rt := Runtime{StateDir: dir, Logger: slog.Default()}

	require.NoError(t, WriteMarkerAtomic(memory.MarkerPath(dir), []byte("# Session summary\n\n- Files modified: 2\n")))

	var out bytes.Buffer
	code := SessionStart(rt, &out)
	require.Equal(t, ExitSuccess, code)
	require.Contains(t, out.String(), "Previous session summary")
	require.Contains(t, out.String(), "Files modified: 2")

	_, err := os.Stat(memory.MarkerPath(dir))
	require.True(t, os.IsNotExist(err))
}

func TestSessionStart_SecondCallAfterConsumeIsQuiet(t *testing.T) {
	dir := t.TempDir()
	rt := Runtime{StateDir: dir, Logger: slog.Default()}
	require.NoError(t, WriteMarkerAtomic(memory.MarkerPath(dir), []byte("summary")))

	var first, second bytes.Buffer
	require.Equal(t, ExitSuccess, SessionStart(rt, &first))
	require.Equal(t, ExitSuccess, SessionStart(rt, &second))
	require.NotEmpty(t, first.String())
	require.Empty(t, second.String())
}
