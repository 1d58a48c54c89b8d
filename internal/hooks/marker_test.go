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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteMarkerAtomic_CreatesParentDirAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "last_session_summary.txt")

	require.NoError(t, WriteMarkerAtomic(path, []byte("hello")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestWriteMarkerAtomic_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marker.txt")

	require.NoError(t, WriteMarkerAtomic(path, []byte("first")))
	require.NoError(t, WriteMarkerAtomic(path, []byte("second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(got))
}

func TestReadAndConsumeMarker_AbsentFileReportsNotFound(t *testing.T) {
	dir := t.TempDir()
	content, found, err := ReadAndConsumeMarker(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, content)
}

func TestReadAndConsumeMarker_DeletesAfterRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marker.txt")
	require.NoError(t, WriteMarkerAtomic(path, []byte("summary text")))

	content, found, err := ReadAndConsumeMarker(path)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "summary text", string(content))

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestReadAndConsumeMarker_RacingDeleteIsTolerated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marker.txt")
	require.NoError(t, WriteMarkerAtomic(path, []byte("summary")))

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, found, err := ReadAndConsumeMarker(path)
			require.NoError(t, err)
			results[i] = found
		}(i)
	}
	wg.Wait()

	var foundCount int
	for _, f := range results {
		if f {
			foundCount++
		}
	}
	require.GreaterOrEqual(t, foundCount, 1)

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
