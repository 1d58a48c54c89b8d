// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aleutian/memsearch/internal/memory"
)

const testVectorDim = 4

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(Config{
		Path:      filepath.Join(dir, "memory.db"),
		VectorDim: testVectorDim,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleEntry(id, content string) memory.Entry {
	return memory.Entry{
		ID:          id,
		Content:     content,
		ContentType: memory.ContentTypeCode,
		Keywords:    memory.NormalizeKeywords([]string{"go", "storage"}),
		CreatedAt:   time.Now().UTC(),
		SourceTool:  memory.SourceToolWrite,
		FilePath:    "main.go",
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := sampleEntry(memory.NewID(), "package main")
	require.NoError(t, s.Insert(ctx, entry, nil, ""))

	got, err := s.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, entry.Content, got.Content)
	require.Equal(t, entry.ContentType, got.ContentType)
	require.Equal(t, entry.Keywords, got.Keywords)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_InsertWithVectorAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := sampleEntry(memory.NewID(), "vector search test content")
	vec := memory.Vector{0.1, 0.2, 0.3, 0.4}
	require.NoError(t, s.Insert(ctx, entry, vec, "test-model-v1"))

	results, err := s.VectorSearch(ctx, vec, 5, Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, entry.ID, results[0].ID)
}

func TestStore_Insert_RejectsWrongDimension(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := sampleEntry(memory.NewID(), "bad vector")
	err := s.Insert(ctx, entry, memory.Vector{0.1, 0.2}, "test-model-v1")
	require.Error(t, err)
	require.True(t, memory.IsKind(err, memory.KindIntegrityViolation))
}

func TestStore_LexicalSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := sampleEntry(memory.NewID(), "hybrid search fuses vector and lexical ranking")
	require.NoError(t, s.Insert(ctx, entry, nil, ""))

	results, err := s.LexicalSearch(ctx, "hybrid", 5, Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, entry.ID, results[0].ID)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := sampleEntry(memory.NewID(), "to be deleted")
	require.NoError(t, s.Insert(ctx, entry, nil, ""))
	require.NoError(t, s.Delete(ctx, entry.ID))

	_, err := s.Get(ctx, entry.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ScanRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := sampleEntry(memory.NewID(), "old entry")
	old.CreatedAt = time.Now().Add(-48 * time.Hour).UTC()
	require.NoError(t, s.Insert(ctx, old, nil, ""))

	recent := sampleEntry(memory.NewID(), "recent entry")
	require.NoError(t, s.Insert(ctx, recent, nil, ""))

	entries, err := s.ScanRecent(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, recent.ID, entries[0].ID)
}

func TestStore_CheckpointLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cp := memory.CheckpointRecord{
		ID:              memory.NewID(),
		SessionID:       "session-1",
		Branch:          "main",
		Timestamp:       time.Now().UTC(),
		SerializedState: []byte(`{"step":1}`),
		Metadata:        map[string]string{"reason": "manual"},
	}
	require.NoError(t, s.InsertCheckpoint(ctx, cp))

	got, err := s.LatestCheckpoint(ctx, "session-1")
	require.NoError(t, err)
	require.Equal(t, cp.ID, got.ID)
	require.Equal(t, cp.Metadata, got.Metadata)
}

func TestStore_PruneCheckpoints_ByCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		cp := memory.CheckpointRecord{
			ID:        memory.NewID(),
			SessionID: "session-1",
			Timestamp: time.Now().Add(time.Duration(i) * time.Second).UTC(),
		}
		require.NoError(t, s.InsertCheckpoint(ctx, cp))
	}

	require.NoError(t, s.PruneCheckpoints(ctx, 2, memory.DefaultCheckpointRetentionAge))

	got, err := s.LatestCheckpoint(ctx, "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
}
