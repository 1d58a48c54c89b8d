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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aleutian/memsearch/internal/memory"
)

// InsertCheckpoint appends a new CheckpointRecord. The table is append-only
// from the caller's perspective; pruning is a separate, explicit operation
// (PruneCheckpoints) rather than something every insert triggers, so a
// caller can batch several checkpoints before paying the prune cost once.
func (s *Store) InsertCheckpoint(ctx context.Context, cp memory.CheckpointRecord) error {
	const op = "storage.insert_checkpoint"

	metaJSON, err := json.Marshal(cp.Metadata)
	if err != nil {
		return memory.NewError(memory.KindUserInput, op, fmt.Errorf("marshal metadata: %w", err))
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints(id, session_id, branch, created_at, serialized_state, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cp.ID, cp.SessionID, cp.Branch, cp.Timestamp.UTC().Format(time.RFC3339Nano), cp.SerializedState, metaJSON,
	)
	if err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, err)
	}
	return nil
}

// PruneCheckpoints enforces the retention policy of §3: keep at most
// maxCount checkpoints, and drop any older than maxAge regardless of count.
// Age takes priority — a deployment with maxCount=100 but only 5
// checkpoints still drops ones past maxAge.
func (s *Store) PruneCheckpoints(ctx context.Context, maxCount int, maxAge time.Duration) error {
	const op = "storage.prune_checkpoints"

	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE created_at < ?`, cutoff); err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("prune by age: %w", err))
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE id NOT IN (
			SELECT id FROM checkpoints ORDER BY created_at DESC LIMIT ?
		)`, maxCount,
	)
	if err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("prune by count: %w", err))
	}
	return nil
}

// LatestCheckpoint returns the most recent checkpoint for sessionID, or
// ErrNotFound if none exists.
func (s *Store) LatestCheckpoint(ctx context.Context, sessionID string) (memory.CheckpointRecord, error) {
	const op = "storage.latest_checkpoint"

	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, branch, created_at, serialized_state, metadata
		 FROM checkpoints WHERE session_id = ? ORDER BY created_at DESC LIMIT 1`, sessionID)

	var cp memory.CheckpointRecord
	var createdAt string
	var metaJSON []byte
	if err := row.Scan(&cp.ID, &cp.SessionID, &cp.Branch, &createdAt, &cp.SerializedState, &metaJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return memory.CheckpointRecord{}, fmt.Errorf("%s: %w: %s", op, ErrNotFound, sessionID)
		}
		return memory.CheckpointRecord{}, memory.NewError(memory.KindIntegrityViolation, op, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return memory.CheckpointRecord{}, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("parse created_at: %w", err))
	}
	cp.Timestamp = ts

	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &cp.Metadata); err != nil {
			return memory.CheckpointRecord{}, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("unmarshal metadata: %w", err))
		}
	}

	return cp, nil
}
