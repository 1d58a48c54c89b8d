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
	"database/sql"
	"fmt"

	"github.com/aleutian/memsearch/internal/memory"
)

// schemaVersion is the current migration target. Bump and append a new
// migration entry when the schema changes; migrations must stay idempotent
// and apply in order (§4.2).
const schemaVersion = 1

// migrations holds every schema statement in execution order. Each one must
// tolerate re-application (`IF NOT EXISTS`) so a restart after a partial
// migration is safe.
//
// Triggers are installed with a unique name per table; CREATE TRIGGER IF NOT
// EXISTS makes "installed exactly once" (§4.2) a property of the migration
// itself rather than something callers must separately verify.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER NOT NULL PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,

	`CREATE TABLE IF NOT EXISTS entries (
		id           TEXT PRIMARY KEY,
		content      TEXT NOT NULL,
		content_type TEXT NOT NULL,
		keywords     TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		source_tool  TEXT NOT NULL DEFAULT '',
		file_path    TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
		id UNINDEXED,
		content,
		keywords,
		content_type UNINDEXED,
		content='entries',
		content_rowid='rowid'
	)`,

	// I4: inserting an entry atomically inserts its lexical row. Installed
	// exactly once by IF NOT EXISTS; a second migration run is a no-op.
	`CREATE TRIGGER IF NOT EXISTS entries_ai_fts AFTER INSERT ON entries BEGIN
		INSERT INTO entries_fts(rowid, id, content, keywords, content_type)
		VALUES (new.rowid, new.id, new.content, new.keywords, new.content_type);
	END`,

	`CREATE TRIGGER IF NOT EXISTS entries_ad_fts AFTER DELETE ON entries BEGIN
		INSERT INTO entries_fts(entries_fts, rowid, id, content, keywords, content_type)
		VALUES ('delete', old.rowid, old.id, old.content, old.keywords, old.content_type);
	END`,

	`CREATE TRIGGER IF NOT EXISTS entries_au_fts AFTER UPDATE ON entries BEGIN
		INSERT INTO entries_fts(entries_fts, rowid, id, content, keywords, content_type)
		VALUES ('delete', old.rowid, old.id, old.content, old.keywords, old.content_type);
		INSERT INTO entries_fts(rowid, id, content, keywords, content_type)
		VALUES (new.rowid, new.id, new.content, new.keywords, new.content_type);
	END`,

	`CREATE TABLE IF NOT EXISTS embeddings (
		entry_id TEXT PRIMARY KEY REFERENCES entries(id) ON DELETE CASCADE,
		model_id TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS checkpoints (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL,
		branch           TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		serialized_state BLOB NOT NULL,
		metadata         TEXT NOT NULL DEFAULT '{}'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_checkpoints_created_at ON checkpoints(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at)`,
}

// vectorTableDDL builds the sqlite-vec virtual table for the configured
// dimension. This runs after the base migrations because it depends on a
// deployment-specific parameter (§4.2: "vector dimension is fixed per
// deployment").
func vectorTableDDL(dim int) string {
	return fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS entries_vec USING vec0(
			entry_id TEXT PRIMARY KEY,
			embedding FLOAT[%d] distance_metric=cosine
		)`, dim)
}

// migrate applies every pending migration in order and records the schema
// version. Idempotent: running it twice against the same DB is a no-op the
// second time.
func migrate(db *sql.DB, vectorDim int) error {
	const op = "storage.migrate"

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return memory.NewError(memory.KindIntegrityViolation, op,
				fmt.Errorf("apply migration %q: %w", truncate(stmt, 60), err))
		}
	}

	if _, err := db.Exec(vectorTableDDL(vectorDim)); err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("create vector table: %w", err))
	}

	if _, err := db.Exec(
		`INSERT OR IGNORE INTO schema_migrations(version) VALUES (?)`, schemaVersion,
	); err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("record schema version: %w", err))
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
