// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package storage is the durable, single-node, concurrent-reader/
// single-writer substrate for MemoryEntry, its lexical index, and its
// vector index (§4.2). Grounded on the hybrid FTS5+vector shape of
// other_examples' hybrid-store.go, generalized with explicit dimension
// validation, a checkpoints table, and project-root path confinement that
// the teacher precedent does not need (it trusts a config-supplied path).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aleutian/memsearch/internal/memory"
	"github.com/aleutian/memsearch/internal/telemetry"
)

// sqliteDriverName is the database/sql driver this package opens. It must
// be a cgo-backed driver (mattn/go-sqlite3): vector.go's vec0 virtual
// table is a loadable C extension, and the pure-Go modernc.org/sqlite
// driver has no mechanism to load one. init() in vector.go registers the
// extension against this driver before any Open call.
const sqliteDriverName = "sqlite3"

// ErrNotFound is returned by Get when no entry has the requested id.
var ErrNotFound = errors.New("storage: entry not found")

// Filter narrows lexical_search and vector_search to a content-type and/or
// keyword subset (§4.2 "filter"), applied at the database level before
// fusion so rank positions reflect the filtered universe (§4.3).
type Filter struct {
	ContentTypes []memory.ContentType
	Keywords     []string
}

// Ranked is one (id, score) pair from lexical_search or vector_search.
// Score is the engine's native ranking unit: BM25-equivalent rank for
// lexical, distance for vector. Lower is better for both, matching
// SQLite FTS5's bm25() and sqlite-vec's distance convention.
type Ranked struct {
	ID    string
	Score float64
}

// Store is a single opened database handle plus the fixed vector dimension
// for this deployment (§4.2: "vector dimension is fixed per deployment").
type Store struct {
	db        *sql.DB
	vectorDim int
}

// Config configures Open.
type Config struct {
	// Path is the already-validated (ValidateDBPath) database file path.
	Path string
	// VectorDim is the fixed embedding dimension for this deployment.
	VectorDim int
	// BusyTimeout bounds how long a writer waits for the write lock before
	// giving up (§4.2: "busy-timeout must be set so that concurrent writers
	// queue rather than fail immediately"). Zero uses a 5s default.
	BusyTimeout time.Duration
}

// Open opens (creating if absent) the database at cfg.Path, enables WAL
// mode and busy-timeout, and applies migrations.
func Open(cfg Config) (*Store, error) {
	const op = "storage.open"

	if cfg.VectorDim <= 0 {
		return nil, memory.NewError(memory.KindUserInput, op, errors.New("VectorDim must be positive"))
	}
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	db, err := sql.Open(sqliteDriverName, cfg.Path)
	if err != nil {
		return nil, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("open db: %w", err))
	}
	// Single-writer semantics: SQLite serializes writers regardless, but
	// capping Go's pool to 1 avoids SQLITE_BUSY churn under WAL.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("enable WAL: %w", err))
	}
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA busy_timeout=%d`, busyTimeout.Milliseconds())); err != nil {
		_ = db.Close()
		return nil, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("set busy_timeout: %w", err))
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("enable foreign_keys: %w", err))
	}

	if err := migrate(db, cfg.VectorDim); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, vectorDim: cfg.VectorDim}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes entry (and, if vec is non-nil, its embedding) atomically:
// the primary row, its lexical row (via the I4 trigger), and — when a
// vector is supplied — its vector-index row, all commit together or none
// do (§4.2: "partial writes forbidden").
func (s *Store) Insert(ctx context.Context, entry memory.Entry, vec memory.Vector, modelID string) error {
	const op = "storage.insert"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memory.NewError(memory.KindTransientDependency, op, fmt.Errorf("begin tx: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries(id, content, content_type, keywords, created_at, source_tool, file_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Content, string(entry.ContentType),
		strings.Join(entry.Keywords, ","), entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(entry.SourceTool), entry.FilePath,
	)
	if err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("insert entry: %w", err))
	}

	if vec != nil {
		blob, err := serializeVector(vec, s.vectorDim)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO embeddings(entry_id, model_id) VALUES (?, ?)`, entry.ID, modelID,
		); err != nil {
			return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("insert embedding row: %w", err))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries_vec(entry_id, embedding) VALUES (?, ?)`, entry.ID, blob,
		); err != nil {
			return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("insert vector row: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Get retrieves a single entry by id. Returns ErrNotFound (wrapped) when
// absent.
func (s *Store) Get(ctx context.Context, id string) (memory.Entry, error) {
	const op = "storage.get"

	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, content_type, keywords, created_at, source_tool, file_path
		 FROM entries WHERE id = ?`, id)

	var e memory.Entry
	var contentType, keywords, createdAt, sourceTool string
	if err := row.Scan(&e.ID, &e.Content, &contentType, &keywords, &createdAt, &sourceTool, &e.FilePath); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return memory.Entry{}, fmt.Errorf("%s: %w: %s", op, ErrNotFound, id)
		}
		return memory.Entry{}, memory.NewError(memory.KindIntegrityViolation, op, err)
	}

	e.ContentType = memory.ContentType(contentType)
	e.SourceTool = memory.SourceTool(sourceTool)
	if keywords != "" {
		e.Keywords = strings.Split(keywords, ",")
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return memory.Entry{}, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("parse created_at: %w", err))
	}
	e.CreatedAt = ts

	return e, nil
}

// Delete removes an entry and its vector-index row in one transaction; the
// lexical row is removed by the I4 delete trigger, and ON DELETE CASCADE
// removes its embeddings row.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "storage.delete"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memory.NewError(memory.KindTransientDependency, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries_vec WHERE entry_id = ?`, id); err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("delete vector row: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("delete entry: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// LexicalSearch ranks entries by full-text relevance to queryText (§4.2).
// Lower Ranked.Score (SQLite's native bm25()) is a better match.
func (s *Store) LexicalSearch(ctx context.Context, queryText string, limit int, filter Filter) ([]Ranked, error) {
	const op = "storage.lexical_search"

	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	query, args := buildLexicalQuery(queryText, limit, filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, memory.NewError(memory.KindTransientDependency, op, err)
	}
	defer rows.Close()

	var out []Ranked
	for rows.Next() {
		var r Ranked
		if err := rows.Scan(&r.ID, &r.Score); err != nil {
			return nil, memory.NewError(memory.KindIntegrityViolation, op, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func buildLexicalQuery(queryText string, limit int, filter Filter) (string, []any) {
	var b strings.Builder
	args := []any{queryText}
	b.WriteString(`SELECT e.id, bm25(entries_fts) FROM entries_fts
		JOIN entries e ON e.id = entries_fts.id
		WHERE entries_fts MATCH ?`)

	if len(filter.ContentTypes) > 0 {
		b.WriteString(" AND e.content_type IN (" + placeholders(len(filter.ContentTypes)) + ")")
		for _, ct := range filter.ContentTypes {
			args = append(args, string(ct))
		}
	}
	for _, kw := range filter.Keywords {
		b.WriteString(" AND e.keywords LIKE ?")
		args = append(args, "%"+kw+"%")
	}
	b.WriteString(" ORDER BY bm25(entries_fts) LIMIT ?")
	args = append(args, limit)
	return b.String(), args
}

// VectorSearch ranks entries by K-nearest-neighbors under cosine distance
// to queryVec (§4.2, default metric). Lower Ranked.Score is a closer match.
func (s *Store) VectorSearch(ctx context.Context, queryVec memory.Vector, limit int, filter Filter) ([]Ranked, error) {
	const op = "storage.vector_search"

	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	blob, err := serializeVector(queryVec, s.vectorDim)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	args := []any{blob}
	b.WriteString(`SELECT v.entry_id, v.distance FROM entries_vec v
		JOIN entries e ON e.id = v.entry_id
		WHERE v.embedding MATCH ? AND k = ?`)
	args = append(args, limit)

	if len(filter.ContentTypes) > 0 {
		b.WriteString(" AND e.content_type IN (" + placeholders(len(filter.ContentTypes)) + ")")
		for _, ct := range filter.ContentTypes {
			args = append(args, string(ct))
		}
	}
	for _, kw := range filter.Keywords {
		b.WriteString(" AND e.keywords LIKE ?")
		args = append(args, "%"+kw+"%")
	}
	b.WriteString(" ORDER BY v.distance")

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, memory.NewError(memory.KindTransientDependency, op, err)
	}
	defer rows.Close()

	var out []Ranked
	for rows.Next() {
		var r Ranked
		if err := rows.Scan(&r.ID, &r.Score); err != nil {
			return nil, memory.NewError(memory.KindIntegrityViolation, op, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ScanRecent returns every entry created at or after since, newest first,
// capped at limit (§4.2: "for session-summary generation").
func (s *Store) ScanRecent(ctx context.Context, since time.Time, limit int) ([]memory.Entry, error) {
	const op = "storage.scan_recent"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, content_type, keywords, created_at, source_tool, file_path
		 FROM entries WHERE created_at >= ? ORDER BY created_at DESC LIMIT ?`,
		since.UTC().Format(time.RFC3339Nano), limit,
	)
	if err != nil {
		return nil, memory.NewError(memory.KindTransientDependency, op, err)
	}
	defer rows.Close()

	var out []memory.Entry
	for rows.Next() {
		var e memory.Entry
		var contentType, keywords, createdAt, sourceTool string
		if err := rows.Scan(&e.ID, &e.Content, &contentType, &keywords, &createdAt, &sourceTool, &e.FilePath); err != nil {
			return nil, memory.NewError(memory.KindIntegrityViolation, op, err)
		}
		e.ContentType = memory.ContentType(contentType)
		e.SourceTool = memory.SourceTool(sourceTool)
		if keywords != "" {
			e.Keywords = strings.Split(keywords, ",")
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("parse created_at: %w", err))
		}
		e.CreatedAt = ts
		out = append(out, e)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ",")
}
