// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memory defines the data model of the semantic memory engine:
// MemoryEntry, its associated EmbeddingRecord, the session-handoff
// MarkerFile, and the optional CheckpointRecord. Nothing in this package
// talks to a database or the filesystem; it only describes the shapes and
// invariants that the storage, search, and hook-dispatch packages operate
// on.
package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContentType tags the kind of artifact a MemoryEntry carries.
//
// # Description
//
// A fixed, closed enumeration — new variants require a schema migration,
// not free-form strings, so that storage filters and context-assembler
// headers stay exhaustive.
type ContentType string

// Recognized ContentType variants (§3).
const (
	ContentTypeCode          ContentType = "code"
	ContentTypeDocumentation ContentType = "documentation"
	ContentTypeContext       ContentType = "context"
	ContentTypeOutput        ContentType = "output"
	ContentTypeError         ContentType = "error"
	ContentTypeDecision      ContentType = "decision"
	ContentTypeLearning      ContentType = "learning"
)

// Valid reports whether c is one of the recognized ContentType variants.
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeCode, ContentTypeDocumentation, ContentTypeContext,
		ContentTypeOutput, ContentTypeError, ContentTypeDecision, ContentTypeLearning:
		return true
	default:
		return false
	}
}

// SourceTool identifies the host tool that produced a MemoryEntry.
// Kept as a plain string (not a closed enum): the host's tool surface is
// explicitly out of this module's scope (spec.md §1), so new tool names
// must not require a recompile here.
type SourceTool string

// Recognized source-tool labels the ingest workflow assigns (§4.5).
const (
	SourceToolWrite      SourceTool = "write"
	SourceToolEdit       SourceTool = "edit"
	SourceToolBash       SourceTool = "bash"
	SourceToolRead       SourceTool = "read"
	SourceToolTodoWrite  SourceTool = "todowrite"
	SourceToolSessionEnd SourceTool = "session-end"
	SourceToolPreCompact SourceTool = "pre-compact"
)

// Entry is the primary persistent record (§3 MemoryEntry).
//
// # Invariants
//
//   - ID is assigned at insert and is immutable thereafter (I2).
//   - Keywords is a deduplicated, normalized set (I3); use NormalizeKeywords
//     before constructing an Entry that will be persisted.
//   - An Entry is valid on its own, with or without an embedding (I1) —
//     embeddings live in a separate EmbeddingRecord.
type Entry struct {
	ID          string
	Content     string
	ContentType ContentType
	Keywords    []string
	CreatedAt   time.Time
	SourceTool  SourceTool
	FilePath    string
}

// NewID returns a fresh collision-resistant entry identifier (§3: "128-bit
// or larger"). UUIDv4 supplies 122 bits of randomness, comfortably above
// the floor, and is already a direct dependency of the module.
func NewID() string {
	return uuid.NewString()
}

// NormalizeKeywords collapses a raw keyword slice into the deduplicated,
// order-irrelevant set required by I3: lowercase, whitespace-trimmed,
// non-empty. The result is sorted so that two logically equal keyword
// sets always compare byte-for-byte equal, which P2's round-trip
// assertion and P3's determinism property both rely on.
func NormalizeKeywords(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		norm := strings.ToLower(strings.TrimSpace(kw))
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	sort.Strings(out)
	return out
}

// Vector is a dense embedding vector. Stored as float32 to match common
// embedding model output and to halve on-disk size relative to float64,
// per §3's "IEEE-754 32-bit or 64-bit floats" allowance.
type Vector []float32

// EmbeddingRecord is 1:1 with an Entry when embedding succeeded (§3).
type EmbeddingRecord struct {
	EntryID string
	Vector  Vector
	ModelID string
}

// CheckpointRecord is the optional append-only episodic-state table (§3).
// Implemented per SPEC_FULL.md's supplemented-features decision rather
// than omitted.
type CheckpointRecord struct {
	ID              string
	Timestamp       time.Time
	SessionID       string
	Branch          string
	SerializedState []byte // opaque JSON blob
	Metadata        map[string]string
}

// DefaultCheckpointRetentionCount is the maximum number of checkpoints
// kept regardless of age (§3: "keep most recent 100").
const DefaultCheckpointRetentionCount = 100

// DefaultCheckpointRetentionAge is the maximum checkpoint age regardless
// of count (§3: "delete entries older than 30 days").
const DefaultCheckpointRetentionAge = 30 * 24 * time.Hour
