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
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/aleutian/memsearch/internal/memory"
)

// init registers the vec0 extension with mattn/go-sqlite3 before any
// connection opens, so every Open call gets a driver that understands the
// CREATE VIRTUAL TABLE ... USING vec0(...) in schema.go. Without this,
// opening the database succeeds but migrate fails with "no such module:
// vec0" the first time it touches entries_vec.
func init() {
	sqlite_vec.Auto()
}

// serializeVector encodes a dense vector into the blob format entries_vec
// expects, rejecting a dimension mismatch before it reaches the database
// (§4.2: "inserting a mismatched-dimension vector is rejected").
func serializeVector(v memory.Vector, dim int) ([]byte, error) {
	const op = "storage.serialize_vector"
	if len(v) != dim {
		return nil, memory.NewError(memory.KindIntegrityViolation, op,
			fmt.Errorf("vector has dimension %d, want %d", len(v), dim))
	}
	blob, err := sqlite_vec.SerializeFloat32(v)
	if err != nil {
		return nil, memory.NewError(memory.KindIntegrityViolation, op, fmt.Errorf("serialize vector: %w", err))
	}
	return blob, nil
}
