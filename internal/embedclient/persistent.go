// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package embedclient

// =============================================================================
// Persistent tier — BadgerDB
// =============================================================================
//
// The hot tier (cache.go) is per-process and cold on every hook invocation
// (§5.4: "there is no shared in-memory cache"). A short-lived hook process
// that embeds the same file path, error string, or boilerplate snippet
// across repeated invocations would otherwise pay the full embedder round
// trip every time. This optional tier survives process exit:
//
//   - BadgerDB, not the primary SQLite store: these vectors are a derived
//     cache of an external service's output, not user data — they do not
//     need FTS5, a vector KNN index, or transactional consistency with
//     MemoryEntry rows. An embedded KV store with native TTL is the
//     smaller-footprint fit (mirrors GR-61's reasoning for the tool-routing
//     vector cache).
//   - Key: the same SHA-256 content hash the hot tier and the caller use
//     (§4.1 "Keying"), so the two tiers never disagree about identity.
//   - Value: gob-encoded []float32, decoded back into a memory.Vector.
//   - TTL: enforced by BadgerDB's own GC, not application code.

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/aleutian/memsearch/internal/memory"
)

// DefaultPersistentTTL is the lifetime of a cached vector in the on-disk tier.
const DefaultPersistentTTL = 7 * 24 * time.Hour

const persistentKeyPrefix = "embedclient/vec/v1/"

// PersistentStore is the optional on-disk embedding cache tier. A nil
// *PersistentStore is valid and simply disables the tier — every method is
// nil-receiver safe.
type PersistentStore struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenPersistentStore opens (creating if absent) a BadgerDB instance rooted
// at dir. ttl <= 0 uses DefaultPersistentTTL.
func OpenPersistentStore(dir string, ttl time.Duration) (*PersistentStore, error) {
	if ttl <= 0 {
		ttl = DefaultPersistentTTL
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, Internal("embedclient.open_persistent_store", err)
	}
	return &PersistentStore{db: db, ttl: ttl}, nil
}

// Close releases the underlying BadgerDB handle. Safe to call on a nil store.
func (s *PersistentStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load retrieves a persisted vector for contentHash. Returns (nil, false,
// nil) on a clean miss (absent or TTL-expired); a non-nil error indicates a
// genuine storage failure, which callers should treat as a cache miss and
// log, not propagate (persistence is an optimization, not a dependency).
func (s *PersistentStore) Load(ctx context.Context, contentHash string) (memory.Vector, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(persistentKey(contentHash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, Internal("embedclient.persistent_load", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	var vec []float32
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&vec); err != nil {
		return nil, false, Internal("embedclient.persistent_decode", err)
	}
	return memory.Vector(vec), true, nil
}

// Save persists a vector for contentHash with the configured TTL. Failure is
// returned to the caller, who is expected to log and continue: the vector is
// already usable from the in-flight request regardless of persistence.
func (s *PersistentStore) Save(ctx context.Context, contentHash string, vec memory.Vector) error {
	if s == nil || s.db == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode([]float32(vec)); err != nil {
		return Internal("embedclient.persistent_encode", err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(persistentKey(contentHash), buf.Bytes()).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return Internal("embedclient.persistent_save", err)
	}
	return nil
}

func persistentKey(contentHash string) []byte {
	return []byte(fmt.Sprintf("%s%s", persistentKeyPrefix, contentHash))
}
