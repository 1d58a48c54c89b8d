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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aleutian/memsearch/internal/memory"
)

// WriteMarkerAtomic implements §4.5 step 5 of session-end/pre-compact: write
// to a sibling temp file in the target's directory, fsync, then rename over
// the target. A rename within the same directory is atomic on every POSIX
// filesystem, so a reader never observes a partial write (P5/I... marker
// invariant); the sibling-directory requirement is what makes the rename
// atomic rather than a cross-filesystem copy.
func WriteMarkerAtomic(path string, content []byte) error {
	const op = "hooks.write_marker_atomic"

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return memory.NewError(memory.KindTransientDependency, op, fmt.Errorf("create state dir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, ".marker-*.tmp")
	if err != nil {
		return memory.NewError(memory.KindTransientDependency, op, fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return memory.NewError(memory.KindTransientDependency, op, fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return memory.NewError(memory.KindTransientDependency, op, fmt.Errorf("fsync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return memory.NewError(memory.KindTransientDependency, op, fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return memory.NewError(memory.KindTransientDependency, op, fmt.Errorf("rename into place: %w", err))
	}
	return nil
}

// ReadAndConsumeMarker implements §4.5's session-start workflow: read the
// marker file if present, then delete it so the next session-start finds
// nothing (one-time consumption). A missing file is not an error — it
// reports (nil, false, nil). A failed deletion after a successful read is
// logged by the caller, not treated as fatal, per step 3's "log a warning
// but still exit 0".
func ReadAndConsumeMarker(path string) (content []byte, found bool, deleteErr error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, nil // any other read error is treated the same as absent; nothing to display
	}
	deleteErr = os.Remove(path)
	if deleteErr != nil && errors.Is(deleteErr, os.ErrNotExist) {
		deleteErr = nil // already gone: another session-start raced us, which is fine
	}
	return content, true, deleteErr
}
