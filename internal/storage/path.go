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
	"os"
	"path/filepath"
	"strings"

	"github.com/aleutian/memsearch/internal/memory"
)

// recognizedExtensions are the database-file suffixes accepted by
// ValidateDBPath (§6 "*_DB_PATH").
var recognizedExtensions = map[string]bool{
	".db":      true,
	".sqlite":  true,
	".sqlite3": true,
}

// ValidateDBPath canonicalizes raw against projectRoot and enforces §4.2's
// traversal guard and §6's extension allowlist. A violation is a
// KindSecurity error (§7: "blocking; exit 2"), never a warning — the caller
// must abort rather than degrade.
func ValidateDBPath(projectRoot, raw string) (string, error) {
	const op = "storage.validate_db_path"

	if strings.Contains(raw, "..") {
		return "", memory.NewError(memory.KindSecurity, op,
			fmt.Errorf("path %q contains a parent-directory segment", raw))
	}

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", memory.NewError(memory.KindSecurity, op, fmt.Errorf("resolve project root: %w", err))
	}
	root = filepath.Clean(root)
	root, err = resolveSymlinks(root)
	if err != nil {
		return "", memory.NewError(memory.KindSecurity, op, fmt.Errorf("resolve project root symlinks: %w", err))
	}

	var candidate string
	if filepath.IsAbs(raw) {
		candidate = filepath.Clean(raw)
	} else {
		candidate = filepath.Clean(filepath.Join(root, raw))
	}
	candidate, err = resolveSymlinks(candidate)
	if err != nil {
		return "", memory.NewError(memory.KindSecurity, op, fmt.Errorf("resolve db path symlinks: %w", err))
	}

	rel, err := filepath.Rel(root, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", memory.NewError(memory.KindSecurity, op,
			fmt.Errorf("path %q resolves outside project root %q", raw, root))
	}

	ext := strings.ToLower(filepath.Ext(candidate))
	if !recognizedExtensions[ext] {
		return "", memory.NewError(memory.KindSecurity, op,
			fmt.Errorf("path %q has unrecognized extension %q", raw, ext))
	}

	return candidate, nil
}

// resolveSymlinks canonicalizes path the way §6 "symlinks resolved" asks
// for, without requiring path itself to already exist — the database file
// usually doesn't, on first run. It resolves the longest existing ancestor
// directory with filepath.EvalSymlinks and rejoins the remaining,
// not-yet-created suffix, so a symlinked ancestor can't be used to steer a
// new database file outside the project root.
func resolveSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	resolvedParent, err := resolveSymlinks(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}
