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

import "github.com/aleutian/memsearch/internal/memory"

// Unavailable wraps a cause as a transient, retriable embed failure: the
// embedder timed out or was unreachable (§4.1).
func Unavailable(op string, cause error) error {
	return memory.NewError(memory.KindTransientDependency, op, cause)
}

// Rejected wraps a cause as a permanent embed failure: the embedder
// understood the request and refused it (bad input, content policy).
// Retrying will not help.
func Rejected(op string, cause error) error {
	return memory.NewError(memory.KindPermanentDependency, op, cause)
}

// Internal wraps an unexpected local failure (marshal error, corrupt
// cache entry) that is neither the remote embedder's fault nor the
// caller's.
func Internal(op string, cause error) error {
	return memory.NewError(memory.KindIntegrityViolation, op, cause)
}

// IsUnavailable reports whether err is a transient embed failure that
// callers should treat per §4.1: never fatal, degrade to lexical-only.
func IsUnavailable(err error) bool {
	return memory.IsKind(err, memory.KindTransientDependency)
}
