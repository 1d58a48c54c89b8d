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

import "github.com/aleutian/memsearch/internal/memory"

// ExitCode is one of the three policies §4.5 recognizes. Unlike a raw int,
// the named constants keep every workflow's return path self-documenting
// about which host behavior it triggers.
type ExitCode int

const (
	// ExitSuccess — proceed normally.
	ExitSuccess ExitCode = 0
	// ExitWarn — non-blocking failure; host shows a warning and proceeds.
	// The default for any internal error (§4.5).
	ExitWarn ExitCode = 1
	// ExitBlock — blocking failure; host aborts the operation. Reserved
	// for Security violations; never used for dependency outages (§4.5).
	ExitBlock ExitCode = 2
)

// ExitCodeFor maps an error's Kind to the exit-code policy §7's
// propagation table prescribes. A nil error is ExitSuccess.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if memory.IsKind(err, memory.KindSecurity) {
		return ExitBlock
	}
	return ExitWarn
}
