// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import "path/filepath"

// MarkerFileName is the well-known file name for the single-slot
// cross-invocation handoff artifact (§3 MarkerFile).
const MarkerFileName = "last_session_summary.txt"

// MarkerPath returns the canonical marker-file path under a state
// directory. Callers (the hooks package) are responsible for the atomic
// write/read mechanics; this just fixes the one well-known name so every
// hook agrees on where to look.
func MarkerPath(stateDir string) string {
	return filepath.Join(stateDir, MarkerFileName)
}
