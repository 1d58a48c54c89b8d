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
	"fmt"
	"io"
	"log/slog"

	"github.com/aleutian/memsearch/internal/memory"
)

// bannerWidth matches the fixed-width framing the teacher's CLI uses for
// user-visible banners.
const bannerWidth = 60

// SessionStart runs the §4.5 session-start workflow: read-and-consume the
// marker file and display its contents as a one-time banner on stderr.
// Always exits 0 — an absent marker, or a failed delete after a
// successful read, are both non-fatal per §4.5 step 3.
func SessionStart(rt Runtime, stderr io.Writer) ExitCode {
	path := memory.MarkerPath(rt.StateDir)

	content, found, delErr := ReadAndConsumeMarker(path)
	if !found {
		return ExitSuccess
	}
	if delErr != nil {
		rt.Logger.Warn("session-start: failed to delete consumed marker file", slog.String("error", delErr.Error()))
	}

	writeBanner(stderr, content)
	return ExitSuccess
}

func writeBanner(w io.Writer, content []byte) {
	border := "─"
	line := ""
	for i := 0; i < bannerWidth; i++ {
		line += border
	}
	fmt.Fprintf(w, "%s\n  Previous session summary\n%s\n%s\n%s\n", line, line, string(content), line)
}
