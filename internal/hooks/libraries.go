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
	"regexp"
	"strings"
)

// maxLibraries bounds how many distinct libraries a single docs lookup
// requests, matching the keywords package's per-category cap so a docs
// query never dwarfs a memory query in the combined token budget.
const maxLibraries = 5

// importPatterns recognizes the handful of import-statement shapes common
// across the pack's languages. This is deliberately coarse — a full
// per-language import parser is out of scope for a keyword-level signal
// that only feeds a documentation lookup, not a build step.
var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*import\s+"([a-zA-Z0-9_.\-/]+)"`),                       // Go
	regexp.MustCompile(`(?m)^\s*import\s+([a-zA-Z0-9_.]+)`),                            // Python "import x"
	regexp.MustCompile(`(?m)^\s*from\s+([a-zA-Z0-9_.]+)\s+import`),                     // Python "from x import"
	regexp.MustCompile(`require\(\s*['"]([a-zA-Z0-9_.\-/@]+)['"]\s*\)`),                // Node require
	regexp.MustCompile(`(?m)^\s*import\s+.*\s+from\s+['"]([a-zA-Z0-9_.\-/@]+)['"]`),    // ES module
}

// detectLibraries scans content for import-like statements and returns up
// to maxLibraries distinct top-level package/module names (§4.5 step 2:
// "libraries detected in the tool inputs"). Names are grouped by the
// importPatterns entry that matched them, in that list's order, and in
// order of appearance within each group.
func detectLibraries(content string) []string {
	if content == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, pat := range importPatterns {
		for _, m := range pat.FindAllStringSubmatch(content, -1) {
			name := topLevel(m[1])
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
			if len(out) >= maxLibraries {
				return out
			}
		}
	}
	return out
}

// topLevel reduces a dotted or slash-separated import path to its leading
// segment, e.g. "golang.org/x/sync/errgroup" -> "golang.org", "os.path" ->
// "os", "./local/module" -> "" (relative imports carry no library name).
func topLevel(path string) string {
	if path == "" || path[0] == '.' {
		return ""
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}
