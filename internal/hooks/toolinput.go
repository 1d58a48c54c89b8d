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
	"encoding/json"
	"path/filepath"
	"strings"
)

// toolKind classifies a host tool name into the routing categories
// §4.5 step 2 names, independent of exact host tool-name spelling.
type toolKind int

const (
	toolKindOther toolKind = iota
	toolKindFileWrite
	toolKindShell
	toolKindFileRead
	toolKindTodo
)

// classifyTool maps a host tool_name to its routing category. Matching is
// case-insensitive since hosts are not guaranteed to share one casing
// convention (§1: the host's tool surface is out of this module's scope).
func classifyTool(toolName string) toolKind {
	switch strings.ToLower(toolName) {
	case "write", "edit", "multiedit", "multi-edit":
		return toolKindFileWrite
	case "bash", "shell", "exec":
		return toolKindShell
	case "read":
		return toolKindFileRead
	case "todowrite", "todo-write", "todo":
		return toolKindTodo
	default:
		return toolKindOther
	}
}

// noiseCommands are shell invocations too trivial to be worth capturing
// (§4.5 step 2: "not in a noise-command denylist like ls/pwd/cat").
var noiseCommands = map[string]bool{
	"ls": true, "pwd": true, "cat": true, "echo": true,
	"cd": true, "clear": true, "true": true, "false": true,
	"whoami": true, "date": true,
}

// minShellOutputLength is the §4.5 step 2 "output length >= threshold" for
// the shell-command capture filter. Not named as a number by the spec text;
// recorded here as this module's open choice.
const minShellOutputLength = 40

// sourceDocExtensions is the read-path allowlist (§4.5 step 2: "allowlist
// of source-doc extensions"). Not named as a concrete list by the spec
// text; chosen to cover source code and prose documentation.
var sourceDocExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".rs": true, ".java": true, ".rb": true, ".c": true, ".h": true, ".cpp": true,
	".md": true, ".rst": true, ".txt": true, ".yaml": true, ".yml": true, ".json": true,
	".sql": true, ".sh": true,
}

// deniedReadDirs are path segments that mark a denylisted directory for
// the read-path filter (§4.5 step 2: "denylisted directory (e.g.,
// dependency caches)").
var deniedReadDirs = map[string]bool{
	"node_modules": true, "vendor": true, ".git": true, "dist": true,
	"build": true, ".venv": true, "__pycache__": true, "target": true,
}

// toolPayload is the loosely-typed shape tool_input/tool_response take
// across host tools. Only the fields relevant to ingest routing are
// declared; the host's full schema is out of this module's scope (§1).
type toolPayload struct {
	FilePath string `json:"file_path"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	NewText  string `json:"new_string"`
	Command  string `json:"command"`
	Output   string `json:"output"`
	Stdout   string `json:"stdout"`
}

func decodeToolPayload(raw json.RawMessage) toolPayload {
	var p toolPayload
	if len(raw) == 0 {
		return p
	}
	_ = json.Unmarshal(raw, &p)
	return p
}

func (p toolPayload) filePath() string {
	if p.FilePath != "" {
		return p.FilePath
	}
	return p.Path
}

func (p toolPayload) writtenContent() string {
	if p.Content != "" {
		return p.Content
	}
	return p.NewText
}

func (p toolPayload) shellOutput() string {
	if p.Output != "" {
		return p.Output
	}
	return p.Stdout
}

// shouldCaptureShell applies the §4.5 step 2 shell-command filter.
func shouldCaptureShell(command, output string) bool {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) < minShellOutputLength {
		return false
	}
	firstWord := strings.Fields(strings.TrimSpace(command))
	if len(firstWord) == 0 {
		return false
	}
	base := filepath.Base(firstWord[0])
	return !noiseCommands[base]
}

// shouldCaptureRead applies the §4.5 step 2 read-path filter.
func shouldCaptureRead(path string) bool {
	if path == "" {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !sourceDocExtensions[ext] {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if deniedReadDirs[seg] {
			return false
		}
	}
	return true
}
