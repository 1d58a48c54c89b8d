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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aleutian/memsearch/internal/embedclient"
	"github.com/aleutian/memsearch/internal/memory"
	"github.com/aleutian/memsearch/internal/telemetry"
)

// errSkipIngest signals that the routing step decided this tool invocation
// carries nothing worth capturing (§4.5 step 2's per-tool filters). It is
// not an error condition — PostToolUse treats it as a normal, successful
// no-op.
var errSkipIngest = errors.New("hooks: nothing to ingest for this tool invocation")

// PostToolUse runs the §4.5 ingest workflow: route by tool, derive
// content_type/keywords, embed (best-effort), and insert atomically.
func PostToolUse(ctx context.Context, rt Runtime, ev Event) ExitCode {
	start := contentType(ev.ToolName)
	const op = "hooks.post_tool_use"

	entry, err := route(ev)
	if errors.Is(err, errSkipIngest) {
		return ExitSuccess
	}
	if err != nil {
		rt.Logger.Warn("post-tool-use: routing failed", slog.String("error", err.Error()))
		telemetry.IngestTotal.WithLabelValues(string(start), "false").Inc()
		return ExitWarn
	}

	entry.ID = memory.NewID()
	entry.CreatedAt = time.Now()
	entry.Keywords = memory.NormalizeKeywords(rt.Extractor.Extract(entry.FilePath, entry.Content))

	vec, embedded := tryEmbed(ctx, rt, entry.Content)

	if err := rt.Store.Insert(ctx, entry, vec, rt.ModelID); err != nil {
		rt.Logger.Warn("post-tool-use: insert failed", slog.String("error", err.Error()), slog.String("op", op))
		telemetry.IngestTotal.WithLabelValues(string(entry.ContentType), fmt.Sprint(embedded)).Inc()
		return ExitCodeFor(err)
	}

	telemetry.IngestTotal.WithLabelValues(string(entry.ContentType), fmt.Sprint(embedded)).Inc()
	return ExitSuccess
}

// contentType reports the content_type a tool's captured artifact would
// receive, used only to label a routing-failure metric before route()
// commits to a concrete Entry.
func contentType(toolName string) memory.ContentType {
	switch classifyTool(toolName) {
	case toolKindFileWrite:
		return memory.ContentTypeCode
	case toolKindShell:
		return memory.ContentTypeOutput
	case toolKindFileRead:
		return memory.ContentTypeDocumentation
	case toolKindTodo:
		return memory.ContentTypeDecision
	default:
		return memory.ContentTypeContext
	}
}

// route applies §4.5 step 2's per-tool capture rules and returns the
// not-yet-embedded Entry to persist, or errSkipIngest if this invocation
// has nothing worth capturing.
func route(ev Event) (memory.Entry, error) {
	in := decodeToolPayload(ev.ToolInput)
	out := decodeToolPayload(ev.ToolResponse)

	switch classifyTool(ev.ToolName) {
	case toolKindFileWrite:
		content := in.writtenContent()
		if content == "" {
			content = out.writtenContent()
		}
		return memory.Entry{
			Content:     content,
			ContentType: memory.ContentTypeCode,
			SourceTool:  sourceToolFor(ev.ToolName),
			FilePath:    in.filePath(),
		}, nil

	case toolKindShell:
		output := out.shellOutput()
		if !shouldCaptureShell(in.Command, output) {
			return memory.Entry{}, errSkipIngest
		}
		return memory.Entry{
			Content:     output,
			ContentType: memory.ContentTypeOutput,
			SourceTool:  memory.SourceToolBash,
			FilePath:    fmt.Sprintf("bash_output/%s.txt", commandSlug(in.Command)),
		}, nil

	case toolKindFileRead:
		path := in.filePath()
		if !shouldCaptureRead(path) {
			return memory.Entry{}, errSkipIngest
		}
		return memory.Entry{
			Content:     out.writtenContent(),
			ContentType: memory.ContentTypeDocumentation,
			SourceTool:  memory.SourceToolRead,
			FilePath:    path,
		}, nil

	case toolKindTodo:
		return memory.Entry{
			Content:     out.writtenContent(),
			ContentType: memory.ContentTypeDecision,
			SourceTool:  memory.SourceToolTodoWrite,
			FilePath:    "todo/" + ev.SessionID + ".json",
		}, nil

	default:
		return memory.Entry{}, errSkipIngest
	}
}

func sourceToolFor(toolName string) memory.SourceTool {
	switch {
	case strings.EqualFold(toolName, "edit"), strings.EqualFold(toolName, "multiedit"), strings.EqualFold(toolName, "multi-edit"):
		return memory.SourceToolEdit
	default:
		return memory.SourceToolWrite
	}
}

func commandSlug(command string) string {
	out := make([]byte, 0, len(command))
	for i := 0; i < len(command) && i < 32; i++ {
		c := command[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "cmd"
	}
	return string(out)
}

// tryEmbed acquires embedding rate-limit capacity non-blockingly and
// embeds content best-effort (§4.5 step 4): a skipped or failed embed
// never blocks ingest, only leaves the entry lexically searchable.
func tryEmbed(ctx context.Context, rt Runtime, content string) (memory.Vector, bool) {
	if rt.Embedder == nil || content == "" {
		return nil, false
	}
	vec, err := rt.Embedder.Embed(ctx, content)
	if err != nil {
		if !embedclient.IsUnavailable(err) {
			rt.Logger.Warn("post-tool-use: embed failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	return vec, true
}
