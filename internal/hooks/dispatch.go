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
	"fmt"
	"io"

	"github.com/aleutian/memsearch/internal/memory"
)

// Dispatch routes a decoded Event to its workflow and returns whatever it
// wrote to standard output (empty for every event but pre-tool-use and
// user-prompt-submit) alongside the exit code the process should use.
func Dispatch(ctx context.Context, rt Runtime, ev Event, stderr io.Writer) (string, ExitCode, error) {
	if !rt.Config.IsHookEnabled(string(ev.Name)) {
		return "", ExitSuccess, nil
	}

	switch ev.Name {
	case EventPostToolUse:
		return "", PostToolUse(ctx, rt, ev), nil
	case EventPreToolUse:
		out, code := PreToolUse(ctx, rt, ev)
		return out, code, nil
	case EventUserPromptSubmit:
		out, code := UserPromptSubmit(ctx, rt, ev)
		return out, code, nil
	case EventSessionStart:
		return "", SessionStart(rt, stderr), nil
	case EventSessionEnd:
		return "", EndSession(ctx, rt, ev, memory.SourceToolSessionEnd), nil
	case EventPreCompact:
		return "", EndSession(ctx, rt, ev, memory.SourceToolPreCompact), nil
	default:
		return "", ExitWarn, fmt.Errorf("hooks: unhandled event %q", ev.Name)
	}
}
