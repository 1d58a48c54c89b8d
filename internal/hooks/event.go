// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hooks implements the short-lived, single-shot workflows a host
// invokes at lifecycle boundaries (§4.5): one process per invocation,
// state carried only through the storage layer, the marker file, and a
// process-local environment snapshot.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
)

// EventName is the closed set of lifecycle triggers a hook process can be
// invoked for (§4.5 event taxonomy). Replaces the source's duck-typed event
// dictionary with a tagged sum type decoded once at the process boundary.
type EventName string

const (
	EventPreToolUse       EventName = "pre-tool-use"
	EventPostToolUse      EventName = "post-tool-use"
	EventUserPromptSubmit EventName = "user-prompt-submit"
	EventSessionStart     EventName = "session-start"
	EventSessionEnd       EventName = "session-end"
	EventPreCompact       EventName = "pre-compact"
)

// Valid reports whether n is a recognized EventName.
func (n EventName) Valid() bool {
	switch n {
	case EventPreToolUse, EventPostToolUse, EventUserPromptSubmit,
		EventSessionStart, EventSessionEnd, EventPreCompact:
		return true
	default:
		return false
	}
}

// Event is the decoded form of the single JSON object a hook process reads
// from standard input (§6 "Hook invocation protocol"). Event-specific
// fields are populated only for the events that use them; callers switch
// on Name before reading them.
type Event struct {
	Name         EventName       `json:"hook_event_name"`
	SessionID    string          `json:"session_id"`
	CWD          string          `json:"cwd"`
	ToolName     string          `json:"tool_name,omitempty"`
	ToolInput    json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse json.RawMessage `json:"tool_response,omitempty"`
	UserPrompt   string          `json:"user_prompt,omitempty"`
}

// DecodeEvent reads and validates a single Event from r. A malformed
// payload or missing required field is a KindUserInput condition (§7),
// which callers surface as exit code 1 per §4.5's "default for any
// internal error" (user-input is not one of the exit-2 Security cases).
func DecodeEvent(r io.Reader) (Event, error) {
	var ev Event
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return Event{}, fmt.Errorf("decode hook event: %w", err)
	}
	if ev.Name == "" {
		return Event{}, fmt.Errorf("decode hook event: missing hook_event_name")
	}
	if !ev.Name.Valid() {
		return Event{}, fmt.Errorf("decode hook event: unrecognized hook_event_name %q", ev.Name)
	}
	if ev.SessionID == "" {
		return Event{}, fmt.Errorf("decode hook event: missing session_id")
	}
	if ev.CWD == "" {
		return Event{}, fmt.Errorf("decode hook event: missing cwd")
	}
	return ev, nil
}

// InjectionOutput is the only shape a hook ever writes to standard output
// (§6): a structured context block the host prepends to its next
// reasoning step. Hooks that have nothing to inject write nothing.
type InjectionOutput struct {
	HookSpecificOutput struct {
		AdditionalContext string `json:"additionalContext"`
	} `json:"hookSpecificOutput"`
}

// NewInjectionOutput wraps a context block in the wire shape §6 names.
func NewInjectionOutput(context string) InjectionOutput {
	var out InjectionOutput
	out.HookSpecificOutput.AdditionalContext = context
	return out
}

// WriteTo encodes out as a single JSON object to w.
func (out InjectionOutput) WriteTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(out)
}
