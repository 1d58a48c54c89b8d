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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEvent_ValidMinimalPayload(t *testing.T) {
	r := strings.NewReader(`{"hook_event_name":"session-start","session_id":"abc","cwd":"/tmp"}`)
	ev, err := DecodeEvent(r)
	require.NoError(t, err)
	require.Equal(t, EventSessionStart, ev.Name)
	require.Equal(t, "abc", ev.SessionID)
}

func TestDecodeEvent_MissingEventNameErrors(t *testing.T) {
	r := strings.NewReader(`{"session_id":"abc","cwd":"/tmp"}`)
	_, err := DecodeEvent(r)
	require.Error(t, err)
}

func TestDecodeEvent_UnrecognizedEventNameErrors(t *testing.T) {
	r := strings.NewReader(`{"hook_event_name":"not-a-real-event","session_id":"abc","cwd":"/tmp"}`)
	_, err := DecodeEvent(r)
	require.Error(t, err)
}

func TestDecodeEvent_MissingSessionIDErrors(t *testing.T) {
	r := strings.NewReader(`{"hook_event_name":"session-start","cwd":"/tmp"}`)
	_, err := DecodeEvent(r)
	require.Error(t, err)
}

func TestDecodeEvent_MissingCWDErrors(t *testing.T) {
	r := strings.NewReader(`{"hook_event_name":"session-start","session_id":"abc"}`)
	_, err := DecodeEvent(r)
	require.Error(t, err)
}

func TestDecodeEvent_MalformedJSONErrors(t *testing.T) {
	r := strings.NewReader(`not json`)
	_, err := DecodeEvent(r)
	require.Error(t, err)
}

func TestInjectionOutput_WriteToProducesExpectedShape(t *testing.T) {
	out := NewInjectionOutput("some context")
	var buf bytes.Buffer
	require.NoError(t, out.WriteTo(&buf))
	require.JSONEq(t, `{"hookSpecificOutput":{"additionalContext":"some context"}}`, buf.String())
}

func TestEventName_Valid(t *testing.T) {
	require.True(t, EventPreToolUse.Valid())
	require.True(t, EventPostToolUse.Valid())
	require.True(t, EventUserPromptSubmit.Valid())
	require.True(t, EventSessionStart.Valid())
	require.True(t, EventSessionEnd.Valid())
	require.True(t, EventPreCompact.Valid())
	require.False(t, EventName("bogus").Valid())
}
