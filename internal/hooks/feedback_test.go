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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleutian/memsearch/internal/config"
)

func TestNewFeedbackLogger_SilentSuppressesEverything(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFeedbackLogger(&buf, config.Config{FeedbackLevel: config.FeedbackSilent})
	logger.Error("should not appear")
	require.Empty(t, buf.String())
}

func TestNewFeedbackLogger_MinimalShowsWarnAndAbove(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFeedbackLogger(&buf, config.Config{FeedbackLevel: config.FeedbackMinimal})
	logger.Info("info hidden")
	logger.Warn("warn shown")
	require.NotContains(t, buf.String(), "info hidden")
	require.Contains(t, buf.String(), "warn shown")
}

func TestNewFeedbackLogger_VerboseShowsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFeedbackLogger(&buf, config.Config{FeedbackLevel: config.FeedbackVerbose})
	logger.Debug("debug shown")
	require.Contains(t, buf.String(), "debug shown")
}

func TestNewFeedbackLogger_DebugFlagOverridesSilent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFeedbackLogger(&buf, config.Config{FeedbackLevel: config.FeedbackSilent, Debug: true})
	logger.Debug("debug shown despite silent")
	require.Contains(t, buf.String(), "debug shown despite silent")
}
