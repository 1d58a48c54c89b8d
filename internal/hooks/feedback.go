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
	"io"
	"log/slog"
	"math"

	"github.com/aleutian/memsearch/internal/config"
)

// levelSilent is above slog's built-in levels so a "silent" feedback
// level suppresses every record, including Error.
const levelSilent = slog.Level(math.MaxInt)

// NewFeedbackLogger builds the stderr logger a hook process uses for its
// entire run, filtering by the configured feedback level (§7) via
// slog.HandlerOptions.Level rather than hand-rolled fmt.Fprintln gating.
// *_DEBUG always widens the floor to slog.LevelDebug regardless of
// FeedbackLevel, matching §6's "enables per-hook debug logs" independent
// of the three-way verbosity knob.
func NewFeedbackLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level := feedbackToLevel(cfg.FeedbackLevel)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func feedbackToLevel(fl config.FeedbackLevel) slog.Level {
	switch fl {
	case config.FeedbackSilent:
		return levelSilent
	case config.FeedbackVerbose:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}
