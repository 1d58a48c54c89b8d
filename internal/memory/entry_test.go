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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeKeywords_DedupesCaseAndWhitespace(t *testing.T) {
	got := NormalizeKeywords([]string{" Go ", "go", "GO", "", "  ", "python"})
	require.Equal(t, []string{"go", "python"}, got)
}

func TestNormalizeKeywords_Empty(t *testing.T) {
	require.Empty(t, NormalizeKeywords(nil))
	require.Empty(t, NormalizeKeywords([]string{"", "  "}))
}

func TestNormalizeKeywords_Deterministic(t *testing.T) {
	a := NormalizeKeywords([]string{"zeta", "alpha", "mu"})
	b := NormalizeKeywords([]string{"mu", "zeta", "alpha"})
	require.Equal(t, a, b)
}

func TestContentType_Valid(t *testing.T) {
	require.True(t, ContentTypeCode.Valid())
	require.True(t, ContentTypeLearning.Valid())
	require.False(t, ContentType("bogus").Valid())
}

func TestNewID_Unique(t *testing.T) {
	a := NewID()
	b := NewID()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}

func TestMarkerPath(t *testing.T) {
	require.Equal(t, "/tmp/state/last_session_summary.txt", MarkerPath("/tmp/state"))
}
