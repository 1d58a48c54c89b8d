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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithDeadline_ExpiresAfterTimeout(t *testing.T) {
	ctx, cancel := WithDeadline(context.Background(), 10*time.Millisecond)
	defer cancel()

	select {
	case <-ctx.Done():
		require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("context did not expire in time")
	}
}

func TestWithDeadline_CancelFuncStopsEarly(t *testing.T) {
	ctx, cancel := WithDeadline(context.Background(), DefaultTimeout)
	cancel()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
