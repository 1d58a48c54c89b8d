// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleutian/memsearch/internal/hooks"
	"github.com/aleutian/memsearch/internal/telemetry"
)

// newHookCommand builds the subcommand for a single EventName. Every event
// reads its Event payload from stdin, dispatches it against the shared
// Runtime, and exits with the code Dispatch returns — matching §4.5's "one
// process per invocation" model rather than a long-lived server.
func newHookCommand(name hooks.EventName, short string) *cobra.Command {
	return &cobra.Command{
		Use:          string(name),
		Short:        short,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := hooks.WithDeadline(cmd.Context(), hooks.DefaultTimeout)
			defer cancel()

			_, code := dispatchHook(ctx, cmd, name)
			shutdown(ctx)
			os.Exit(int(code))
			return nil
		},
	}
}

// dispatchHook decodes the Event from stdin, runs it against hookRuntime,
// and writes any injection output to stdout. It never calls os.Exit itself
// so tests can drive it with a throwaway Runtime and inspect the result.
func dispatchHook(ctx context.Context, cmd *cobra.Command, name hooks.EventName) (string, hooks.ExitCode) {
	ev, err := hooks.DecodeEvent(cmd.InOrStdin())
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return "", hooks.ExitWarn
	}
	if ev.Name != name {
		fmt.Fprintf(cmd.ErrOrStderr(), "memsearch-hook: %s: stdin event name %q does not match invoked subcommand\n", name, ev.Name)
		return "", hooks.ExitWarn
	}

	start := time.Now()
	out, code, err := hooks.Dispatch(ctx, hookRuntime, ev, cmd.ErrOrStderr())
	telemetry.HookLatency.WithLabelValues(string(name), fmt.Sprintf("%d", code)).Observe(time.Since(start).Seconds())
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	if out != "" {
		if werr := hooks.NewInjectionOutput(out).WriteTo(cmd.OutOrStdout()); werr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), werr)
			return "", hooks.ExitWarn
		}
	}
	return out, code
}
