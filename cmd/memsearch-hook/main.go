// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command memsearch-hook is the single short-lived entry point a host
// invokes at each lifecycle boundary (§4.5): one process per event, a
// decoded Event read from stdin, and an exit code the host interprets as
// the hook's verdict. It never stays resident between invocations.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aleutian/memsearch/internal/config"
	"github.com/aleutian/memsearch/internal/hooks"
	"github.com/aleutian/memsearch/internal/telemetry"
)

// hookRuntime is built once in the root command's PersistentPreRunE and
// shared by whichever single subcommand cobra dispatches to — a hook
// process only ever runs one event before exiting.
var hookRuntime hooks.Runtime

// storeCloser and tracerProvider hold the two resources that need
// releasing before the process exits. Each hook subcommand's RunE
// (newHookCommand) calls shutdown() itself since it ends the process with
// os.Exit, which skips deferred cleanup.
var (
	storeCloser    io.Closer
	tracerProvider *telemetry.Provider
)

func shutdown(ctx context.Context) {
	if storeCloser != nil {
		_ = storeCloser.Close()
	}
	if tracerProvider != nil {
		_ = tracerProvider.Shutdown(ctx)
	}
}

func main() {
	root := newRootCommand()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		shutdown(ctx)
		log.Fatalf("memsearch-hook: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "memsearch-hook",
		Short:         "Dispatches a single lifecycle hook event read from stdin",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("memsearch-hook: load config: %w", err)
			}

			tracerProvider = telemetry.NewProvider()

			rt, c, err := buildRuntime(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			hookRuntime = rt
			storeCloser = c
			return nil
		},
	}

	root.AddCommand(
		newHookCommand(hooks.EventPreToolUse, "Inject relevant memory context before a tool runs"),
		newHookCommand(hooks.EventPostToolUse, "Capture a completed tool invocation into memory"),
		newHookCommand(hooks.EventUserPromptSubmit, "Inject relevant memory context for a user prompt"),
		newHookCommand(hooks.EventSessionStart, "Display and consume a pending session marker"),
		newHookCommand(hooks.EventSessionEnd, "Summarize and persist the ending session"),
		newHookCommand(hooks.EventPreCompact, "Summarize and persist the session before compaction"),
	)

	return root
}
