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
	"log/slog"
	"time"

	"github.com/aleutian/memsearch/internal/assembler"
	"github.com/aleutian/memsearch/internal/config"
	"github.com/aleutian/memsearch/internal/docsclient"
	"github.com/aleutian/memsearch/internal/keywords"
	"github.com/aleutian/memsearch/internal/memory"
	"github.com/aleutian/memsearch/internal/resourcemonitor"
)

// Searcher is the subset of search.Engine a workflow needs, narrowed so
// tests can stub it without a real store.
type Searcher = assembler.Searcher

// Storer is the subset of storage.Store the ingest and summary workflows
// depend on, narrowed to ease testing with a stub.
type Storer interface {
	Insert(ctx context.Context, entry memory.Entry, vec memory.Vector, modelID string) error
	ScanRecent(ctx context.Context, since time.Time, limit int) ([]memory.Entry, error)
}

// Embedder is the subset of embedclient.Client the ingest workflow needs.
type Embedder interface {
	Embed(ctx context.Context, text string) (memory.Vector, error)
}

// DocsOracle is the subset of docsclient.Client the pre-tool-use and
// user-prompt-submit workflows need.
type DocsOracle interface {
	Lookup(ctx context.Context, libraries []string, limit int) ([]docsclient.Snippet, error)
}

// ResourceGate is the subset of resourcemonitor.Monitor pre-tool-use
// consults before running the optional injection step (§9 Open Question).
type ResourceGate interface {
	Check(ctx context.Context) (resourcemonitor.Reading, error)
}

// Runtime bundles every dependency a hook workflow touches, constructed
// once in cmd/memsearch-hook's main and passed down explicitly — replacing
// the source's ambient-global client pattern (§9 "Ambient globals").
type Runtime struct {
	Store     Storer
	Assembler *assembler.Assembler
	Embedder  Embedder
	Docs      DocsOracle
	Resources ResourceGate
	Extractor *keywords.Extractor
	Config    config.Config
	StateDir  string
	ModelID   string
	Logger    *slog.Logger
}

// NewRuntime validates nothing beyond filling in a default logger; every
// field is expected to already be constructed by main().
func NewRuntime(rt Runtime) Runtime {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	return rt
}
