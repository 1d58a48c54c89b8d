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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aleutian/memsearch/internal/assembler"
	"github.com/aleutian/memsearch/internal/config"
	"github.com/aleutian/memsearch/internal/docsclient"
	"github.com/aleutian/memsearch/internal/embedclient"
	"github.com/aleutian/memsearch/internal/hooks"
	"github.com/aleutian/memsearch/internal/keywords"
	"github.com/aleutian/memsearch/internal/resourcemonitor"
	"github.com/aleutian/memsearch/internal/search"
	"github.com/aleutian/memsearch/internal/storage"
)

// buildRuntime wires every concrete dependency behind hooks.Runtime from a
// loaded Config. It never fails the process outright for an optional
// dependency (docs oracle, resource monitor, persistent embed cache) —
// only the database, which every workflow needs, is fatal to construct.
func buildRuntime(cfg config.Config, stderr io.Writer) (hooks.Runtime, io.Closer, error) {
	logger := hooks.NewFeedbackLogger(stderr, cfg)

	projectRoot := cfg.ProjectRoot
	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return hooks.Runtime{}, nil, fmt.Errorf("memsearch-hook: determine project root: %w", err)
		}
		projectRoot = wd
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(projectRoot, ".memsearch", "memory.db")
	}
	validPath, err := storage.ValidateDBPath(projectRoot, dbPath)
	if err != nil {
		return hooks.Runtime{}, nil, fmt.Errorf("memsearch-hook: validate db path: %w", err)
	}

	store, err := storage.Open(storage.Config{Path: validPath, VectorDim: cfg.VectorDim, BusyTimeout: cfg.DBTimeout})
	if err != nil {
		return hooks.Runtime{}, nil, fmt.Errorf("memsearch-hook: open store: %w", err)
	}

	var embedder *embedclient.Client
	if cfg.EmbeddingCacheEnabled {
		remote := embedclient.NewHTTPRemote(cfg.EmbedURL, cfg.EmbedModel)
		var persistent *embedclient.PersistentStore
		if cfg.StateDir != "" {
			if ps, perr := embedclient.OpenPersistentStore(filepath.Join(cfg.StateDir, "embed-cache"), embedclient.DefaultPersistentTTL); perr == nil {
				persistent = ps
			} else {
				logger.Warn("memsearch-hook: persistent embed cache unavailable, continuing hot-only", slog.String("error", perr.Error()))
			}
		}
		embedder, err = embedclient.New(remote, embedclient.Options{
			CacheSize:  cfg.EmbeddingCacheSize,
			Persistent: persistent,
			Timeout:    cfg.MCPTimeout,
			Logger:     logger,
		})
		if err != nil {
			logger.Warn("memsearch-hook: embedding client unavailable, running lexical-only", slog.String("error", err.Error()))
			embedder = nil
		}
	}

	engine := search.New(store, embedder, search.DefaultWeights(), logger)
	asm := assembler.New(engine, nil)

	vocab, err := keywords.LoadVocabulary()
	if err != nil {
		logger.Warn("memsearch-hook: vocabulary load failed, extracting without it", slog.String("error", err.Error()))
	}
	extractor := keywords.NewExtractor(vocab)

	var docs *docsclient.Client
	if cfg.DocsHost != "" {
		if d, derr := docsclient.New(cfg.DocsHost, cfg.DocsScheme, docsclient.Options{Timeout: cfg.DocsTimeout}); derr == nil {
			docs = d
		} else {
			logger.Warn("memsearch-hook: docs oracle unavailable", slog.String("error", derr.Error()))
		}
	}

	rt := hooks.Runtime{
		Store:     store,
		Assembler: asm,
		Extractor: extractor,
		Config:    cfg,
		StateDir:  cfg.StateDir,
		ModelID:   cfg.EmbedModel,
		Logger:    logger,
	}
	// Assigning only when non-nil avoids boxing a typed nil *embedclient.Client
	// into the Embedder interface, which would make rt.Embedder == nil false
	// even though no embedder was actually constructed.
	if embedder != nil {
		rt.Embedder = embedder
	}
	if docs != nil {
		rt.Docs = docs
	}
	rt.Resources = resourcemonitor.New()

	return hooks.NewRuntime(rt), store, nil
}
