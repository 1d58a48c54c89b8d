// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config reads the §6 environment variable table into a single
// immutable snapshot at process start. A hook process never re-reads the
// environment after this point (§5 "Configuration (environment): read at
// hook start; process-local snapshot; never mutated").
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aleutian/memsearch/internal/memory"
)

// knownHookNames lists the event names MEMSEARCH_HOOK_<NAME> recognizes.
// Kept as plain strings (not hooks.EventName) so this package never
// imports internal/hooks — hooks.Runtime embeds a Config, so the
// dependency can only run one way.
var knownHookNames = []string{
	"pre-tool-use",
	"post-tool-use",
	"user-prompt-submit",
	"session-start",
	"session-end",
	"pre-compact",
}

// Prefix is the common prefix for every recognized environment variable.
const Prefix = "MEMSEARCH"

// FeedbackLevel controls stderr verbosity (§6).
type FeedbackLevel string

// Recognized FeedbackLevel values.
const (
	FeedbackSilent  FeedbackLevel = "silent"
	FeedbackMinimal FeedbackLevel = "minimal"
	FeedbackVerbose FeedbackLevel = "verbose"
)

// Config is the process-wide, immutable snapshot of §6's environment
// variable table. Build one with Load at process start and pass it down;
// nothing in this package re-reads os.Getenv afterward.
type Config struct {
	HooksEnabled bool
	// HookEnabled holds the per-hook on/off override, keyed by the event
	// name string (e.g. "post-tool-use"). A missing key means "not
	// overridden"; IsHookEnabled applies the default.
	HookEnabled map[string]bool

	FeedbackLevel FeedbackLevel
	Debug         bool

	DBPath      string
	ProjectRoot string
	StateDir    string
	VectorDim   int

	EmbeddingCacheEnabled bool
	EmbeddingCacheSize    int
	EmbedURL              string
	EmbedModel            string

	DocsHost   string
	DocsScheme string

	ContextMaxTokens          int
	ContextRelevanceThreshold float64

	MCPTimeout  time.Duration
	DBTimeout   time.Duration
	DocsTimeout time.Duration
}

// Defaults matching §6's stated behavior where a variable is unset.
const (
	DefaultEmbeddingCacheSize        = 1000
	DefaultContextMaxTokens          = 4000
	DefaultContextRelevanceThreshold = 0.0
	DefaultMCPTimeout                = 10 * time.Second
	DefaultDBTimeout                 = 5 * time.Second
	DefaultDocsTimeout               = 5 * time.Second

	// DefaultVectorDim, DefaultEmbedURL, DefaultEmbedModel, DefaultDocsHost,
	// and DefaultDocsScheme are not named by §6's table — they configure
	// the concrete embedder/docs-oracle endpoints the hook process dials,
	// which spec.md leaves as "opaque RPC with a timeout". Defaults follow
	// the teacher's own Ollama endpoint/model convention
	// (ToolEmbeddingCache's "http://host.containers.internal:11434/api/embed"
	// and "nomic-embed-text-v2-moe").
	DefaultVectorDim  = 768
	DefaultEmbedURL   = "http://host.containers.internal:11434/api/embed"
	DefaultEmbedModel = "nomic-embed-text-v2-moe"
	DefaultDocsHost   = "localhost:8080"
	DefaultDocsScheme = "http"
	DefaultStateDir   = ".memsearch/state"
)

// Load reads the process environment once and returns the snapshot. It
// never returns a KindUserInput error for a missing variable — every
// variable is optional with a documented default — but a present,
// malformed value (e.g. a non-numeric timeout) is reported so the caller
// can fail the hook loudly rather than silently run on a nonsense value.
func Load() (Config, error) {
	const op = "config.load"

	cfg := Config{
		HooksEnabled:              getBool(envName("HOOKS_ENABLED"), true),
		HookEnabled:               loadHookOverrides(),
		FeedbackLevel:             parseFeedbackLevel(os.Getenv(envName("FEEDBACK_LEVEL"))),
		Debug:                     getBool(envName("DEBUG"), false),
		DBPath:                    os.Getenv(envName("DB_PATH")),
		ProjectRoot:               os.Getenv(envName("PROJECT_ROOT")),
		StateDir:                  getString(envName("STATE_DIR"), DefaultStateDir),
		EmbeddingCacheEnabled:     getBool(envName("EMBEDDING_CACHE_ENABLED"), true),
		EmbedURL:                 getString(envName("EMBED_URL"), DefaultEmbedURL),
		EmbedModel:                getString(envName("EMBED_MODEL"), DefaultEmbedModel),
		DocsHost:                  getString(envName("DOCS_HOST"), DefaultDocsHost),
		DocsScheme:                getString(envName("DOCS_SCHEME"), DefaultDocsScheme),
		ContextRelevanceThreshold: DefaultContextRelevanceThreshold,
	}

	var err error
	if cfg.EmbeddingCacheSize, err = getInt(envName("EMBEDDING_CACHE_SIZE"), DefaultEmbeddingCacheSize); err != nil {
		return Config{}, memory.NewError(memory.KindUserInput, op, err)
	}
	if cfg.VectorDim, err = getInt(envName("VECTOR_DIM"), DefaultVectorDim); err != nil {
		return Config{}, memory.NewError(memory.KindUserInput, op, err)
	}
	if cfg.ContextMaxTokens, err = getInt(envName("CONTEXT_MAX_TOKENS"), DefaultContextMaxTokens); err != nil {
		return Config{}, memory.NewError(memory.KindUserInput, op, err)
	}
	if cfg.ContextRelevanceThreshold, err = getFloat(envName("CONTEXT_RELEVANCE_THRESHOLD"), DefaultContextRelevanceThreshold); err != nil {
		return Config{}, memory.NewError(memory.KindUserInput, op, err)
	}
	if cfg.MCPTimeout, err = getSeconds(envName("MCP_TIMEOUT"), DefaultMCPTimeout); err != nil {
		return Config{}, memory.NewError(memory.KindUserInput, op, err)
	}
	if cfg.DBTimeout, err = getSeconds(envName("DB_TIMEOUT"), DefaultDBTimeout); err != nil {
		return Config{}, memory.NewError(memory.KindUserInput, op, err)
	}
	if cfg.DocsTimeout, err = getSeconds(envName("DOCS_TIMEOUT"), DefaultDocsTimeout); err != nil {
		return Config{}, memory.NewError(memory.KindUserInput, op, err)
	}

	return cfg, nil
}

// IsHookEnabled applies the §6 default ("on") when a hook has no explicit
// per-hook override, honoring the global kill switch first. name is the
// event name string (e.g. "post-tool-use"); callers in internal/hooks pass
// string(hooks.EventName).
func (c Config) IsHookEnabled(name string) bool {
	if !c.HooksEnabled {
		return false
	}
	if v, ok := c.HookEnabled[name]; ok {
		return v
	}
	return true
}

// envName builds the fully-qualified MEMSEARCH_<suffix> variable name.
func envName(suffix string) string {
	return Prefix + "_" + suffix
}

// loadHookOverrides scans MEMSEARCH_HOOK_<NAME> for every known event name.
func loadHookOverrides() map[string]bool {
	overrides := make(map[string]bool, len(knownHookNames))
	for _, name := range knownHookNames {
		envSuffix := "HOOK_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if raw, ok := os.LookupEnv(envName(envSuffix)); ok {
			overrides[name] = parseBool(raw, true)
		}
	}
	return overrides
}

func parseFeedbackLevel(raw string) FeedbackLevel {
	switch FeedbackLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case FeedbackSilent:
		return FeedbackSilent
	case FeedbackVerbose:
		return FeedbackVerbose
	default:
		return FeedbackMinimal
	}
}

func getBool(name string, def bool) bool {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	return parseBool(raw, def)
}

func parseBool(raw string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func getString(name, def string) string {
	if raw, ok := os.LookupEnv(name); ok && strings.TrimSpace(raw) != "" {
		return raw
	}
	return def
}

func getInt(name string, def int) (int, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", name, raw, err)
	}
	return v, nil
}

func getFloat(name string, def float64) (float64, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid float %q: %w", name, raw, err)
	}
	return v, nil
}

func getSeconds(name string, def time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid seconds %q: %w", name, raw, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
