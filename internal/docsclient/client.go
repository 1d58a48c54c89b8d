// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package docsclient is the §4.5 pre-tool-use step 2a "remote documentation
// oracle": an external, opaque nearText lookup over a corpus of library
// documentation keyed by the detected-library terms in a tool's inputs.
// Like embedclient's HTTPRemote, it is a thin, timeout-bound wrapper; a
// failure here is always a PermanentDependency or TransientDependency
// the pre-tool-use workflow skips rather than escalates (§7).
package docsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/aleutian/memsearch/internal/memory"
	"github.com/aleutian/memsearch/internal/telemetry"
)

// DefaultTimeout is the default per-call budget (§6 *_DOCS_TIMEOUT).
const DefaultTimeout = 5 * time.Second

// DefaultClassName is the Weaviate class the docs corpus is stored under.
const DefaultClassName = "LibraryDoc"

// Snippet is one documentation hit returned for a library term.
type Snippet struct {
	Library string
	Content string
	Score   float64
}

// Client queries a Weaviate instance via nearText for documentation
// relevant to a set of library names (§6).
type Client struct {
	wv        *weaviate.Client
	className string
	timeout   time.Duration
}

// Options configures a Client.
type Options struct {
	ClassName string // defaults to DefaultClassName
	Timeout   time.Duration
}

// New constructs a Client against a running Weaviate instance at host
// (e.g. "localhost:8080") using scheme ("http" or "https").
func New(host, scheme string, opts Options) (*Client, error) {
	wv, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("docsclient: construct weaviate client: %w", err)
	}
	className := opts.ClassName
	if className == "" {
		className = DefaultClassName
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{wv: wv, className: className, timeout: timeout}, nil
}

// Lookup queries for documentation concerning the given library names,
// returning up to limit Snippets ordered by relevance. An empty libraries
// slice returns an empty result without a network call.
func (c *Client) Lookup(ctx context.Context, libraries []string, limit int) ([]Snippet, error) {
	const op = "docsclient.lookup"
	if len(libraries) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}

	ctx, span := telemetry.StartSpan(ctx, op)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	nearText := c.wv.GraphQL().NearTextArgBuilder().WithConcepts(libraries)
	resp, err := c.wv.GraphQL().Get().
		WithClassName(c.className).
		WithFields(
			graphql.Field{Name: "library"},
			graphql.Field{Name: "content"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
		).
		WithNearText(nearText).
		WithLimit(limit).
		Do(callCtx)
	if err != nil {
		return nil, memory.NewError(memory.KindTransientDependency, op, err)
	}
	if len(resp.Errors) > 0 {
		return nil, memory.NewError(memory.KindPermanentDependency, op, fmt.Errorf("%v", resp.Errors))
	}

	return parseSnippets(resp, c.className), nil
}

// parseSnippets extracts Snippets from the raw GraphQL response shape the
// Weaviate client returns: Data["Get"][className] is a []interface{} of
// map[string]interface{} objects, since GraphQL.Get() has no statically
// typed result type.
func parseSnippets(resp *models.GraphQLResponse, className string) []Snippet {
	var snippets []Snippet
	if resp == nil {
		return snippets
	}
	getField, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return snippets
	}
	rawObjects, ok := getField[className].([]interface{})
	if !ok {
		return snippets
	}

	for _, raw := range rawObjects {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		s := Snippet{}
		if v, ok := obj["library"].(string); ok {
			s.Library = v
		}
		if v, ok := obj["content"].(string); ok {
			s.Content = v
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if d, ok := additional["distance"].(float64); ok {
				s.Score = 1 - d // nearText distance: lower is closer, so invert to a relevance score
			}
		}
		snippets = append(snippets, s)
	}
	return snippets
}
