// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aleutian/memsearch/internal/memory"
)

// embedRequest is the JSON body for an /api/embed-compatible endpoint.
// Grounded on the teacher's ollamaEmbedReq shape.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the corresponding response shape.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// HTTPRemote calls an Ollama-compatible /api/embed endpoint. It implements
// Remote; Client wraps it with caching, dedup, rate limiting, and retry.
type HTTPRemote struct {
	URL    string
	Model  string
	Client *http.Client
}

// NewHTTPRemote builds an HTTPRemote. A zero http.Client is replaced with
// http.DefaultClient's transport defaults plus no client-level timeout —
// Client.Embed supplies the timeout via context instead, so a single slow
// call cannot stall the whole process beyond the configured budget.
func NewHTTPRemote(url, model string) *HTTPRemote {
	return &HTTPRemote{
		URL:    url,
		Model:  model,
		Client: &http.Client{},
	}
}

// Embed implements Remote.
func (r *HTTPRemote) Embed(ctx context.Context, text string) (memory.Vector, error) {
	body, err := json.Marshal(embedRequest{Model: r.Model, Input: text})
	if err != nil {
		return nil, Internal("embedclient.http_remote.marshal", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return nil, Internal("embedclient.http_remote.new_request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, Unavailable("embedclient.http_remote.do", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Unavailable("embedclient.http_remote.read_body", err)
	}

	if resp.StatusCode >= 500 {
		return nil, Unavailable("embedclient.http_remote.status",
			fmt.Errorf("embed service returned %d: %s", resp.StatusCode, string(respBody)))
	}
	if resp.StatusCode >= 400 {
		return nil, Rejected("embedclient.http_remote.status",
			fmt.Errorf("embed service returned %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, Unavailable("embedclient.http_remote.unmarshal", err)
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		return nil, Unavailable("embedclient.http_remote.empty", fmt.Errorf("embed service returned empty vector"))
	}

	return memory.Vector(parsed.Embeddings[0]), nil
}
