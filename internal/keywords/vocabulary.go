// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package keywords extracts the keyword set the ingest workflow attaches to
// a MemoryEntry (§4.5 step 3): file-name stems, a coarse language label,
// and terms drawn from a curated topic/entity vocabulary, each capped at 5.
package keywords

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// Vocabulary maps a topic category to the terms that belong to it. Loaded
// once from the embedded YAML and treated as immutable thereafter, the same
// shape as the teacher's concept-synonym loader.
type Vocabulary map[string][]string

var (
	cachedVocabulary Vocabulary
	vocabularyOnce   sync.Once
	vocabularyErr    error
)

// LoadVocabulary loads and caches the embedded topic/entity vocabulary.
func LoadVocabulary() (Vocabulary, error) {
	vocabularyOnce.Do(func() {
		var raw map[string][]string
		if err := yaml.Unmarshal(defaultVocabularyYAML, &raw); err != nil {
			vocabularyErr = fmt.Errorf("parsing vocabulary.yaml: %w", err)
			return
		}
		cachedVocabulary = raw
		slog.Debug("keyword vocabulary loaded", slog.Int("category_count", len(raw)))
	})
	return cachedVocabulary, vocabularyErr
}

// MustLoadVocabulary loads the vocabulary or returns an empty map on error,
// degrading keyword extraction to file-name/language signals only.
func MustLoadVocabulary() Vocabulary {
	v, err := LoadVocabulary()
	if err != nil {
		slog.Warn("keyword vocabulary loading failed, continuing without topic terms",
			slog.String("error", err.Error()))
		return make(Vocabulary)
	}
	return v
}

// terms flattens the vocabulary into a single lowercase set for membership
// testing against tokenized content.
func (v Vocabulary) terms() map[string]struct{} {
	out := make(map[string]struct{})
	for _, list := range v {
		for _, t := range list {
			out[strings.ToLower(t)] = struct{}{}
		}
	}
	return out
}
