// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package keywords

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MaxPerCategory caps how many keywords extract contributes from each
// signal (file-name stems, detected language, vocabulary terms) — §4.5
// step 3: "capped at 5 each".
const MaxPerCategory = 5

// languageByExtension is a coarse file-extension to language-label table.
// Intentionally not a full polyglot parser (§9: "a coarse label is
// sufficient, not a full parser registry") — keyword extraction only needs
// a single descriptive token per file.
var languageByExtension = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".jsx":  "javascript",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".hpp":  "cpp",
	".cc":   "cpp",
	".sh":   "shell",
	".sql":  "sql",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".md":   "markdown",
}

var wordSplitter = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Extractor extracts keywords per §4.5 step 3 against a loaded Vocabulary.
type Extractor struct {
	vocab Vocabulary
	terms map[string]struct{}
}

// NewExtractor builds an Extractor over vocab. A nil/empty vocab degrades
// to file-name and language keywords only.
func NewExtractor(vocab Vocabulary) *Extractor {
	return &Extractor{vocab: vocab, terms: vocab.terms()}
}

// Extract derives the keyword set for a captured artifact: stems of
// filePath, the detected language (if any), and vocabulary terms found in
// content, each category capped at MaxPerCategory and the whole result
// normalized via memory.NormalizeKeywords by the caller.
func (e *Extractor) Extract(filePath, content string) []string {
	var out []string
	out = append(out, fileNameStems(filePath)...)
	if lang := DetectLanguage(filePath); lang != "" {
		out = append(out, lang)
	}
	out = append(out, e.vocabularyTerms(content)...)
	return out
}

// DetectLanguage maps filePath's extension to a coarse language label, or
// "" if unrecognized.
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	return languageByExtension[ext]
}

// fileNameStems splits a file's base name (sans extension) into
// word-like stems, capped at MaxPerCategory.
func fileNameStems(filePath string) []string {
	if filePath == "" {
		return nil
	}
	base := filepath.Base(filePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	parts := wordSplitter.Split(base, -1)

	var stems []string
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		stems = append(stems, p)
		if len(stems) >= MaxPerCategory {
			break
		}
	}
	return stems
}

// vocabularyTerms returns the vocabulary terms that appear as whole words
// in content, capped at MaxPerCategory. Order follows first occurrence in
// content so the cap keeps the most contextually prominent terms.
func (e *Extractor) vocabularyTerms(content string) []string {
	if len(e.terms) == 0 {
		return nil
	}
	lower := strings.ToLower(content)
	words := wordSplitter.Split(lower, -1)

	seen := make(map[string]struct{})
	var found []string
	for _, w := range words {
		if w == "" {
			continue
		}
		if _, ok := e.terms[w]; !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		found = append(found, w)
		if len(found) >= MaxPerCategory {
			break
		}
	}
	return found
}
