// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package assembler

// TokenEstimator estimates the token cost of a formatted string under
// whatever tokenizer the host assistant actually uses (§4.4: "an externally
// supplied function"). Callers running against a known model should supply
// the model's real tokenizer; CharsPerToken is the documented fallback.
type TokenEstimator func(text string) int

// charsPerTokenFallback is the §4.4 "4-characters-per-token heuristic"
// default, used when no estimator is supplied.
const charsPerTokenFallback = 4

// CharsPerToken is the fallback TokenEstimator.
func CharsPerToken(text string) int {
	if len(text) == 0 {
		return 0
	}
	n := len(text) / charsPerTokenFallback
	if n == 0 {
		n = 1
	}
	return n
}

// TruncateToTokens shortens text so that estimate(text) no longer exceeds
// budget, used only for the "no entry has yet fit" fallback (§4.4 step 4).
// Truncation is approximate: it trims by the same chars-per-token ratio the
// estimator implies, then re-checks, which converges in at most a couple of
// passes for any estimator that is roughly monotonic in length.
func TruncateToTokens(text string, budget int, estimate TokenEstimator) string {
	if budget <= 0 {
		return ""
	}
	for estimate(text) > budget && len(text) > 0 {
		keepRatio := float64(budget) / float64(estimate(text))
		newLen := int(float64(len(text)) * keepRatio * 0.95) // slight margin to ensure convergence
		if newLen >= len(text) {
			newLen = len(text) - 1
		}
		if newLen <= 0 {
			return ""
		}
		text = text[:newLen]
	}
	return text
}
