/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package oracle

// EstimateTokens approximates the token count of text at four characters
// per token, a reasonable average for English prose and source code. The
// review loop uses it to decide whether the budget can pay for a call
// before sending it, and the Oracle falls back to it when a provider does
// not report usage.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateRequest approximates the prompt-side token cost of req.
func EstimateRequest(req Request) int {
	return EstimateTokens(req.System) + EstimateTokens(req.User)
}
