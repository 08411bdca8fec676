/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package parse

import "strings"

// completionToken marks a finished review when it appears anywhere in an
// orchestrator response.
const completionToken = "REVIEW_COMPLETE"

// taskMarker introduces an explicit next task in an orchestrator response.
const taskMarker = "NEXT_TASK:"

// Verdict is the parsed outcome of an orchestrator response.
type Verdict struct {
	// Complete is true when the orchestrator declared the review done.
	Complete bool
	// Task is the next review task when the review continues.
	Task string
	// Unparsed is true when no decision could be extracted. The loop
	// substitutes a generic continue-review task rather than aborting.
	Unparsed bool
}

// ParseVerdict interprets an orchestrator response. Completion is
// signaled by the REVIEW_COMPLETE token, a "STATUS: COMPLETE" field line,
// or a leading "the review is complete" sentence. Otherwise the task is
// the text after a NEXT_TASK: marker, or the whole response when no
// marker is present.
func ParseVerdict(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Verdict{Unparsed: true}
	}
	if declaresComplete(text, trimmed) {
		return Verdict{Complete: true}
	}
	if task, ok := taskAfterMarker(text); ok {
		if task == "" {
			return Verdict{Unparsed: true}
		}
		return Verdict{Task: task}
	}
	return Verdict{Task: trimmed}
}

func declaresComplete(text, trimmed string) bool {
	if strings.Contains(text, completionToken) {
		return true
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "the review is complete") {
		return true
	}
	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(strings.TrimSpace(line))
		if field, ok := strings.CutPrefix(upper, "STATUS:"); ok {
			if strings.TrimSpace(field) == "COMPLETE" {
				return true
			}
		}
	}
	return false
}

// taskAfterMarker returns everything after the first NEXT_TASK: marker,
// spanning to the end of the response.
func taskAfterMarker(text string) (string, bool) {
	_, after, ok := strings.Cut(text, taskMarker)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(after), true
}
