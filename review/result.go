/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package review

import "github.com/reviewloop/reviewloop/fileop"

// Reason says why a run terminated.
type Reason string

const (
	// ReasonIterationLimit means the configured iteration ceiling was hit.
	ReasonIterationLimit Reason = "iteration-limit"
	// ReasonBudgetExhausted means the session spent, or was projected to
	// spend, more than its token budget.
	ReasonBudgetExhausted Reason = "budget-exhausted"
	// ReasonComplete means the orchestrator declared the review done.
	ReasonComplete Reason = "orchestrator-complete"
	// ReasonCheckpointFatal means session state could not be persisted.
	// The previous checkpoint is left intact.
	ReasonCheckpointFatal Reason = "fatal-checkpoint-error"
)

// Result is the terminal outcome of a run.
type Result struct {
	Reason     Reason
	Iterations int
	TokensUsed int

	// ChangeLog is the ordered record of every requested operation,
	// applied or failed.
	ChangeLog []fileop.Outcome

	// Summary is the model-written description of the changes, suitable
	// for a pull request body. Empty when nothing was changed.
	Summary string

	// ReadmeUpdated reports whether the summary step rewrote README.md.
	ReadmeUpdated bool
}

// Changed reports whether any operation applied cleanly.
func (r *Result) Changed() bool {
	for _, out := range r.ChangeLog {
		if out.Applied {
			return true
		}
	}
	return false
}
