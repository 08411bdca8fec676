/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package review

import (
	"fmt"
	"slices"
	"strings"

	"github.com/reviewloop/reviewloop/fileop"
	"github.com/reviewloop/reviewloop/review/checkpoint"
)

// Session is the mutable state of one review run over one repository.
// It is restored from a checkpoint on resume and persisted after every
// iteration.
type Session struct {
	// Repo is the "owner/name" repository identifier. It keys the
	// checkpoint for the session.
	Repo string
	// Depth is the review depth name the prompts are built with.
	Depth string

	TokenBudget   int
	MaxIterations int

	Iteration  int
	TokensUsed int
	Complete   bool

	// ChangeLog records every requested operation in order, applied or
	// failed.
	ChangeLog []fileop.Outcome

	resumed bool
}

// NewSession creates a fresh session with the given ceilings.
func NewSession(repo, depth string, tokenBudget, maxIterations int) *Session {
	return &Session{
		Repo:          repo,
		Depth:         depth,
		TokenBudget:   tokenBudget,
		MaxIterations: maxIterations,
	}
}

// ID returns the checkpoint key for this session.
func (s *Session) ID() string {
	return s.Repo
}

// Record captures the session as a checkpoint record.
func (s *Session) Record() *checkpoint.Record {
	return &checkpoint.Record{
		Iteration:  s.Iteration,
		TokensUsed: s.TokensUsed,
		Complete:   s.Complete,
		Operations: slices.Clone(s.ChangeLog),
	}
}

// Restore loads checkpointed state into the session. A nil record (no
// checkpoint on disk) leaves the session untouched.
func (s *Session) Restore(r *checkpoint.Record) {
	if r == nil {
		return
	}
	s.Iteration = r.Iteration
	s.TokensUsed = r.TokensUsed
	s.Complete = r.Complete
	s.ChangeLog = slices.Clone(r.Operations)
	s.resumed = true
}

// budgetExhausted reports whether the session cannot afford another
// iteration: either the budget is already spent, or adding the average
// cost of past iterations would overrun it.
func (s *Session) budgetExhausted() bool {
	if s.TokensUsed >= s.TokenBudget {
		return true
	}
	if s.Iteration == 0 {
		return false
	}
	return s.TokensUsed+s.TokensUsed/s.Iteration > s.TokenBudget
}

// fileState renders the cumulative effect of the change log, one line
// per touched path, for the orchestrator prompt.
func (s *Session) fileState() string {
	states := map[string]string{}
	var order []string
	set := func(path, state string) {
		if _, ok := states[path]; !ok {
			order = append(order, path)
		}
		states[path] = state
	}

	for _, out := range s.ChangeLog {
		if !out.Applied {
			continue
		}
		op := out.Op
		switch op.Kind {
		case fileop.KindModify:
			set(op.Path, "modified")
		case fileop.KindDelete:
			set(op.Path, "deleted")
		case fileop.KindRename:
			set(op.Path, "renamed to "+op.NewPath)
			set(op.NewPath, "renamed from "+op.Path)
		case fileop.KindMkdir:
			set(op.Path, "directory created")
		}
	}

	if len(order) == 0 {
		return "No changes made yet."
	}
	var b strings.Builder
	for _, path := range order {
		fmt.Fprintf(&b, "%s: %s\n", path, states[path])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// changeLogText renders the full change log as a numbered list for the
// summary prompt.
func (s *Session) changeLogText() string {
	if len(s.ChangeLog) == 0 {
		return "No operations were performed."
	}
	var b strings.Builder
	for i, out := range s.ChangeLog {
		status := "applied"
		if !out.Applied {
			status = "failed: " + out.Error
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, out.Op, status)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
