/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package review

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/dustin/go-humanize/english"
	"github.com/reviewloop/reviewloop/fileop"
	"github.com/reviewloop/reviewloop/metrics"
	"github.com/reviewloop/reviewloop/oracle"
	"github.com/reviewloop/reviewloop/parse"
	"github.com/reviewloop/reviewloop/prompt"
	"github.com/reviewloop/reviewloop/review/checkpoint"
)

const defaultMaxTokensPerCall = 8192

// genericTask keeps the review moving when an orchestrator response
// cannot be interpreted or the call itself failed.
const genericTask = "Continue reviewing the repository and improve whatever most needs attention."

// Completer is the completion surface the loop calls. *oracle.Oracle
// implements it.
type Completer interface {
	Complete(ctx context.Context, req oracle.Request) (*oracle.Completion, error)
}

// Workspace is the checked-out repository a session works in.
type Workspace interface {
	// Root is the absolute path of the working tree. Operations are
	// applied relative to it.
	Root() string
	// Structure lists the tree as nested maps for prompt binding.
	Structure() (map[string]any, error)
	// ReadFile returns a file's content, or "" when it does not exist.
	ReadFile(path string) (string, error)
}

// Checkpointer persists session records between iterations.
type Checkpointer interface {
	Save(id string, r *checkpoint.Record) error
}

// Loop drives review sessions. One Loop can run many sessions; all the
// per-run state lives in the Session.
type Loop struct {
	oracle      Completer
	library     *prompt.Library
	checkpoints Checkpointer
	metrics     *metrics.Review

	focusAreas   []string
	instructions string
	maxPerCall   int
}

// Option configures a Loop.
type Option func(*Loop)

// WithFocusAreas restricts the review to the named focus areas. Names
// must be keys of the prompt library's focus table.
func WithFocusAreas(areas []string) Option {
	return func(l *Loop) {
		l.focusAreas = areas
	}
}

// WithInstructions adds free-form user instructions to every
// orchestrator prompt.
func WithInstructions(text string) Option {
	return func(l *Loop) {
		l.instructions = text
	}
}

// WithMaxTokensPerCall caps the completion length requested from the
// oracle on any single call.
func WithMaxTokensPerCall(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxPerCall = n
		}
	}
}

// WithMetrics overrides the metrics recorder.
func WithMetrics(m *metrics.Review) Option {
	return func(l *Loop) {
		if m != nil {
			l.metrics = m
		}
	}
}

// NewLoop creates a review loop over the given collaborators.
func NewLoop(completer Completer, library *prompt.Library, checkpoints Checkpointer, opts ...Option) (*Loop, error) {
	switch {
	case completer == nil:
		return nil, errors.New("completer cannot be nil")
	case library == nil:
		return nil, errors.New("prompt library cannot be nil")
	case checkpoints == nil:
		return nil, errors.New("checkpoint store cannot be nil")
	}
	l := &Loop{
		oracle:      completer,
		library:     library,
		checkpoints: checkpoints,
		metrics:     metrics.NewReview("reviewloop"),
		maxPerCall:  defaultMaxTokensPerCall,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Run executes the session to a terminal state. Cancellation is honored
// at iteration boundaries and surfaces as the context's error. On a
// checkpoint save failure Run returns the partial result with
// ReasonCheckpointFatal alongside the error; the previously saved
// checkpoint is left intact.
func (l *Loop) Run(ctx context.Context, s *Session, ws Workspace) (*Result, error) {
	log := clog.FromContext(ctx).With("repo", s.Repo, "depth", s.Depth)

	structure, err := ws.Structure()
	if err != nil {
		return nil, fmt.Errorf("listing repository structure: %w", err)
	}

	var history []string
	if s.resumed {
		l.replay(ctx, ws.Root(), s.ChangeLog)
		if s.Iteration > 0 {
			history = append(history, fmt.Sprintf(
				"Resumed a previous review session: %s done, %s recorded so far.",
				english.Plural(s.Iteration, "iteration", ""),
				english.Plural(len(s.ChangeLog), "operation", "")))
		}
	}

	for !s.Complete {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Iteration >= s.MaxIterations {
			log.Infof("Stopping after %d iterations: iteration limit reached", s.Iteration)
			return l.finish(ctx, s, ws, structure, ReasonIterationLimit)
		}
		if s.budgetExhausted() {
			log.Infof("Stopping at %d of %d tokens: budget exhausted", s.TokensUsed, s.TokenBudget)
			return l.finish(ctx, s, ws, structure, ReasonBudgetExhausted)
		}

		verdict, err := l.orchestrate(ctx, s, structure, history)
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			// Abandon the partial iteration; the boundary check above
			// surfaces the cancellation.
			continue
		}
		if verdict.Complete {
			log.Info("Orchestrator declared the review complete")
			s.Complete = true
			if err := l.checkpoints.Save(s.ID(), s.Record()); err != nil {
				return l.partial(s, ReasonCheckpointFatal), fmt.Errorf("saving checkpoint: %w", err)
			}
			break
		}

		history = append(history, l.runTask(ctx, s, ws, structure, verdict.Task))

		s.Iteration++
		l.metrics.RecordIteration(ctx, s.Repo)
		if err := l.checkpoints.Save(s.ID(), s.Record()); err != nil {
			return l.partial(s, ReasonCheckpointFatal), fmt.Errorf("saving checkpoint: %w", err)
		}
		log.With("iteration", s.Iteration).With("tokens", s.TokensUsed).Info("Iteration checkpointed")
	}

	return l.finish(ctx, s, ws, structure, ReasonComplete)
}

// orchestrate asks the orchestrator for the next verdict. Oracle
// failures and unusable responses degrade to a generic continue-review
// task; only prompt construction problems are returned as errors.
func (l *Loop) orchestrate(ctx context.Context, s *Session, structure map[string]any, history []string) (parse.Verdict, error) {
	log := clog.FromContext(ctx)

	system, user, err := l.library.OrchestratorPrompt(prompt.OrchestratorInput{
		Structure:              structure,
		Depth:                  s.Depth,
		FocusAreas:             l.focusAreas,
		PreviousResults:        renderHistory(history),
		AdditionalInstructions: l.instructions,
		FileState:              s.fileState(),
	})
	if err != nil {
		return parse.Verdict{}, fmt.Errorf("building orchestrator prompt: %w", err)
	}

	completion, err := l.oracle.Complete(ctx, oracle.Request{
		System:    system,
		User:      user,
		MaxTokens: l.maxTokens(s),
	})
	if err != nil {
		log.Warnf("Orchestrator call failed, continuing with a generic task: %v", err)
		return parse.Verdict{Task: genericTask}, nil
	}
	s.TokensUsed += completion.TokensUsed

	verdict := parse.ParseVerdict(completion.Text)
	if verdict.Unparsed {
		log.Warn("Orchestrator response had no usable verdict, continuing with a generic task")
		return parse.Verdict{Task: genericTask}, nil
	}
	return verdict, nil
}

// runTask executes one sub-agent task: request operations, parse them,
// and apply them in document order. Failed operations are recorded and
// do not block the rest of the batch. The returned line feeds the next
// orchestrator prompt's history.
func (l *Loop) runTask(ctx context.Context, s *Session, ws Workspace, structure map[string]any, task string) string {
	log := clog.FromContext(ctx).With("task", task)

	system, user, err := l.library.SubAgentPrompt(task, structure)
	if err != nil {
		log.Warnf("Building sub-agent prompt: %v", err)
		return task + " (prompt construction failed)"
	}

	completion, err := l.oracle.Complete(ctx, oracle.Request{
		System:    system,
		User:      user,
		MaxTokens: l.maxTokens(s),
	})
	if err != nil {
		log.Warnf("Sub-agent call failed, no operations this iteration: %v", err)
		return task + " (no response)"
	}
	s.TokensUsed += completion.TokensUsed

	ops, warnings := parse.ParseOperations(completion.Text)
	for _, w := range warnings {
		log.Warnf("Skipping malformed operation: %s", w)
	}

	applied := 0
	for _, op := range ops {
		if err := fileop.Apply(ws.Root(), op); err != nil {
			log.Warnf("Operation %s failed: %v", op, err)
			s.ChangeLog = append(s.ChangeLog, fileop.Failed(op, err))
			l.metrics.RecordOperation(ctx, string(op.Kind), false)
			continue
		}
		s.ChangeLog = append(s.ChangeLog, fileop.Succeeded(op))
		l.metrics.RecordOperation(ctx, string(op.Kind), true)
		applied++
	}
	log.With("operations", len(ops)).With("applied", applied).Info("Task executed")
	return fmt.Sprintf("%s (%d operations, %d applied)", task, len(ops), applied)
}

// replay re-applies the applied operations of a restored change log so
// a fresh clone matches the checkpointed state.
func (l *Loop) replay(ctx context.Context, root string, changeLog []fileop.Outcome) {
	log := clog.FromContext(ctx)
	replayed := 0
	for _, out := range changeLog {
		if !out.Applied {
			continue
		}
		if err := fileop.Apply(root, out.Op); err != nil {
			log.Warnf("Replaying %s: %v", out.Op, err)
			continue
		}
		replayed++
	}
	if replayed > 0 {
		log.Infof("Replayed %d operations from the checkpoint", replayed)
	}
}

// finish builds the terminal result, running the summary step when the
// session changed anything.
func (l *Loop) finish(ctx context.Context, s *Session, ws Workspace, structure map[string]any, reason Reason) (*Result, error) {
	res := l.partial(s, reason)
	if !res.Changed() {
		return res, nil
	}
	res.Summary, res.ReadmeUpdated = l.summarize(ctx, s, ws, structure)
	res.TokensUsed = s.TokensUsed
	res.ChangeLog = slices.Clone(s.ChangeLog)
	return res, nil
}

func (l *Loop) partial(s *Session, reason Reason) *Result {
	return &Result{
		Reason:     reason,
		Iterations: s.Iteration,
		TokensUsed: s.TokensUsed,
		ChangeLog:  slices.Clone(s.ChangeLog),
	}
}

// maxTokens clamps the per-call completion ceiling to what remains of
// the session budget.
func (l *Loop) maxTokens(s *Session) int {
	if remaining := s.TokenBudget - s.TokensUsed; remaining > 0 && remaining < l.maxPerCall {
		return remaining
	}
	return l.maxPerCall
}

func renderHistory(history []string) string {
	if len(history) == 0 {
		return "None. This is the first iteration."
	}
	var b strings.Builder
	for i, h := range history {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
