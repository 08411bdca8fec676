/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package review_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reviewloop/reviewloop/fileop"
	"github.com/reviewloop/reviewloop/oracle"
	"github.com/reviewloop/reviewloop/prompt"
	"github.com/reviewloop/reviewloop/review"
	"github.com/reviewloop/reviewloop/review/checkpoint"
)

// step is one scripted oracle response.
type step struct {
	text   string
	tokens int
	err    error
}

// fakeOracle replays scripted steps in order and records every request.
// When the script runs out it declares the review complete so the loop
// always terminates.
type fakeOracle struct {
	steps []step
	calls []oracle.Request
}

func (f *fakeOracle) Complete(_ context.Context, req oracle.Request) (*oracle.Completion, error) {
	f.calls = append(f.calls, req)
	if len(f.steps) == 0 {
		return &oracle.Completion{Text: "REVIEW_COMPLETE", Provider: "fake", TokensUsed: 10}, nil
	}
	st := f.steps[0]
	f.steps = f.steps[1:]
	if st.err != nil {
		return nil, st.err
	}
	return &oracle.Completion{Text: st.text, Provider: "fake", TokensUsed: st.tokens}, nil
}

// dirWorkspace is a Workspace over a plain directory.
type dirWorkspace struct {
	root string
}

func (w *dirWorkspace) Root() string { return w.root }

func (w *dirWorkspace) Structure() (map[string]any, error) {
	tree := map[string]any{}
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == w.root || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		node := tree
		parts := strings.Split(filepath.ToSlash(rel), "/")
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = string(raw)
		return nil
	})
	return tree, err
}

func (w *dirWorkspace) ReadFile(path string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(w.root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(raw), nil
}

// failingStore rejects every save.
type failingStore struct {
	err error
}

func (f failingStore) Save(string, *checkpoint.Record) error { return f.err }

func newTestWorkspace(t *testing.T) *dirWorkspace {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return &dirWorkspace{root: root}
}

func newTestLoop(t *testing.T, f *fakeOracle, store review.Checkpointer, opts ...review.Option) *review.Loop {
	t.Helper()
	loop, err := review.NewLoop(f, prompt.Default(), store, opts...)
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	return loop
}

func TestRunCompletesWithoutSubAgentCall(t *testing.T) {
	t.Parallel()

	f := &fakeOracle{steps: []step{
		{text: "STATUS: COMPLETE\nNEXT_ACTION: none", tokens: 50},
	}}
	store := checkpoint.New(t.TempDir())
	loop := newTestLoop(t, f, store)

	s := review.NewSession("octocat/demo", "balanced", 10_000, 5)
	res, err := loop.Run(context.Background(), s, newTestWorkspace(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Reason != review.ReasonComplete {
		t.Errorf("Reason = %q, wanted %q", res.Reason, review.ReasonComplete)
	}
	if len(f.calls) != 1 {
		t.Errorf("oracle calls = %d, wanted 1 (no sub-agent call)", len(f.calls))
	}
	if res.Iterations != 0 {
		t.Errorf("Iterations = %d, wanted 0", res.Iterations)
	}

	rec, err := store.Load(s.ID())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec == nil || !rec.Complete {
		t.Errorf("checkpoint = %+v, wanted Complete=true", rec)
	}
}

func TestRunStopsAtIterationLimit(t *testing.T) {
	t.Parallel()

	var steps []step
	for range 3 {
		steps = append(steps,
			step{text: "NEXT_TASK: tidy up the code", tokens: 20},
			step{text: "Nothing to change for this task.", tokens: 20},
		)
	}
	f := &fakeOracle{steps: steps}
	store := checkpoint.New(t.TempDir())
	loop := newTestLoop(t, f, store)

	s := review.NewSession("octocat/demo", "balanced", 1_000_000, 3)
	res, err := loop.Run(context.Background(), s, newTestWorkspace(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Reason != review.ReasonIterationLimit {
		t.Errorf("Reason = %q, wanted %q", res.Reason, review.ReasonIterationLimit)
	}
	if res.Iterations != 3 {
		t.Errorf("Iterations = %d, wanted 3", res.Iterations)
	}
	if len(f.calls) != 6 {
		t.Errorf("oracle calls = %d, wanted 6", len(f.calls))
	}

	rec, err := store.Load(s.ID())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec == nil || rec.Iteration != 3 {
		t.Errorf("checkpoint = %+v, wanted Iteration=3", rec)
	}
}

func TestRunProjectsBudgetBeforeIterating(t *testing.T) {
	t.Parallel()

	f := &fakeOracle{steps: []step{
		{text: "NEXT_TASK: look at error handling", tokens: 300},
		{text: "No operations needed.", tokens: 300},
	}}
	store := checkpoint.New(t.TempDir())
	loop := newTestLoop(t, f, store)

	// One iteration costs 600 of a 1000 budget: 600 < 1000, but the
	// projected 1200 for a second iteration overruns, so the loop must
	// stop without another oracle call.
	s := review.NewSession("octocat/demo", "balanced", 1000, 10)
	res, err := loop.Run(context.Background(), s, newTestWorkspace(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Reason != review.ReasonBudgetExhausted {
		t.Errorf("Reason = %q, wanted %q", res.Reason, review.ReasonBudgetExhausted)
	}
	if res.Iterations != 1 {
		t.Errorf("Iterations = %d, wanted 1", res.Iterations)
	}
	if res.TokensUsed != 600 {
		t.Errorf("TokensUsed = %d, wanted 600", res.TokensUsed)
	}
	if len(f.calls) != 2 {
		t.Fatalf("oracle calls = %d, wanted 2", len(f.calls))
	}

	// Per-call ceilings clamp to the remaining budget.
	if got, want := f.calls[0].MaxTokens, 1000; got != want {
		t.Errorf("first call MaxTokens = %d, wanted %d", got, want)
	}
	if got, want := f.calls[1].MaxTokens, 700; got != want {
		t.Errorf("second call MaxTokens = %d, wanted %d", got, want)
	}
}

func TestRunAppliesOperationsInDocumentOrder(t *testing.T) {
	t.Parallel()

	subResponse := strings.Join([]string{
		"MODIFY: src/scratch.txt",
		"<FILE_CONTENT>",
		"temporary",
		"</FILE_CONTENT>",
		"DELETE: src/scratch.txt",
	}, "\n")

	f := &fakeOracle{steps: []step{
		{text: "NEXT_TASK: create and remove a scratch file", tokens: 30},
		{text: subResponse, tokens: 30},
		{text: "REVIEW_COMPLETE", tokens: 10},
		{text: "SUMMARY:\nCreated and removed a scratch file.\nREADME_UPDATES:\nNONE", tokens: 40},
	}}
	store := checkpoint.New(t.TempDir())
	loop := newTestLoop(t, f, store)

	ws := newTestWorkspace(t)
	s := review.NewSession("octocat/demo", "balanced", 100_000, 5)
	res, err := loop.Run(context.Background(), s, ws)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Reason != review.ReasonComplete {
		t.Errorf("Reason = %q, wanted %q", res.Reason, review.ReasonComplete)
	}
	if _, err := os.Stat(filepath.Join(ws.Root(), "src", "scratch.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("scratch.txt should be absent after modify then delete, got err=%v", err)
	}

	if len(res.ChangeLog) != 2 {
		t.Fatalf("ChangeLog has %d entries, wanted 2", len(res.ChangeLog))
	}
	if got := res.ChangeLog[0].Op.Kind; got != fileop.KindModify {
		t.Errorf("first op = %q, wanted %q", got, fileop.KindModify)
	}
	if got := res.ChangeLog[1].Op.Kind; got != fileop.KindDelete {
		t.Errorf("second op = %q, wanted %q", got, fileop.KindDelete)
	}
	for i, out := range res.ChangeLog {
		if !out.Applied {
			t.Errorf("ChangeLog[%d] = %+v, wanted applied", i, out)
		}
	}

	if got, want := res.Summary, "Created and removed a scratch file."; got != want {
		t.Errorf("Summary = %q, wanted %q", got, want)
	}
}

func TestRunRecoversFromUnusableOrchestratorTurns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		first step
	}{{
		name:  "empty response",
		first: step{text: "   ", tokens: 5},
	}, {
		name:  "oracle error",
		first: step{err: errors.New("provider melted down")},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			f := &fakeOracle{steps: []step{
				test.first,
				{text: "No operations needed.", tokens: 10},
			}}
			store := checkpoint.New(t.TempDir())
			loop := newTestLoop(t, f, store)

			s := review.NewSession("octocat/demo", "balanced", 100_000, 5)
			res, err := loop.Run(context.Background(), s, newTestWorkspace(t))
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			// The loop substitutes a generic task, runs the sub-agent,
			// then the scripted default completes the review.
			if res.Reason != review.ReasonComplete {
				t.Errorf("Reason = %q, wanted %q", res.Reason, review.ReasonComplete)
			}
			if res.Iterations != 1 {
				t.Errorf("Iterations = %d, wanted 1", res.Iterations)
			}
			if len(f.calls) < 2 {
				t.Fatalf("oracle calls = %d, wanted sub-agent call after bad orchestrator turn", len(f.calls))
			}
			if !strings.Contains(f.calls[1].User, "Continue reviewing the repository") {
				t.Errorf("sub-agent task = %q, wanted the generic continue-review task", f.calls[1].User)
			}
		})
	}
}

func TestRunCheckpointFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := &fakeOracle{steps: []step{
		{text: "NEXT_TASK: tidy", tokens: 10},
		{text: "No operations needed.", tokens: 10},
	}}
	loop := newTestLoop(t, f, failingStore{err: errors.New("disk full")})

	s := review.NewSession("octocat/demo", "balanced", 100_000, 5)
	res, err := loop.Run(context.Background(), s, newTestWorkspace(t))
	if err == nil {
		t.Fatalf("Run succeeded, wanted checkpoint error")
	}
	if !strings.Contains(err.Error(), "saving checkpoint") {
		t.Errorf("error = %v, wanted checkpoint save failure", err)
	}
	if res == nil || res.Reason != review.ReasonCheckpointFatal {
		t.Errorf("result = %+v, wanted Reason=%q", res, review.ReasonCheckpointFatal)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeOracle{}
	loop := newTestLoop(t, f, checkpoint.New(t.TempDir()))

	s := review.NewSession("octocat/demo", "balanced", 100_000, 5)
	res, err := loop.Run(ctx, s, newTestWorkspace(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, wanted context.Canceled", err)
	}
	if res != nil {
		t.Errorf("result = %+v, wanted nil", res)
	}
	if len(f.calls) != 0 {
		t.Errorf("oracle calls = %d, wanted 0", len(f.calls))
	}
}

func TestRunResumeReplaysChangeLog(t *testing.T) {
	t.Parallel()

	f := &fakeOracle{steps: []step{
		{text: "REVIEW_COMPLETE", tokens: 10},
		{text: "SUMMARY:\nCarried forward earlier cleanups.\nREADME_UPDATES:\nNONE", tokens: 20},
	}}
	store := checkpoint.New(t.TempDir())
	loop := newTestLoop(t, f, store)

	ws := newTestWorkspace(t)
	s := review.NewSession("octocat/demo", "balanced", 100_000, 5)
	s.Restore(&checkpoint.Record{
		Iteration:  1,
		TokensUsed: 100,
		Operations: []fileop.Outcome{
			fileop.Succeeded(fileop.Modify("notes.md", "from checkpoint\n")),
		},
	})

	res, err := loop.Run(context.Background(), s, ws)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(ws.Root(), "notes.md"))
	if err != nil {
		t.Fatalf("replayed file missing: %v", err)
	}
	if string(raw) != "from checkpoint\n" {
		t.Errorf("replayed content = %q, wanted %q", raw, "from checkpoint\n")
	}

	if res.Reason != review.ReasonComplete {
		t.Errorf("Reason = %q, wanted %q", res.Reason, review.ReasonComplete)
	}
	if res.Iterations != 1 {
		t.Errorf("Iterations = %d, wanted the restored 1", res.Iterations)
	}
	if len(f.calls) == 0 || !strings.Contains(f.calls[0].User, "Resumed a previous review session") {
		t.Errorf("orchestrator prompt should mention the resumed session")
	}
}

func TestRunAppliesReadmeUpdateFromSummary(t *testing.T) {
	t.Parallel()

	subResponse := strings.Join([]string{
		"MODIFY: src/util.go",
		"<FILE_CONTENT>",
		"package util",
		"</FILE_CONTENT>",
	}, "\n")

	f := &fakeOracle{steps: []step{
		{text: "NEXT_TASK: extract helpers", tokens: 30},
		{text: subResponse, tokens: 30},
		{text: "REVIEW_COMPLETE", tokens: 10},
		{text: "SUMMARY:\nExtracted helpers into a util package.\nREADME_UPDATES:\n# Demo\n\nNow with a util package.", tokens: 40},
	}}
	store := checkpoint.New(t.TempDir())
	loop := newTestLoop(t, f, store)

	ws := newTestWorkspace(t)
	s := review.NewSession("octocat/demo", "balanced", 100_000, 5)
	res, err := loop.Run(context.Background(), s, ws)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !res.ReadmeUpdated {
		t.Errorf("ReadmeUpdated = false, wanted true")
	}
	raw, err := os.ReadFile(filepath.Join(ws.Root(), "README.md"))
	if err != nil {
		t.Fatalf("README.md missing: %v", err)
	}
	if got, want := string(raw), "# Demo\n\nNow with a util package.\n"; got != want {
		t.Errorf("README.md = %q, wanted %q", got, want)
	}

	last := res.ChangeLog[len(res.ChangeLog)-1]
	if last.Op.Kind != fileop.KindModify || last.Op.Path != "README.md" || !last.Applied {
		t.Errorf("last change log entry = %+v, wanted applied README.md modify", last)
	}
}
