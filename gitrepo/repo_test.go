/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCheckoutLifecycle(t *testing.T) {
	ctx := context.Background()

	originDir := initOriginRepo(t)

	cloneURL = func(Ref) string { return originDir }
	t.Cleanup(func() { cloneURL = defaultCloneURL })

	author := Author{Name: "AI Code Review", Email: "review@example.com"}
	co, err := Clone(ctx, Ref{Owner: "tests", Name: "demo"}, staticTokenSource(""), author)
	require.NoError(t, err, "clone from local origin")
	t.Cleanup(func() { co.Cleanup() })

	if !strings.HasPrefix(co.Branch(), branchPrefix) {
		t.Errorf("Branch() = %q, wanted %q prefix", co.Branch(), branchPrefix)
	}
	if got, want := co.DefaultBranch(), "master"; got != want {
		t.Errorf("DefaultBranch() = %q, wanted %q", got, want)
	}
	if co.Root() == originDir {
		t.Fatalf("expected working dir to differ from origin")
	}

	if got, err := co.ReadFile("README.md"); err != nil || got != "# Demo\n" {
		t.Errorf("ReadFile(README.md) = %q, %v, wanted %q, nil", got, err, "# Demo\n")
	}
	if got, err := co.ReadFile("missing.txt"); err != nil || got != "" {
		t.Errorf("ReadFile(missing.txt) = %q, %v, wanted empty, nil", got, err)
	}

	pushed, err := co.CommitAndPush(ctx, "AI code review changes")
	require.NoError(t, err, "push with a clean tree")
	if pushed {
		t.Errorf("CommitAndPush on clean tree = true, wanted false")
	}

	notes := filepath.Join(co.Root(), "NOTES.md")
	require.NoError(t, os.WriteFile(notes, []byte("reviewed\n"), 0o644))

	pushed, err = co.CommitAndPush(ctx, "AI code review changes")
	require.NoError(t, err, "push with a dirty tree")
	if !pushed {
		t.Errorf("CommitAndPush = false, wanted true")
	}

	originRepo, err := git.PlainOpen(originDir)
	require.NoError(t, err)
	ref, err := originRepo.Reference(plumbing.NewBranchReferenceName(co.Branch()), true)
	require.NoError(t, err, "review branch on origin")
	commit, err := originRepo.CommitObject(ref.Hash())
	require.NoError(t, err)
	if got, want := commit.Message, "AI code review changes"; got != want {
		t.Errorf("commit message = %q, wanted %q", got, want)
	}
	if got, want := commit.Author.Name, author.Name; got != want {
		t.Errorf("commit author = %q, wanted %q", got, want)
	}

	root := co.Root()
	require.NoError(t, co.Cleanup())
	if _, err := os.Stat(root); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected working dir removed, got err=%v", err)
	}
}

// TestCloneAnonymous covers the credential-free path: cloning works,
// pushing does not.
func TestCloneAnonymous(t *testing.T) {
	ctx := context.Background()

	originDir := initOriginRepo(t)

	cloneURL = func(Ref) string { return originDir }
	t.Cleanup(func() { cloneURL = defaultCloneURL })

	co, err := Clone(ctx, Ref{Owner: "tests", Name: "demo"}, nil, Author{Name: "AI", Email: "ai@example.com"})
	require.NoError(t, err, "anonymous clone from local origin")
	t.Cleanup(func() { co.Cleanup() })

	require.NoError(t, os.WriteFile(filepath.Join(co.Root(), "NOTES.md"), []byte("reviewed\n"), 0o644))

	if _, err := co.CommitAndPush(ctx, "AI code review changes"); err == nil {
		t.Fatal("CommitAndPush without credentials succeeded, wanted error")
	}
}

func initOriginRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err, "init origin repo")

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Demo\n"), 0o644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "initial commit")

	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))))

	return dir
}

type staticTokenSource string

func (s staticTokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: string(s)}, nil
}
