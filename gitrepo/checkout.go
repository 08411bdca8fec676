/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

const (
	cloneDirPrefix = "reviewloop-clone-"
	branchPrefix   = "ai-code-review-"
	remoteName     = "origin"

	// GitHub accepts any username with a token password; this is the
	// conventional one for installation and access tokens.
	authUsername = "x-access-token"
)

// cloneURL resolves the remote URL for a Ref. Tests override this to
// point at local repositories.
var cloneURL = defaultCloneURL

func defaultCloneURL(ref Ref) string {
	return fmt.Sprintf("https://github.com/%s/%s", ref.Owner, ref.Name)
}

// Author is the commit identity for review commits.
type Author struct {
	Name  string
	Email string
}

// Checkout is one clone dedicated to one review session: a temporary
// working tree with the review branch checked out.
type Checkout struct {
	ref           Ref
	dir           string
	repo          *git.Repository
	branch        string
	defaultBranch string
	tokens        oauth2.TokenSource
	author        Author
}

// Clone clones the repository's default branch into a fresh temporary
// directory and checks out a new review branch named
// "ai-code-review-<unix-timestamp>". A nil token source clones
// anonymously, which is enough for dry runs against public
// repositories; pushing then fails until credentials are configured.
func Clone(ctx context.Context, ref Ref, tokens oauth2.TokenSource, author Author) (*Checkout, error) {
	dir, err := os.MkdirTemp("", cloneDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	remote := cloneURL(ref)
	clog.FromContext(ctx).With("repo", ref.String()).Infof("Cloning %s into %s", remote, dir)

	auth, err := basicAuth(tokens)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("getting token: %w", err)
	}

	repo, err := git.PlainClone(dir, false, &git.CloneOptions{
		URL:          remote,
		SingleBranch: true,
		Auth:         auth,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("cloning repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	c := &Checkout{
		ref:           ref,
		dir:           dir,
		repo:          repo,
		branch:        fmt.Sprintf("%s%d", branchPrefix, time.Now().Unix()),
		defaultBranch: head.Name().Short(),
		tokens:        tokens,
		author:        author,
	}
	if err := c.createReviewBranch(head.Hash()); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	clog.FromContext(ctx).Infof("Created and checked out branch %s", c.branch)
	return c, nil
}

func (c *Checkout) createReviewBranch(from plumbing.Hash) error {
	refName := plumbing.NewBranchReferenceName(c.branch)
	if err := c.repo.Storer.SetReference(plumbing.NewHashReference(refName, from)); err != nil {
		return fmt.Errorf("setting branch reference: %w", err)
	}
	worktree, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: refName}); err != nil {
		return fmt.Errorf("checking out branch: %w", err)
	}
	return nil
}

// Ref returns the repository this checkout belongs to.
func (c *Checkout) Ref() Ref {
	return c.ref
}

// Root returns the absolute path of the working tree. File operations
// are applied relative to it.
func (c *Checkout) Root() string {
	return c.dir
}

// Branch returns the review branch name.
func (c *Checkout) Branch() string {
	return c.branch
}

// DefaultBranch returns the branch the clone started from, the base for
// the pull request.
func (c *Checkout) DefaultBranch() string {
	return c.defaultBranch
}

// ReadFile returns the content of a file in the working tree. A missing
// file reads as empty, matching how an absent README is treated.
func (c *Checkout) ReadFile(path string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(c.dir, path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(raw), nil
}

// CommitAndPush stages everything, commits with the given message, and
// pushes the review branch. It reports false without committing when
// the working tree is clean.
func (c *Checkout) CommitAndPush(ctx context.Context, message string) (bool, error) {
	log := clog.FromContext(ctx).With("repo", c.ref.String(), "branch", c.branch)

	worktree, err := c.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("getting worktree status: %w", err)
	}
	if status.IsClean() {
		log.Info("No changes to commit")
		return false, nil
	}

	if c.tokens == nil {
		return false, errors.New("no GitHub credentials configured for push")
	}
	auth, err := basicAuth(c.tokens)
	if err != nil {
		return false, fmt.Errorf("getting token: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("staging changes: %w", err)
	}

	if _, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.author.Name,
			Email: c.author.Email,
			When:  time.Now(),
		},
	}); err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}

	refName := plumbing.NewBranchReferenceName(c.branch)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", refName, refName))
	log.Infof("Pushing %s", refSpec)
	if err := c.repo.Push(&git.PushOptions{
		RemoteName: remoteName,
		Auth:       auth,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			log.Info("Branch already up to date")
			return true, nil
		}
		return false, fmt.Errorf("pushing branch: %w", err)
	}
	return true, nil
}

// Cleanup removes the temporary working tree.
func (c *Checkout) Cleanup() error {
	if c.dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("removing %s: %w", c.dir, err)
	}
	c.dir = ""
	return nil
}

// basicAuth converts the token source into git basic auth. A nil source
// yields nil auth, meaning anonymous access.
func basicAuth(tokens oauth2.TokenSource) (*githttp.BasicAuth, error) {
	if tokens == nil {
		return nil, nil
	}
	token, err := tokens.Token()
	if err != nil {
		return nil, err
	}
	return &githttp.BasicAuth{
		Username: authUsername,
		Password: token.AccessToken,
	}, nil
}
