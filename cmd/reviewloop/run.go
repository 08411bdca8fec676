/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/fatih/color"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/reviewloop/reviewloop/config"
	"github.com/reviewloop/reviewloop/gitrepo"
	"github.com/reviewloop/reviewloop/metrics"
	"github.com/reviewloop/reviewloop/oracle"
	"github.com/reviewloop/reviewloop/prompt"
	"github.com/reviewloop/reviewloop/report"
	"github.com/reviewloop/reviewloop/review"
	"github.com/reviewloop/reviewloop/review/checkpoint"
)

const (
	commitMessage = "AI code review changes"
	prTitle       = "AI Code Review Changes"
)

// options are the command-line knobs for one invocation.
type options struct {
	configPath   string
	depth        string
	focusAreas   []string
	instructions string
	resume       bool
	dryRun       bool
}

// run reviews every repository argument, concurrently, with one shared
// oracle and checkpoint store.
func run(ctx context.Context, opts options, repoArgs []string) error {
	cfg, err := config.Load(ctx, opts.configPath)
	if err != nil {
		return err
	}
	depth, err := cfg.DepthSettings(opts.depth)
	if err != nil {
		return err
	}

	refs := make([]gitrepo.Ref, 0, len(repoArgs))
	for _, arg := range repoArgs {
		ref, err := gitrepo.ParseRef(arg)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	rec := metrics.NewReview("reviewloop")

	providers := make([]oracle.Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		provider, err := oracle.NewProvider(ctx, p.Name, oracle.Vendor(p.Vendor), p.APIKey, p.Model)
		if err != nil {
			return fmt.Errorf("configuring provider: %w", err)
		}
		providers = append(providers, provider)
	}
	orc, err := oracle.New(providers, oracle.WithMetrics(rec))
	if err != nil {
		return err
	}

	library := prompt.Default()
	if cfg.PromptLibrary != "" {
		if library, err = prompt.Load(cfg.PromptLibrary); err != nil {
			return err
		}
	}

	store := checkpoint.New(cfg.CheckpointDir)
	loop, err := review.NewLoop(orc, library, store,
		review.WithFocusAreas(opts.focusAreas),
		review.WithInstructions(opts.instructions),
		review.WithMaxTokensPerCall(depth.MaxTokensPerCall),
		review.WithMetrics(rec),
	)
	if err != nil {
		return err
	}

	creds, err := credentials(cfg)
	if err != nil {
		return err
	}
	if creds == nil && !opts.dryRun {
		return errors.New("no GitHub credentials: set GITHUB_TOKEN, configure github in the config file, or pass --dry-run")
	}

	r := &runner{
		cfg:   cfg,
		depth: depth,
		opts:  opts,
		loop:  loop,
		store: store,
		creds: creds,
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		g.Go(func() error {
			return r.reviewOne(ctx, ref)
		})
	}
	return g.Wait()
}

// credentials builds GitHub credentials from config, preferring a token
// over App auth. Nil when neither is configured.
func credentials(cfg *config.Config) (*gitrepo.Credentials, error) {
	switch {
	case cfg.GitHub.Token != "":
		return gitrepo.TokenCredentials(cfg.GitHub.Token), nil
	case cfg.GitHub.App != nil:
		return gitrepo.AppCredentials(cfg.GitHub.App.AppID, cfg.GitHub.App.InstallationID, cfg.GitHub.App.PrivateKeyPath)
	default:
		return nil, nil
	}
}

// runner carries the collaborators shared by every repository reviewed
// in one invocation.
type runner struct {
	cfg   *config.Config
	depth config.Depth
	opts  options
	loop  *review.Loop
	store *checkpoint.Store
	creds *gitrepo.Credentials
}

func (r *runner) reviewOne(ctx context.Context, ref gitrepo.Ref) error {
	log := clog.FromContext(ctx).With("repo", ref.String())
	ctx = clog.WithLogger(ctx, log)

	var tokens oauth2.TokenSource
	if r.creds != nil {
		tokens = r.creds.TokenSource()
	}
	author := gitrepo.Author{Name: r.cfg.Git.Name, Email: r.cfg.Git.Email}
	checkout, err := gitrepo.Clone(ctx, ref, tokens, author)
	if err != nil {
		return fmt.Errorf("cloning %s: %w", ref, err)
	}
	defer func() {
		if err := checkout.Cleanup(); err != nil {
			log.Warnf("Failed to clean up clone: %v", err)
		}
	}()

	s := review.NewSession(ref.String(), r.opts.depth, r.depth.TokenBudget, r.depth.MaxIterations)
	if r.opts.resume {
		record, err := r.store.Load(s.ID())
		if err != nil {
			return fmt.Errorf("loading checkpoint for %s: %w", ref, err)
		}
		if record == nil {
			log.Info("No checkpoint found, starting fresh")
		} else {
			s.Restore(record)
			log.Infof("Resuming after %s, %s tokens used",
				english.Plural(record.Iteration, "iteration", ""),
				humanize.Comma(int64(record.TokensUsed)))
		}
	} else if err := r.store.Clear(s.ID()); err != nil {
		return fmt.Errorf("clearing stale checkpoint for %s: %w", ref, err)
	}

	ws := &workspace{checkout: checkout, filters: r.cfg.Filters}
	res, err := r.loop.Run(ctx, s, ws)
	if err != nil {
		return fmt.Errorf("reviewing %s: %w", ref, err)
	}
	printOutcome(ref, res)

	return r.deliver(ctx, checkout, s, res)
}

// deliver turns a terminal result into a pull request, and decides the
// checkpoint's fate. Checkpoints survive anything resumable: early
// stops, dry runs. They are cleared once the result is delivered or
// there is nothing to deliver.
func (r *runner) deliver(ctx context.Context, checkout *gitrepo.Checkout, s *review.Session, res *review.Result) error {
	log := clog.FromContext(ctx)
	ref := checkout.Ref()

	if res.Reason != review.ReasonComplete {
		log.Infof("Review stopped early (%s); rerun with --resume to continue", res.Reason)
		return nil
	}
	if !res.Changed() {
		log.Info("Review complete with no changes")
		return r.store.Clear(s.ID())
	}
	if r.opts.dryRun {
		fmt.Fprintln(os.Stdout, report.Operations(res.ChangeLog))
		log.Info("Dry run: not pushing; rerun with --resume to turn this into a pull request")
		return nil
	}

	pushed, err := checkout.CommitAndPush(ctx, commitMessage)
	if err != nil {
		return fmt.Errorf("pushing %s: %w", ref, err)
	}
	if !pushed {
		log.Info("Working tree clean after review, nothing to push")
		return r.store.Clear(s.ID())
	}

	body := report.PullRequestBody(res.Summary, res.ChangeLog, res.Iterations, res.TokensUsed)
	url, err := gitrepo.NewHost(r.creds).UpsertPullRequest(ctx,
		ref, checkout.Branch(), checkout.DefaultBranch(), prTitle, body)
	if err != nil {
		return fmt.Errorf("opening pull request for %s: %w", ref, err)
	}

	color.New(color.FgGreen).Fprintf(os.Stdout, "%s: %s\n", ref, url)
	return r.store.Clear(s.ID())
}

// workspace adapts a Checkout to the review loop, binding the configured
// listing filters.
type workspace struct {
	checkout *gitrepo.Checkout
	filters  config.Filters
}

func (w *workspace) Root() string {
	return w.checkout.Root()
}

func (w *workspace) Structure() (map[string]any, error) {
	return w.checkout.Structure(gitrepo.ListOptions{
		Include:     w.filters.Include,
		Exclude:     w.filters.Exclude,
		MaxFileSize: w.filters.MaxFileSize,
	})
}

func (w *workspace) ReadFile(path string) (string, error) {
	return w.checkout.ReadFile(path)
}

// printOutcome writes the one-line terminal status to stdout. Green for
// a completed review, yellow for one that stopped at a limit.
func printOutcome(ref gitrepo.Ref, res *review.Result) {
	applied, failed := 0, 0
	for _, out := range res.ChangeLog {
		if out.Applied {
			applied++
		} else {
			failed++
		}
	}

	line := fmt.Sprintf("%s: %s after %s, %s tokens, %s applied",
		ref, res.Reason,
		english.Plural(res.Iterations, "iteration", ""),
		humanize.Comma(int64(res.TokensUsed)),
		english.Plural(applied, "operation", ""))
	if failed > 0 {
		line += fmt.Sprintf(", %d failed", failed)
	}

	c := color.New(color.FgGreen)
	if res.Reason != review.ReasonComplete {
		c = color.New(color.FgYellow)
	}
	c.Fprintln(os.Stdout, line)
}
