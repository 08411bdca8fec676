/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements reviewloop, a command-line tool that drives an
// iterative AI code review over GitHub repositories, applies the
// suggested file operations on a dedicated branch, and opens a pull
// request with the result.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var opts options
	var logLevel string

	cmd := &cobra.Command{
		Use:   "reviewloop [flags] owner/repo...",
		Short: "Automated AI code review for GitHub repositories",
		Long: `Reviewloop clones each repository, runs an orchestrated AI review over
it, applies the suggested file operations on a review branch, and opens
(or refreshes) a pull request with the result.

Progress is checkpointed after every iteration, so an interrupted or
budget-limited run can be continued later with --resume.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := withLogger(cmd.Context(), logLevel)
			if err != nil {
				return err
			}
			return run(ctx, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file")
	flags.StringVar(&opts.depth, "depth", "balanced", "review depth (minimum, balanced, comprehensive)")
	flags.StringSliceVar(&opts.focusAreas, "focus", nil, "restrict the review to the named focus areas")
	flags.StringVar(&opts.instructions, "instructions", "", "additional instructions for the reviewer")
	flags.BoolVar(&opts.resume, "resume", false, "continue from the last checkpoint instead of starting fresh")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "review without committing, pushing, or opening a pull request")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

// withLogger installs a text logger on stderr at the given level.
// Console status goes to stdout, so the streams stay separable.
func withLogger(ctx context.Context, level string) (context.Context, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	return clog.WithLogger(ctx, logger), nil
}
