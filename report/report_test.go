/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package report_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/reviewloop/reviewloop/fileop"
	"github.com/reviewloop/reviewloop/report"
)

func TestOperationsEmpty(t *testing.T) {
	t.Parallel()

	got := report.Operations(nil)
	if got != "No file operations were performed." {
		t.Errorf("Operations(nil) = %q, wanted the empty-log sentence", got)
	}
}

func TestOperationsRendersEveryOutcome(t *testing.T) {
	t.Parallel()

	changeLog := []fileop.Outcome{
		fileop.Succeeded(fileop.Modify("src/main.go", "package main\n")),
		fileop.Succeeded(fileop.Rename("docs/old.md", "docs/new.md")),
		fileop.Failed(fileop.Delete("missing.txt"), errors.New("file not found")),
	}

	got := report.Operations(changeLog)
	for _, want := range []string{
		"Operation", "Path", "Status",
		"modify", "src/main.go",
		"rename", "docs/old.md -> docs/new.md",
		"delete", "missing.txt", "failed: file not found",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Operations output missing %q:\n%s", want, got)
		}
	}

	// One header row, one separator, one row per outcome.
	if lines := strings.Split(got, "\n"); len(lines) != 5 {
		t.Errorf("Operations output has %d lines, wanted 5:\n%s", len(lines), got)
	}

	// Table rows keep the change log's order.
	if strings.Index(got, "modify") > strings.Index(got, "rename") {
		t.Errorf("rows out of order:\n%s", got)
	}
}

func TestPullRequestBody(t *testing.T) {
	t.Parallel()

	changeLog := []fileop.Outcome{
		fileop.Succeeded(fileop.Modify("README.md", "# Demo\n")),
	}

	got := report.PullRequestBody("Tidied up the README.", changeLog, 3, 12345)
	for _, want := range []string{
		"Tidied up the README.",
		"## Operations",
		"README.md",
		"3 iterations",
		"12,345 tokens",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("PullRequestBody missing %q:\n%s", want, got)
		}
	}
}

func TestPullRequestBodyWithoutSummary(t *testing.T) {
	t.Parallel()

	got := report.PullRequestBody("", nil, 1, 100)
	if !strings.HasPrefix(got, "## Operations") {
		t.Errorf("body without summary should start with the operations section:\n%s", got)
	}
	if !strings.Contains(got, "1 iteration,") {
		t.Errorf("body should pluralize a single iteration correctly:\n%s", got)
	}
}
