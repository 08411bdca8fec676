/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/dustin/go-humanize/english"
	"github.com/reviewloop/reviewloop/fileop"
	"github.com/reviewloop/reviewloop/oracle"
	"github.com/reviewloop/reviewloop/parse"
	"github.com/reviewloop/reviewloop/prompt"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const readmePath = "README.md"

// maxDiffChars caps each per-file diff handed to the summary prompt.
const maxDiffChars = 4000

// summarize runs the closing change-analysis call: it diffs the tree
// against the pre-review listing, asks the model for a change summary,
// and applies any README update the model proposes. Failures degrade to
// a mechanical summary built from the change log.
func (l *Loop) summarize(ctx context.Context, s *Session, ws Workspace, original map[string]any) (string, bool) {
	log := clog.FromContext(ctx).With("repo", s.Repo)

	current, err := ws.Structure()
	if err != nil {
		log.Warnf("Listing changed tree: %v", err)
		return mechanicalSummary(s.ChangeLog), false
	}
	readme, err := ws.ReadFile(readmePath)
	if err != nil {
		log.Warnf("Reading README: %v", err)
	}

	system, user, err := l.library.SummaryPrompt(prompt.SummaryInput{
		OriginalStructure: original,
		NewStructure:      current,
		CleanedChanges:    cleanedChanges(original, current),
		ChangeLog:         s.changeLogText(),
		OriginalReadme:    readme,
	})
	if err != nil {
		log.Warnf("Building summary prompt: %v", err)
		return mechanicalSummary(s.ChangeLog), false
	}

	completion, err := l.oracle.Complete(ctx, oracle.Request{
		System:    system,
		User:      user,
		MaxTokens: l.maxPerCall,
	})
	if err != nil {
		log.Warnf("Summary call failed, using the change log instead: %v", err)
		return mechanicalSummary(s.ChangeLog), false
	}
	s.TokensUsed += completion.TokensUsed

	sum, err := parse.ParseSummary(completion.Text)
	if err != nil {
		log.Warnf("Summary response unusable, using the change log instead: %v", err)
		return mechanicalSummary(s.ChangeLog), false
	}

	readmeUpdated := false
	if sum.ReadmeContent != "" {
		op := fileop.Modify(readmePath, parse.NormalizeContent(sum.ReadmeContent))
		if err := fileop.Apply(ws.Root(), op); err != nil {
			log.Warnf("Applying README update: %v", err)
			s.ChangeLog = append(s.ChangeLog, fileop.Failed(op, err))
		} else {
			log.Info("Updated README.md from the review summary")
			s.ChangeLog = append(s.ChangeLog, fileop.Succeeded(op))
			readmeUpdated = true
		}
		if err := l.checkpoints.Save(s.ID(), s.Record()); err != nil {
			log.Warnf("Checkpointing README update: %v", err)
		}
	}
	return sum.ChangeSummary, readmeUpdated
}

// mechanicalSummary renders the applied operations directly when the
// model could not provide a narrative summary.
func mechanicalSummary(changeLog []fileop.Outcome) string {
	applied := make([]string, 0, len(changeLog))
	for _, out := range changeLog {
		if out.Applied {
			applied = append(applied, out.Op.String())
		}
	}
	if len(applied) == 0 {
		return ""
	}
	return fmt.Sprintf("Automated code review applied %s:\n- %s",
		english.Plural(len(applied), "change", ""),
		strings.Join(applied, "\n- "))
}

// cleanedChanges computes per-file line diffs between the tree listings
// taken before and after the review, keyed by path.
func cleanedChanges(before, after map[string]any) map[string]string {
	old := map[string]string{}
	flattenFiles(before, "", old)
	cur := map[string]string{}
	flattenFiles(after, "", cur)

	changes := map[string]string{}
	dmp := diffmatchpatch.New()
	for path, content := range cur {
		prev, existed := old[path]
		switch {
		case !existed:
			changes[path] = "(new file)\n" + truncateDiff(content)
		case prev != content:
			changes[path] = truncateDiff(lineDiff(dmp, prev, content))
		}
	}
	for path := range old {
		if _, ok := cur[path]; !ok {
			changes[path] = "(file removed)"
		}
	}
	return changes
}

// flattenFiles maps slash paths to contents for every file leaf of a
// structure listing. Elision placeholders are skipped since they carry
// no diffable content.
func flattenFiles(tree map[string]any, prefix string, files map[string]string) {
	for name, node := range tree {
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		switch v := node.(type) {
		case map[string]any:
			flattenFiles(v, path, files)
		case string:
			if strings.HasPrefix(v, "<<<") && strings.HasSuffix(v, ">>>") {
				continue
			}
			files[path] = v
		}
	}
}

// lineDiff renders a +/- line diff, dropping unchanged regions.
func lineDiff(dmp *diffmatchpatch.DiffMatchPatch, before, after string) string {
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func truncateDiff(s string) string {
	if len(s) <= maxDiffChars {
		return s
	}
	return s[:maxDiffChars] + "\n... (truncated)"
}
