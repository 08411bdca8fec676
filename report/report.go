/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/reviewloop/reviewloop/fileop"
)

// Operations renders the change log as a Markdown table, one row per
// requested operation in order. An empty change log renders as a short
// sentence instead of an empty table.
func Operations(changeLog []fileop.Outcome) string {
	if len(changeLog) == 0 {
		return "No file operations were performed."
	}

	var buf bytes.Buffer
	table := newMarkdownTable([]string{"Operation", "Path", "Status"}, &buf)
	for _, out := range changeLog {
		path := out.Op.Path
		if out.Op.Kind == fileop.KindRename {
			path = out.Op.Path + " -> " + out.Op.NewPath
		}
		status := "applied"
		if !out.Applied {
			status = "failed: " + out.Error
		}
		_ = table.Append([]string{string(out.Op.Kind), path, status})
	}
	_ = table.Render()
	return strings.TrimRight(buf.String(), "\n")
}

// PullRequestBody assembles the pull request description: the
// model-written summary, the operation table, and a footer with the
// run's iteration and token counts.
func PullRequestBody(summary string, changeLog []fileop.Outcome, iterations, tokensUsed int) string {
	var b strings.Builder
	if summary = strings.TrimSpace(summary); summary != "" {
		b.WriteString(summary)
		b.WriteString("\n\n")
	}
	b.WriteString("## Operations\n\n")
	b.WriteString(Operations(changeLog))
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "Automated review: %s, %s tokens.\n",
		english.Plural(iterations, "iteration", ""),
		humanize.Comma(int64(tokensUsed)))
	return b.String()
}

// newMarkdownTable creates a table writer that renders GitHub-flavored
// Markdown tables, shared by every report in the package.
func newMarkdownTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
