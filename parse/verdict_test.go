/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package parse_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/reviewloop/reviewloop/parse"
)

func TestParseVerdict(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want parse.Verdict
	}{{
		name: "status complete field",
		text: "STATUS: COMPLETE\nNEXT_ACTION: none",
		want: parse.Verdict{Complete: true},
	}, {
		name: "completion token anywhere",
		text: "All findings addressed.\n\nREVIEW_COMPLETE",
		want: parse.Verdict{Complete: true},
	}, {
		name: "completion sentence",
		text: "The review is complete: all modules follow the style guide.",
		want: parse.Verdict{Complete: true},
	}, {
		name: "status complete lowercase",
		text: "status: complete",
		want: parse.Verdict{Complete: true},
	}, {
		name: "status incomplete keeps going",
		text: "STATUS: INCOMPLETE\nNEXT_TASK: tighten error handling in the parser",
		want: parse.Verdict{Task: "tighten error handling in the parser"},
	}, {
		name: "explicit next task",
		text: "The loop lacks tests.\nNEXT_TASK: add unit tests for the retry helper",
		want: parse.Verdict{Task: "add unit tests for the retry helper"},
	}, {
		name: "multiline task after marker",
		text: "NEXT_TASK: refactor config loading.\nSplit validation from parsing.",
		want: parse.Verdict{Task: "refactor config loading.\nSplit validation from parsing."},
	}, {
		name: "whole response as task",
		text: "Please review the HTTP handlers for missing timeouts.",
		want: parse.Verdict{Task: "Please review the HTTP handlers for missing timeouts."},
	}, {
		name: "empty response",
		text: "",
		want: parse.Verdict{Unparsed: true},
	}, {
		name: "whitespace only",
		text: "  \n\t\n",
		want: parse.Verdict{Unparsed: true},
	}, {
		name: "task marker with nothing after",
		text: "NEXT_TASK:",
		want: parse.Verdict{Unparsed: true},
	}}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := parse.ParseVerdict(tc.text)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ParseVerdict mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
