/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/reviewloop/reviewloop/gitrepo"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    gitrepo.Ref
		wantErr bool
	}{{
		name: "owner slash repo",
		in:   "octocat/hello-world",
		want: gitrepo.Ref{Owner: "octocat", Name: "hello-world"},
	}, {
		name: "surrounding whitespace",
		in:   "  octocat/hello-world\n",
		want: gitrepo.Ref{Owner: "octocat", Name: "hello-world"},
	}, {
		name: "host prefix",
		in:   "github.com/octocat/hello-world",
		want: gitrepo.Ref{Owner: "octocat", Name: "hello-world"},
	}, {
		name: "https url",
		in:   "https://github.com/octocat/hello-world",
		want: gitrepo.Ref{Owner: "octocat", Name: "hello-world"},
	}, {
		name: "https url with git suffix",
		in:   "https://github.com/octocat/hello-world.git",
		want: gitrepo.Ref{Owner: "octocat", Name: "hello-world"},
	}, {
		name: "https url with trailing slash",
		in:   "https://github.com/octocat/hello-world/",
		want: gitrepo.Ref{Owner: "octocat", Name: "hello-world"},
	}, {
		name:    "empty",
		in:      "   ",
		wantErr: true,
	}, {
		name:    "missing owner",
		in:      "hello-world",
		wantErr: true,
	}, {
		name:    "empty owner segment",
		in:      "/hello-world",
		wantErr: true,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := gitrepo.ParseRef(test.in)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParseRef(%q) = %v, wanted error", test.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q): %v", test.in, err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("ParseRef(%q) mismatch (-want +got):\n%s", test.in, diff)
			}
		})
	}
}

func TestRefString(t *testing.T) {
	ref := gitrepo.Ref{Owner: "octocat", Name: "hello-world"}
	if got, want := ref.String(), "octocat/hello-world"; got != want {
		t.Errorf("String() = %q, wanted %q", got, want)
	}
}
