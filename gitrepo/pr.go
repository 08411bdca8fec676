/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
)

// Host talks to the GitHub API for pull request management.
type Host struct {
	client *github.Client
}

// NewHost returns a Host using the given credentials.
func NewHost(creds *Credentials) *Host {
	return &Host{client: creds.RESTClient()}
}

// UpsertPullRequest opens a pull request from head into base, or
// refreshes the title and body of the open one that already exists for
// that branch pair. It returns the pull request URL.
func (h *Host) UpsertPullRequest(ctx context.Context, ref Ref, head, base, title, body string) (string, error) {
	log := clog.FromContext(ctx).With("repo", ref.String(), "head", head, "base", base)

	gqlClient := githubv4.NewClient(h.client.Client())

	var query struct {
		Repository struct {
			PullRequests struct {
				Nodes []struct {
					Number int
					Url    string
				}
			} `graphql:"pullRequests(headRefName: $headRef, baseRefName: $baseRef, states: [OPEN], first: 1)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	variables := map[string]any{
		"owner":   githubv4.String(ref.Owner),
		"repo":    githubv4.String(ref.Name),
		"headRef": githubv4.String(head),
		"baseRef": githubv4.String(base),
	}
	if err := gqlClient.Query(ctx, &query, variables); err != nil {
		return "", fmt.Errorf("querying pull request: %w", err)
	}

	if len(query.Repository.PullRequests.Nodes) == 0 {
		log.Infof("Creating pull request with head %s and base %s", head, base)
		pr, _, err := h.client.PullRequests.Create(ctx, ref.Owner, ref.Name, &github.NewPullRequest{
			Title: github.Ptr(title),
			Body:  github.Ptr(body),
			Head:  github.Ptr(head),
			Base:  github.Ptr(base),
		})
		if err != nil {
			return "", fmt.Errorf("creating pull request: %w", err)
		}
		return pr.GetHTMLURL(), nil
	}

	existing := query.Repository.PullRequests.Nodes[0]
	log.Infof("Updating pull request #%d", existing.Number)
	if _, _, err := h.client.PullRequests.Edit(ctx, ref.Owner, ref.Name, existing.Number, &github.PullRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	}); err != nil {
		return "", fmt.Errorf("updating pull request: %w", err)
	}
	return existing.Url, nil
}
