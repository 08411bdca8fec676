/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// Credentials bundles the two auth surfaces a review needs: an
// authenticated REST/GraphQL client and a token source for git pushes.
type Credentials struct {
	rest   *github.Client
	tokens oauth2.TokenSource
}

// TokenCredentials authenticates with a personal access token.
func TokenCredentials(token string) *Credentials {
	return &Credentials{
		rest:   github.NewClient(nil).WithAuthToken(token),
		tokens: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	}
}

// AppCredentials authenticates as a GitHub App installation. The
// installation transport mints short-lived tokens for both API calls
// and git pushes.
func AppCredentials(appID, installationID int64, privateKeyPath string) (*Credentials, error) {
	transport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading GitHub App key: %w", err)
	}
	return &Credentials{
		rest:   github.NewClient(&http.Client{Transport: transport}),
		tokens: appTokenSource{transport: transport},
	}, nil
}

// RESTClient returns the authenticated GitHub API client.
func (c *Credentials) RESTClient() *github.Client {
	return c.rest
}

// TokenSource returns the token source used for git basic auth.
func (c *Credentials) TokenSource() oauth2.TokenSource {
	return c.tokens
}

// appTokenSource adapts an installation transport to oauth2.TokenSource
// for git pushes. The oauth2 interface carries no context, so token
// refresh uses the background context.
type appTokenSource struct {
	transport *ghinstallation.Transport
}

func (s appTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.transport.Token(context.Background())
	if err != nil {
		return nil, fmt.Errorf("minting installation token: %w", err)
	}
	return &oauth2.Token{AccessToken: token}, nil
}
