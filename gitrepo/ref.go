/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

// Ref identifies a GitHub repository.
type Ref struct {
	Owner string
	Name  string
}

// ParseRef accepts "owner/repo", "github.com/owner/repo", or a full
// https clone URL, with or without a trailing ".git".
func ParseRef(s string) (Ref, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Ref{}, fmt.Errorf("empty repository reference")
	}

	path := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Ref{}, fmt.Errorf("invalid repository URL %q: %w", raw, err)
		}
		path = u.Path
	}
	path = strings.Trim(path, "/")
	path = strings.TrimPrefix(path, "github.com/")
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return Ref{}, fmt.Errorf("invalid repository reference %q: want owner/repo", raw)
	}
	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" {
		return Ref{}, fmt.Errorf("invalid repository reference %q: want owner/repo", raw)
	}
	return Ref{Owner: owner, Name: name}, nil
}

// String returns "owner/name", the session identifier form.
func (r Ref) String() string {
	return r.Owner + "/" + r.Name
}
