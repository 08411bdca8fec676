/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

/*
Package gitrepo owns the review's interaction with the target repository:
cloning into a temporary working tree, creating the review branch,
listing the tree as a structure document for prompts, committing and
pushing applied changes, and opening or updating the pull request.

A Checkout is a single clone dedicated to one review session. The
structure listing honors the repository's .aireviews filter file, the
configured size ceiling, and elides binary content. Pull request calls
go through a Host, which wraps the REST and GraphQL clients for
whichever credential mode (token or GitHub App) the run uses.
*/
package gitrepo
