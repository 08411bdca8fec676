/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders review results as Markdown: the operation
// table shown on the console and the body of the pull request the
// review opens. Tables render in Markdown style so the same text reads
// well in a terminal and on GitHub.
package report
