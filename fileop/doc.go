/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package fileop defines the file operations a review sub-agent may request
// and applies them to a repository checkout.
//
// All operation paths are repository-relative. Apply validates every path
// against the repository root before touching the filesystem, so an
// operation that fails leaves the tree untouched.
package fileop
