/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package checkpoint persists review session state between iterations so
// an interrupted run can resume where it left off.
//
// Each session gets its own directory containing a JSON record plus a
// content-addressed blob directory for file contents. Saves are atomic
// (write to a temporary file, fsync, rename), so a crash mid-save leaves
// the previous record intact.
package checkpoint
