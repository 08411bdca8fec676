/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package review drives the code review loop. Each iteration asks the
// orchestrator model for the next task, hands that task to the
// sub-agent model, applies the file operations the sub-agent emits,
// and checkpoints the session. Hard ceilings on iterations and token
// spend bound every run, and the loop always terminates with one of
// the Reason values.
package review
