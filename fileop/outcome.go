/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package fileop

// Outcome records how applying a single operation went. The review loop
// appends one Outcome per requested operation to the session change log,
// whether or not the apply succeeded.
type Outcome struct {
	Op      Operation
	Applied bool
	// Error holds the apply failure message when Applied is false.
	Error string
}

// Succeeded returns an Outcome for an operation that applied cleanly.
func Succeeded(op Operation) Outcome {
	return Outcome{Op: op, Applied: true}
}

// Failed returns an Outcome for an operation that could not be applied.
func Failed(op Operation, err error) Outcome {
	o := Outcome{Op: op}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}
