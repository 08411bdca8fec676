/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

/*
Package parse extracts structured review decisions from free-form model
responses.

Orchestrator responses become a Verdict: either the review is complete, or
there is a next task for the sub-agent. Sub-agent responses become an
ordered list of file operations using a line-marker protocol:

	MODIFY: path/to/file.go
	<FILE_CONTENT>
	full replacement content
	</FILE_CONTENT>
	DELETE: path/to/stale.go
	RENAME: old/path.go -> new/path.go
	MKDIR: new/directory

CREATE: is accepted as an alias for MODIFY:. Operations keep their
document order. Malformed fragments (an unterminated content block, a
rename without an arrow) are skipped and reported as warnings rather than
failing the parse; a response with no markers at all parses to an empty
operation list.
*/
package parse
