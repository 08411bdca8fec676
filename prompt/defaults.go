/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package prompt

// Keys of the built-in focus-area catalog.
const (
	FocusOptimization  = "optimization"
	FocusDocumentation = "documentation"
	FocusTesting       = "testing"
	FocusFeatures      = "features"
	FocusSecurity      = "security"
	FocusCodeQuality   = "code_quality"
)

const defaultOrchestratorSystem = `You are the orchestrator of an automated code review. You study a
repository, decide what most needs improving, and delegate one concrete
task at a time to a sub-agent that edits files. You never edit files
yourself.`

const defaultOrchestratorBase = `Review depth: {{review_depth}}

Focus on: {{focus_areas}}.
{{ignore_areas}}
Repository structure and file contents:
{{repo_structure}}

Results of previous iterations:
{{previous_results}}

File modification state:
{{file_state}}

Additional instructions from the user:
{{additional_instructions}}

Decide the single most valuable task to delegate next. Reply with exactly
one of:

NEXT_TASK: <a specific, self-contained task for the sub-agent>

or, when no further worthwhile improvements remain:

REVIEW_COMPLETE

Do not propose tasks that revisit files already handled unless a previous
iteration left them broken. Keep each task small enough to finish in one
response.`

const defaultIgnoreMessage = `Do not make changes related to: {{ignore_areas}}.`

const defaultSubAgentSystem = `You are a code review sub-agent. You receive one task and the repository
it applies to, and you respond with concrete file operations only.`

const defaultSubAgentBase = `Task:
{{task}}

Repository structure and file contents:
{{repo_structure}}

Respond only with file operations, using these markers:

MODIFY: path/to/file
<FILE_CONTENT>
full new content of the file
</FILE_CONTENT>

CREATE: path/to/new/file
<FILE_CONTENT>
full content of the new file
</FILE_CONTENT>

DELETE: path/to/file

RENAME: old/path -> new/path

MKDIR: path/to/directory

Rules:
- Always provide the complete file content between the markers, never a
  fragment or a diff.
- Paths are relative to the repository root.
- If the task needs no changes, respond with no markers and explain why
  in one sentence.`

const defaultSummarySystem = `You summarize the changes an automated code review made to a repository
and decide whether its README needs updating.`

const defaultSummaryBase = `Original repository structure:
{{original_structure}}

Repository structure after the review:
{{new_structure}}

Changes made, as line diffs:
{{cleaned_changes}}

Per-iteration change log:
{{changes_summary}}

Original README:
{{original_readme}}

Respond in exactly this format:

SUMMARY:
<a pull-request description of the changes, in Markdown. Group related
changes, explain the motivation for each group, and keep it under 400
words.>

README_UPDATES:
<the complete new README content, or the single word NONE if the README
does not need to change>`

func defaultLibrary() *Library {
	return &Library{
		Orchestrator: Role{
			System: defaultOrchestratorSystem,
			Base:   defaultOrchestratorBase,
		},
		SubAgent: Role{
			System: defaultSubAgentSystem,
			Base:   defaultSubAgentBase,
		},
		Summary: Role{
			System: defaultSummarySystem,
			Base:   defaultSummaryBase,
		},
		FocusAreas: map[string]string{
			FocusOptimization:  "Code efficiency and performance improvements",
			FocusDocumentation: "Comments, doc strings, and overall code documentation",
			FocusTesting:       "Unit tests and test coverage",
			FocusFeatures:      "Potential new features or enhancements",
			FocusSecurity:      "Security vulnerabilities and best practices",
			FocusCodeQuality:   "Code readability, maintainability, and style conventions",
		},
		IgnoreMessage: defaultIgnoreMessage,
		ReviewDepths: map[string]string{
			"minimum":       "Quick pass over the most critical issues only.",
			"balanced":      "Moderate review covering significant issues and clear wins.",
			"comprehensive": "Thorough review addressing all areas of improvement.",
		},
	}
}
