/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package parse

import (
	"fmt"
	"strings"

	"github.com/reviewloop/reviewloop/fileop"
)

const (
	markerModify = "MODIFY:"
	markerCreate = "CREATE:"
	markerDelete = "DELETE:"
	markerRename = "RENAME:"
	markerMkdir  = "MKDIR:"
	contentOpen  = "<FILE_CONTENT>"
	contentClose = "</FILE_CONTENT>"
)

// ParseOperations extracts file operations from a sub-agent response, in
// document order. Everything between a content open and close fence is
// literal file content, so content lines that happen to look like markers
// are never misread. Malformed fragments are skipped and described in the
// returned warnings.
func ParseOperations(text string) ([]fileop.Operation, []string) {
	var ops []fileop.Operation
	var warnings []string

	// currentPath is the file named by the most recent MODIFY or CREATE
	// marker still waiting for its content block.
	var currentPath string
	var content []string
	inContent := false

	dropPending := func(reason string) {
		if currentPath != "" {
			warnings = append(warnings, fmt.Sprintf("dropping modify of %q: %s", currentPath, reason))
		}
		currentPath = ""
		content = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if inContent {
			if trimmed == contentClose {
				inContent = false
				if currentPath != "" {
					ops = append(ops, fileop.Modify(currentPath, NormalizeContent(strings.Join(content, "\n"))))
				}
				currentPath = ""
				content = nil
				continue
			}
			content = append(content, line)
			continue
		}

		switch {
		case strings.HasPrefix(line, markerModify), strings.HasPrefix(line, markerCreate):
			dropPending("no content block before next marker")
			path := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, markerModify), markerCreate))
			if path == "" {
				warnings = append(warnings, "modify marker without a path")
				continue
			}
			currentPath = path

		case trimmed == contentOpen:
			if currentPath == "" {
				warnings = append(warnings, "content block without a preceding MODIFY or CREATE marker")
			}
			inContent = true
			content = nil

		case strings.HasPrefix(line, markerDelete):
			dropPending("no content block before next marker")
			path := strings.TrimSpace(strings.TrimPrefix(line, markerDelete))
			if path == "" {
				warnings = append(warnings, "delete marker without a path")
				continue
			}
			ops = append(ops, fileop.Delete(path))

		case strings.HasPrefix(line, markerRename):
			dropPending("no content block before next marker")
			rest := strings.TrimSpace(strings.TrimPrefix(line, markerRename))
			oldPath, newPath, ok := strings.Cut(rest, "->")
			if !ok {
				warnings = append(warnings, fmt.Sprintf("rename %q missing the -> separator", rest))
				continue
			}
			oldPath, newPath = strings.TrimSpace(oldPath), strings.TrimSpace(newPath)
			if oldPath == "" || newPath == "" {
				warnings = append(warnings, fmt.Sprintf("rename %q missing a path", rest))
				continue
			}
			ops = append(ops, fileop.Rename(oldPath, newPath))

		case strings.HasPrefix(line, markerMkdir):
			dropPending("no content block before next marker")
			path := strings.TrimSpace(strings.TrimPrefix(line, markerMkdir))
			if path == "" {
				warnings = append(warnings, "mkdir marker without a path")
				continue
			}
			ops = append(ops, fileop.Mkdir(path))
		}
	}

	if inContent {
		dropPending("content block never closed")
	} else {
		dropPending("response ended before the content block")
	}

	return ops, warnings
}

// NormalizeContent prepares model-emitted file content for writing: CRLF
// becomes LF, trailing whitespace is stripped from each line, and the
// content ends with exactly one newline.
func NormalizeContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	content = strings.Join(lines, "\n")
	return strings.TrimRight(content, " \t\r\n") + "\n"
}
