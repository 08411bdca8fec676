/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package parse

import (
	"errors"
	"strings"
)

const (
	summaryMarker = "SUMMARY:"
	readmeMarker  = "README_UPDATES:"
)

// ErrNoSummary is returned when a change-analysis response carries no
// SUMMARY: section.
var ErrNoSummary = errors.New("response has no SUMMARY section")

// Summary is the parsed output of the final change-analysis call.
type Summary struct {
	// ChangeSummary describes the changes made during the review, used
	// for the pull request body.
	ChangeSummary string
	// ReadmeContent is the full replacement README, or empty when the
	// model declared no update was needed.
	ReadmeContent string
}

// ParseSummary extracts the SUMMARY: and README_UPDATES: sections from a
// change-analysis response. A README section of "NONE" (or none at all)
// yields an empty ReadmeContent.
func ParseSummary(text string) (Summary, error) {
	_, afterSummary, ok := strings.Cut(text, summaryMarker)
	if !ok {
		return Summary{}, ErrNoSummary
	}

	var s Summary
	summaryText, afterReadme, hasReadme := strings.Cut(afterSummary, readmeMarker)
	s.ChangeSummary = strings.TrimSpace(summaryText)
	if hasReadme {
		readme := strings.TrimSpace(afterReadme)
		if !strings.EqualFold(readme, "NONE") {
			s.ReadmeContent = readme
		}
	}
	if s.ChangeSummary == "" {
		return Summary{}, ErrNoSummary
	}
	return s, nil
}
