/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// filterFile is an optional file at the repository root that narrows
// which files the review sees. Lines starting with "!" are include
// patterns, lines starting with "#" are comments, and any other
// non-blank line is an exclude pattern. Without include patterns
// everything is included.
const filterFile = ".aireviews"

type patterns struct {
	include []string
	exclude []string
}

// loadFilterFile parses the filter file under root. A missing file
// yields empty patterns.
func loadFilterFile(root string) (patterns, error) {
	f, err := os.Open(filepath.Join(root, filterFile))
	if err != nil {
		if os.IsNotExist(err) {
			return patterns{}, nil
		}
		return patterns{}, fmt.Errorf("opening %s: %w", filterFile, err)
	}
	defer f.Close()

	var p patterns
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "!"):
			p.include = append(p.include, strings.TrimSpace(line[1:]))
		default:
			p.exclude = append(p.exclude, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return patterns{}, fmt.Errorf("reading %s: %w", filterFile, err)
	}
	return p, nil
}

// merged combines these patterns with additional include and exclude
// patterns from configuration.
func (p patterns) merged(include, exclude []string) patterns {
	return patterns{
		include: append(append([]string{}, p.include...), include...),
		exclude: append(append([]string{}, p.exclude...), exclude...),
	}
}

// admits reports whether a slash-separated path relative to the
// repository root should appear in the review structure. Patterns are
// tried against both the file's base name and its full relative path.
func (p patterns) admits(relPath string) bool {
	include := p.include
	if len(include) == 0 {
		include = []string{"*"}
	}
	if !matchAny(include, relPath) {
		return false
	}
	return !matchAny(p.exclude, relPath)
}

func matchAny(pats []string, relPath string) bool {
	base := path.Base(relPath)
	for _, pat := range pats {
		if ok, err := path.Match(pat, base); err == nil && ok {
			return true
		}
		if ok, err := path.Match(pat, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
