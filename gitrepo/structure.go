/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	elidedContent      = "<<< File too large or binary >>>"
	undecodableContent = "<<< Unable to decode file content >>>"

	defaultMaxFileSize = 100 * 1024
	binarySniffLen     = 8000
)

// ListOptions controls which files a structure listing carries and how
// large a file may be before its content is elided. A non-positive
// MaxFileSize falls back to 100KiB.
type ListOptions struct {
	Include     []string
	Exclude     []string
	MaxFileSize int64
}

// Structure walks the working tree and returns its shape as nested
// maps: directories map to maps, files map to their content. Files that
// are too large, binary, or not valid UTF-8 appear with a placeholder
// string instead of content. The .git directory is skipped, and filter
// patterns from the repository's .aireviews file are merged with the
// given options.
func (c *Checkout) Structure(opts ListOptions) (map[string]any, error) {
	return listTree(c.dir, opts)
}

func listTree(root string, opts ListOptions) (map[string]any, error) {
	filters, err := loadFilterFile(root)
	if err != nil {
		return nil, err
	}
	pats := filters.merged(opts.Include, opts.Exclude)

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}

	tree := map[string]any{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			insert(tree, rel, map[string]any{})
			return nil
		}
		if !pats.admits(rel) {
			return nil
		}
		insert(tree, rel, fileContent(p, d, maxSize))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return tree, nil
}

// insert places value at the slash-separated path rel, materializing
// intermediate directories as maps.
func insert(tree map[string]any, rel string, value any) {
	parts := strings.Split(rel, "/")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[part] = child
		}
		node = child
	}
	last := parts[len(parts)-1]
	if _, exists := node[last]; !exists {
		node[last] = value
	}
}

// fileContent reads a file for the structure listing. Oversized and
// binary files are elided, and anything unreadable or not valid UTF-8
// gets a placeholder so one bad file cannot sink the whole listing.
func fileContent(path string, d fs.DirEntry, maxSize int64) string {
	info, err := d.Info()
	if err != nil {
		return undecodableContent
	}
	if info.Size() > maxSize {
		return elidedContent
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return undecodableContent
	}
	if looksBinary(raw) {
		return elidedContent
	}
	if !utf8.Valid(raw) {
		return undecodableContent
	}
	return string(raw)
}

func looksBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}
