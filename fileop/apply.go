/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package fileop

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a delete or rename targets a path that does
// not exist.
var ErrNotFound = errors.New("file not found")

// ErrExists is returned when a rename destination already exists.
var ErrExists = errors.New("destination already exists")

// ErrPathEscape is returned when an operation path resolves outside the
// repository root.
var ErrPathEscape = errors.New("path escapes repository root")

// Apply executes op against the tree rooted at root. Paths are validated
// before any filesystem access; a returned error means the tree was not
// modified by this operation, except that a rename may leave newly created
// parent directories of the destination behind.
func Apply(root string, op Operation) error {
	target, err := resolve(root, op.Path)
	if err != nil {
		return err
	}

	switch op.Kind {
	case KindModify:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating parent directories for %q: %w", op.Path, err)
		}
		if err := os.WriteFile(target, []byte(op.Content), 0o644); err != nil {
			return fmt.Errorf("writing %q: %w", op.Path, err)
		}
		return nil

	case KindDelete:
		if _, err := os.Stat(target); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("delete %q: %w", op.Path, ErrNotFound)
			}
			return fmt.Errorf("delete %q: %w", op.Path, err)
		}
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("delete %q: %w", op.Path, err)
		}
		return nil

	case KindRename:
		dest, err := resolve(root, op.NewPath)
		if err != nil {
			return err
		}
		if _, err := os.Stat(target); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("rename %q: %w", op.Path, ErrNotFound)
			}
			return fmt.Errorf("rename %q: %w", op.Path, err)
		}
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("rename %q to %q: %w", op.Path, op.NewPath, ErrExists)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("rename %q to %q: %w", op.Path, op.NewPath, err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating parent directories for %q: %w", op.NewPath, err)
		}
		if err := os.Rename(target, dest); err != nil {
			return fmt.Errorf("rename %q to %q: %w", op.Path, op.NewPath, err)
		}
		return nil

	case KindMkdir:
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", op.Path, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// resolve joins path onto root and ensures the result stays inside root.
func resolve(root, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("empty path: %w", ErrPathEscape)
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("path %q: %w", path, ErrPathEscape)
	}
	full := filepath.Join(root, filepath.Clean(path))
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return "", fmt.Errorf("path %q: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q: %w", path, ErrPathEscape)
	}
	return full, nil
}
