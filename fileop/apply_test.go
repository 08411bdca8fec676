/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package fileop_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reviewloop/reviewloop/fileop"
)

func writeTestFile(t *testing.T, root, path, content string) {
	t.Helper()
	full := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readTestFile(t *testing.T, root, path string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, path))
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestApplyModify(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	// Modify creates missing parent directories.
	op := fileop.Modify("pkg/server/handler.go", "package server\n")
	if err := fileop.Apply(root, op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readTestFile(t, root, "pkg/server/handler.go"); got != "package server\n" {
		t.Fatalf("expected file content %q, got %q", "package server\n", got)
	}

	// Modify overwrites existing content.
	op = fileop.Modify("pkg/server/handler.go", "package server\n\n// v2\n")
	if err := fileop.Apply(root, op); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readTestFile(t, root, "pkg/server/handler.go"); got != "package server\n\n// v2\n" {
		t.Fatalf("expected overwritten content, got %q", got)
	}
}

func TestApplyDelete(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTestFile(t, root, "stale.txt", "old\n")

	if err := fileop.Apply(root, fileop.Delete("stale.txt")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "stale.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected stale.txt to be removed, stat err: %v", err)
	}

	err := fileop.Apply(root, fileop.Delete("stale.txt"))
	if !errors.Is(err, fileop.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing file, got: %v", err)
	}
}

func TestApplyRename(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTestFile(t, root, "old/name.go", "package name\n")

	if err := fileop.Apply(root, fileop.Rename("old/name.go", "new/dir/name.go")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readTestFile(t, root, "new/dir/name.go"); got != "package name\n" {
		t.Fatalf("expected moved content, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "old/name.go")); !os.IsNotExist(err) {
		t.Fatalf("expected source to be gone, stat err: %v", err)
	}

	err := fileop.Apply(root, fileop.Rename("missing.go", "elsewhere.go"))
	if !errors.Is(err, fileop.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing source, got: %v", err)
	}
}

func TestApplyRenameConflictLeavesTreeUnchanged(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTestFile(t, root, "a.txt", "contents of a\n")
	writeTestFile(t, root, "b.txt", "contents of b\n")

	err := fileop.Apply(root, fileop.Rename("a.txt", "b.txt"))
	if !errors.Is(err, fileop.ErrExists) {
		t.Fatalf("expected ErrExists, got: %v", err)
	}

	// Both files keep their original content.
	if got := readTestFile(t, root, "a.txt"); got != "contents of a\n" {
		t.Fatalf("source was modified: %q", got)
	}
	if got := readTestFile(t, root, "b.txt"); got != "contents of b\n" {
		t.Fatalf("destination was modified: %q", got)
	}
}

func TestApplyMkdir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	if err := fileop.Apply(root, fileop.Mkdir("docs/adr")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, "docs/adr"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory, stat: %v %v", info, err)
	}

	// Creating it again is not an error.
	if err := fileop.Apply(root, fileop.Mkdir("docs/adr")); err != nil {
		t.Fatalf("expected mkdir to be idempotent, got: %v", err)
	}
}

func TestApplyRejectsEscapingPaths(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTestFile(t, root, "keep.txt", "keep\n")

	ops := []fileop.Operation{
		fileop.Modify("../../etc/passwd", "pwned"),
		fileop.Delete("../outside.txt"),
		fileop.Rename("keep.txt", "../../stolen.txt"),
		fileop.Rename("../../etc/passwd", "copied.txt"),
		fileop.Mkdir("../evil"),
		fileop.Modify("/etc/passwd", "pwned"),
		fileop.Modify("", "empty"),
	}
	for _, op := range ops {
		if err := fileop.Apply(root, op); !errors.Is(err, fileop.ErrPathEscape) {
			t.Errorf("Apply(%v): expected ErrPathEscape, got: %v", op, err)
		}
	}

	// Nothing inside or outside the root was touched.
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "keep.txt" {
		t.Fatalf("expected only keep.txt to remain, got %d entries", len(entries))
	}
	if got := readTestFile(t, root, "keep.txt"); got != "keep\n" {
		t.Fatalf("keep.txt was modified: %q", got)
	}
}

func TestApplyAllowsDotDotInFileNames(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	// A name that merely starts with dots is not an escape.
	if err := fileop.Apply(root, fileop.Modify("..config", "x\n")); err != nil {
		t.Fatalf("unexpected error for dot-prefixed name: %v", err)
	}
	if got := readTestFile(t, root, "..config"); got != "x\n" {
		t.Fatalf("expected file to be written, got %q", got)
	}
}

func TestOperationString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		op   fileop.Operation
		want string
	}{
		{fileop.Modify("a/b.go", "x"), "modify a/b.go"},
		{fileop.Delete("a/b.go"), "delete a/b.go"},
		{fileop.Rename("a.go", "b.go"), "rename a.go -> b.go"},
		{fileop.Mkdir("dir"), "mkdir dir"},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
