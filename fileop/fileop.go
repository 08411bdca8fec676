/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package fileop

import "fmt"

// Kind identifies the type of a file operation.
type Kind string

const (
	// KindModify replaces the full content of a file, creating it (and any
	// missing parent directories) if necessary.
	KindModify Kind = "modify"
	// KindDelete removes an existing file.
	KindDelete Kind = "delete"
	// KindRename moves a file to a new path.
	KindRename Kind = "rename"
	// KindMkdir creates a directory. Creating an existing directory is not
	// an error.
	KindMkdir Kind = "mkdir"
)

// Operation is a single requested change to a repository checkout.
//
// Path is always set. NewPath is set only for KindRename. Content is set
// only for KindModify and holds the full replacement content of the file.
type Operation struct {
	Kind    Kind   `json:"kind"`
	Path    string `json:"path"`
	NewPath string `json:"newPath,omitempty"`
	Content string `json:"-"`
}

// Modify returns an operation that writes content as the full new content
// of path.
func Modify(path, content string) Operation {
	return Operation{Kind: KindModify, Path: path, Content: content}
}

// Delete returns an operation that removes path.
func Delete(path string) Operation {
	return Operation{Kind: KindDelete, Path: path}
}

// Rename returns an operation that moves oldPath to newPath.
func Rename(oldPath, newPath string) Operation {
	return Operation{Kind: KindRename, Path: oldPath, NewPath: newPath}
}

// Mkdir returns an operation that creates the directory at path.
func Mkdir(path string) Operation {
	return Operation{Kind: KindMkdir, Path: path}
}

// String renders the operation for logs and change summaries.
func (o Operation) String() string {
	if o.Kind == KindRename {
		return fmt.Sprintf("%s %s -> %s", o.Kind, o.Path, o.NewPath)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.Path)
}
