/*
Copyright 2026 Reviewloop Authors
SPDX-License-Identifier: Apache-2.0
*/

package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/reviewloop/reviewloop/fileop"
)

const (
	recordFile   = "record.json"
	blobsDir     = "blobs"
	tmpExtension = ".tmp"
	dirPerm      = 0o750
	filePerm     = 0o600
)

// ErrCorrupt is returned when a checkpoint record cannot be decoded or
// references a content blob that is missing.
var ErrCorrupt = errors.New("checkpoint is corrupt")

// Record is the durable state of a review session after an iteration.
type Record struct {
	Iteration  int
	TokensUsed int
	Complete   bool
	// Operations is the cumulative change log, oldest first.
	Operations []fileop.Outcome
}

// wireRecord is the on-disk form of a Record. Modify contents are stored
// out of line in content-addressed blobs and referenced by ContentRef.
type wireRecord struct {
	Iteration  int               `json:"iteration"`
	TokensUsed int               `json:"tokensUsed"`
	Complete   bool              `json:"complete"`
	Operations []operationRecord `json:"operations"`
}

type operationRecord struct {
	Kind       fileop.Kind `json:"kind"`
	Path       string      `json:"path"`
	NewPath    string      `json:"newPath,omitempty"`
	ContentRef string      `json:"contentRef,omitempty"`
	Applied    bool        `json:"applied"`
	Error      string      `json:"error,omitempty"`
}

// Store is a file-backed checkpoint store. Directory layout:
// <dir>/<session>/record.json plus <dir>/<session>/blobs/<sha256>.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily on
// the first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes the record for the given session id atomically. Blobs are
// written before the record, so the record never references a blob that
// is not on disk.
func (s *Store) Save(id string, r *Record) error {
	dir := s.sessionDir(id)
	if err := os.MkdirAll(filepath.Join(dir, blobsDir), dirPerm); err != nil {
		return fmt.Errorf("checkpoint mkdir: %w", err)
	}

	wire := wireRecord{
		Iteration:  r.Iteration,
		TokensUsed: r.TokensUsed,
		Complete:   r.Complete,
		Operations: make([]operationRecord, 0, len(r.Operations)),
	}
	for _, out := range r.Operations {
		rec := operationRecord{
			Kind:    out.Op.Kind,
			Path:    out.Op.Path,
			NewPath: out.Op.NewPath,
			Applied: out.Applied,
			Error:   out.Error,
		}
		if out.Op.Kind == fileop.KindModify {
			ref, err := s.writeBlob(dir, out.Op.Content)
			if err != nil {
				return err
			}
			rec.ContentRef = ref
		}
		wire.Operations = append(wire.Operations, rec)
	}

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint marshal: %w", err)
	}
	return writeFileAtomic(filepath.Join(dir, recordFile), data)
}

// Load reads the record for the given session id. A missing checkpoint is
// not an error: Load returns (nil, nil).
func (s *Store) Load(id string) (*Record, error) {
	dir := s.sessionDir(id)
	data, err := os.ReadFile(filepath.Join(dir, recordFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checkpoint read: %w", err)
	}

	var wire wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, err)
	}

	r := &Record{
		Iteration:  wire.Iteration,
		TokensUsed: wire.TokensUsed,
		Complete:   wire.Complete,
		Operations: make([]fileop.Outcome, 0, len(wire.Operations)),
	}
	for _, rec := range wire.Operations {
		out := fileop.Outcome{
			Op: fileop.Operation{
				Kind:    rec.Kind,
				Path:    rec.Path,
				NewPath: rec.NewPath,
			},
			Applied: rec.Applied,
			Error:   rec.Error,
		}
		if rec.ContentRef != "" {
			content, err := os.ReadFile(filepath.Join(dir, blobsDir, rec.ContentRef))
			if err != nil {
				return nil, fmt.Errorf("%w: blob %s: %s", ErrCorrupt, rec.ContentRef, err)
			}
			out.Op.Content = string(content)
		}
		r.Operations = append(r.Operations, out)
	}
	return r, nil
}

// Clear removes all stored state for the given session id.
func (s *Store) Clear(id string) error {
	if err := os.RemoveAll(s.sessionDir(id)); err != nil {
		return fmt.Errorf("checkpoint clear: %w", err)
	}
	return nil
}

// writeBlob stores content under its SHA-256 name and returns the name.
// Existing blobs are left alone; identical content always hashes to the
// same ref.
func (s *Store) writeBlob(dir, content string) (string, error) {
	sum := sha256.Sum256([]byte(content))
	ref := hex.EncodeToString(sum[:])
	path := filepath.Join(dir, blobsDir, ref)
	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *Store) sessionDir(id string) string {
	safe := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(id)
	return filepath.Join(s.dir, safe)
}

// writeFileAtomic writes data to path via a temporary file, fsyncs it and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + tmpExtension
	fd, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("checkpoint create: %w", err)
	}
	if _, err := fd.Write(data); err != nil {
		fd.Close()
		return fmt.Errorf("checkpoint write: %w", err)
	}
	if err := fd.Sync(); err != nil {
		fd.Close()
		return fmt.Errorf("checkpoint sync: %w", err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("checkpoint close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("checkpoint rename: %w", err)
	}
	return nil
}
