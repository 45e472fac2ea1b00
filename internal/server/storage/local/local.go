// Package local implements the durable on-disk blob store. Writes go to a
// temp file first and are atomically renamed into place, so a crashed
// upload never leaves a partially written payload at a live storage path.
package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dkruglov/fileshare/internal/common"
)

// Store writes and reads payloads under a fixed root directory.
type Store struct {
	root string
}

// New creates the root directory if needed and returns a Store.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, common.ErrConfiguration
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create storage root %s: %v", common.ErrStorageIO, root, err)
	}
	return &Store{root: root}, nil
}

// Write persists data at the given storage path (slash-separated, rooted at
// the store root). The parent directory is created on demand; the payload
// lands via temp file + fsync + atomic rename.
func (s *Store) Write(storagePath string, data []byte) error {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("%w: create directory for %s: %v", common.ErrStorageIO, storagePath, err)
	}

	tmpPath := fullPath + "." + uuid.NewString() + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", common.ErrStorageIO, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %v", common.ErrStorageIO, storagePath, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: fsync %s: %v", common.ErrStorageIO, storagePath, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close %s: %v", common.ErrStorageIO, storagePath, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename %s: %v", common.ErrStorageIO, storagePath, err)
	}

	return nil
}

// Open returns the file at the given storage path for streaming reads.
// A missing file despite a live metadata record is an internal
// inconsistency, so the error still wraps ErrStorageIO rather than a
// not-found kind.
func (s *Store) Open(storagePath string) (*os.File, error) {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrStorageIO, storagePath, err)
	}
	return f, nil
}

// resolve maps a logical slash-separated storage path onto the filesystem
// and rejects paths that escape the store root.
func (s *Store) resolve(storagePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(storagePath))
	root := filepath.Clean(s.root)

	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %s outside storage root", common.ErrStorageIO, storagePath)
	}

	return cleaned, nil
}
