// Package filestore handles temp storage for uploaded statements.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Store writes uploads into a single shared directory. Files are uniquely
// named (timestamp plus original name) so concurrent uploads never collide,
// and callers delete them as soon as processing finishes.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the upload to a uniquely named file and returns its full path.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(originalName))
	fullPath := filepath.Join(s.dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return fullPath, nil
}
