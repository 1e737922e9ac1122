package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileMode sets the permission bits of artifact files.
// Default: 0644.
func WithFileMode(mode os.FileMode) FileOption {
	return func(s *FileStore) { s.mode = mode }
}

// FileStore keeps one "<key>.json" file per artifact in a directory. Writes
// go to a uniquely named temporary file in the same directory and are
// renamed into place, so readers see either nothing or the whole artifact.
type FileStore struct {
	dir  string
	mode os.FileMode
}

// NewFileStore returns a store rooted at dir. The directory is created on
// the first write.
func NewFileStore(dir string, opts ...FileOption) *FileStore {
	s := &FileStore{dir: dir, mode: 0o644}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the artifact path for key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Exists reports whether an artifact file exists for key.
func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(s.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Read returns the artifact stored under key.
func (s *FileStore) Read(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// WriteAtomic writes data to a temporary file and renames it over the
// artifact path.
func (s *FileStore) WriteAtomic(_ context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(s.dir, "."+key+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, s.mode); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.Path(key)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

var _ Store = (*FileStore)(nil)
