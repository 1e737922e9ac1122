package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned by Read when no artifact is stored under the key.
	ErrNotFound = errors.New("cache: artifact not found")

	// ErrInvalidKey is returned for keys that cannot name an artifact.
	ErrInvalidKey = errors.New("cache: invalid key")
)

// Store persists compiled provider artifacts by cache key. Artifacts are
// immutable: a key always maps to the same content, so concurrent writers of
// one key may overwrite each other freely. WriteAtomic must never expose a
// partially written artifact to Read.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
	WriteAtomic(ctx context.Context, key string, data []byte) error
}

// ValidateKey rejects keys that are empty or could escape a namespace.
func ValidateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\:`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
