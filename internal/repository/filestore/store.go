// Package filestore persists key-value pairs as one file per key on a go-billy
// filesystem: a data directory in production, memfs in tests.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
)

// Compile-time interface check.
var _ kv.Store = (*Store)(nil)

// Store implements kv.Store on a billy.Filesystem.
type Store struct {
	fs     billy.Filesystem
	logger *zap.Logger
	mu     sync.Mutex
}

// New builds a store rooted at the given filesystem.
func New(fs billy.Filesystem, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{fs: fs, logger: logger}
}

// NewOS builds a store over a directory of the native filesystem, creating it if needed.
func NewOS(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filestore: data directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %q: %w", dir, err)
	}
	return New(osfs.New(dir), logger), nil
}

// Load reads the file named after key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if err := kv.ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.fs.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("filestore: open %q: %w", key, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("filestore: read %q: %w", key, err)
	}
	return data, nil
}

// Save writes value to a temporary file and renames it over the key's file.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := s.fs.TempFile("", "."+key+"-")
	if err != nil {
		return fmt.Errorf("filestore: temp file for %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("filestore: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("filestore: close %q: %w", key, err)
	}
	if err := s.fs.Rename(tmpName, key); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("filestore: rename %q: %w", key, err)
	}

	s.logger.Debug("value written", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}
