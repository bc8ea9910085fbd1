// Package kv defines the key-value store contract every domain persists through,
// together with the canonical key scheme and the in-memory implementations.
package kv

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the key was never written.
	ErrNotFound = errors.New("key not found")
	// ErrNotDurable indicates a write was kept in memory but did not reach the backend.
	ErrNotDurable = errors.New("value not persisted")
	// ErrMalformed indicates a stored value that could not be decoded.
	ErrMalformed = errors.New("malformed stored value")
	// ErrInvalidKey indicates a key outside the allowed character set.
	ErrInvalidKey = errors.New("invalid key")
)

// Store reads and writes opaque values under string keys.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// PersistError reports a write that the backend rejected. It matches ErrNotDurable.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotDurable) match.
func (e *PersistError) Is(target error) bool {
	return target == ErrNotDurable
}

// IsWarning reports whether err only signals a non-durable write.
func IsWarning(err error) bool {
	return errors.Is(err, ErrNotDurable)
}
