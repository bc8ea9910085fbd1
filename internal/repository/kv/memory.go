package kv

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory store. Safe for concurrent access.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	logger *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		values: make(map[string][]byte),
		logger: logger,
	}
}

// Load returns a copy of the value stored under key.
func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

// Save stores a copy of value under key, overwriting any previous value.
func (s *MemoryStore) Save(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("saving value", zap.String("key", key), zap.Int("bytes", len(value)))
	s.values[key] = bytes.Clone(value)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
