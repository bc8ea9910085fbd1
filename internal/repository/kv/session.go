package kv

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/metrics"
)

// Compile-time interface check.
var _ Store = (*Session)(nil)

// Session fronts a backend store. Writes the backend rejects are kept in memory and
// served to later reads for the lifetime of the session, so a failed write never
// undoes the mutation the caller just made. A later successful write of the same key
// drops the in-memory copy.
type Session struct {
	backend Store
	logger  *zap.Logger

	mu      sync.RWMutex
	pending map[string][]byte
}

// NewSession wraps backend.
func NewSession(backend Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		backend: backend,
		logger:  logger,
		pending: make(map[string][]byte),
	}
}

// Load serves a pending value first, then the backend.
func (s *Session) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	v, ok := s.pending[key]
	s.mu.RUnlock()
	if ok {
		return bytes.Clone(v), nil
	}
	return s.backend.Load(ctx, key)
}

// Save writes through to the backend. When the backend fails the value is retained
// in memory and a *PersistError is returned.
func (s *Session) Save(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := s.backend.Save(ctx, key, value); err != nil {
		s.mu.Lock()
		s.pending[key] = bytes.Clone(value)
		s.mu.Unlock()

		metrics.RecordStoreWrite(false)
		s.logger.Warn("store write failed, value kept for this session only", zap.String("key", key), zap.Error(err))
		return &PersistError{Key: key, Err: err}
	}

	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()

	metrics.RecordStoreWrite(true)
	return nil
}

// Pending lists the keys whose latest value only lives in memory.
func (s *Session) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
