package models

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// IDSource hands out creation-timestamp IDs (Unix milliseconds). IDs from one source
// are strictly increasing, so entries created within the same millisecond stay distinct.
type IDSource struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDSource builds a source reading the given clock; nil uses time.Now.
func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

// Next returns a fresh ID.
func (s *IDSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return strconv.FormatInt(id, 10)
}

// Observe makes later IDs sort after an already stored one.
func (s *IDSource) Observe(id string) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if n > s.last {
		s.last = n
	}
}

// ObserveRaw observes the "id" field of a stored list entry, whether or not the rest
// of the entry is valid.
func (s *IDSource) ObserveRaw(entry json.RawMessage) {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(entry, &head); err != nil {
		return
	}
	s.Observe(head.ID)
}
