package whatsapp

import "sync"

// defaultSeenCapacity bounds how many message IDs are remembered.
const defaultSeenCapacity = 512

// SeenMessages remembers recently handled message IDs so redelivered webhooks do not
// apply a command twice. The oldest IDs are forgotten once capacity is reached.
type SeenMessages struct {
	mu       sync.Mutex
	ids      map[string]struct{}
	order    []string
	capacity int
}

// NewSeenMessages creates a tracker holding up to capacity IDs.
func NewSeenMessages(capacity int) *SeenMessages {
	if capacity <= 0 {
		capacity = defaultSeenCapacity
	}
	return &SeenMessages{
		ids:      make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// MarkSeen records id and reports whether it was new. Empty IDs are always new.
func (s *SeenMessages) MarkSeen(id string) bool {
	if id == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[id]; exists {
		return false
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.ids, oldest)
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Forget drops id so a later redelivery is handled again.
func (s *SeenMessages) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[id]; !exists {
		return
	}
	delete(s.ids, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
