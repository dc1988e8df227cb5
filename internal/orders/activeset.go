package orders

import "sync"

// ActiveSet is the set of order ids currently being tracked. Removal doubles
// as the exactly-once commit point for terminal transitions: whichever
// caller's Discard returns true owns the terminal outcome.
type ActiveSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewActiveSet() *ActiveSet {
	return &ActiveSet{ids: map[string]struct{}{}}
}

func (s *ActiveSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *ActiveSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Discard removes id and reports whether it was present.
func (s *ActiveSet) Discard(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	delete(s.ids, id)
	return ok
}

func (s *ActiveSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
