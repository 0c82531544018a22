package engine

import "sync"

// VisitedSet records the fingerprints of every state admitted to a frontier.
// All methods are safe for concurrent use; TryInsert is the atomic
// check-and-set used by the search.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[Fingerprint]struct{}
}

// NewVisitedSet creates an empty visited set
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[Fingerprint]struct{})}
}

// Contains reports whether a state with the same stone positions was recorded
func (v *VisitedSet) Contains(s *State) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[s.Fingerprint()]
	return ok
}

// Insert records the state as seen
func (v *VisitedSet) Insert(s *State) {
	v.mu.Lock()
	v.seen[s.Fingerprint()] = struct{}{}
	v.mu.Unlock()
}

// TryInsert records the state and returns true only if it was not seen before
func (v *VisitedSet) TryInsert(s *State) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := s.Fingerprint()
	if _, ok := v.seen[key]; ok {
		return false
	}
	v.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct configurations recorded
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
