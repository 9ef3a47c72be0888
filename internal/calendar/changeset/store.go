package changeset

import (
	"sync"
)

// Store maps exchange keys to their pending ChangeSets. A changeset exists
// while it is non-empty and is dropped once cleared. All access is
// serialized by one lock so concurrent writers cannot lose updates; reads
// hand out deep copies so holders cannot mutate shared state.
type Store struct {
	mu   sync.Mutex
	sets map[string]*ChangeSet
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sets: make(map[string]*ChangeSet)}
}

// Get returns a deep copy of the changeset for key. The second result is
// false when no operations are pending for key.
func (s *Store) Get(key string) (*ChangeSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sets[key]
	if !ok {
		return New(), false
	}
	return cs.Copy(), true
}

// Update runs fn against the changeset for key as a single
// read-mutate-write step under the store lock. The changeset passed to fn
// is the live one; fn returning an error leaves the previous state in
// place. An emptied changeset is deleted from the store.
func (s *Store) Update(key string, fn func(cs *ChangeSet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sets[key]
	if !ok {
		cs = New()
	}
	work := cs.Copy()
	if err := fn(work); err != nil {
		return err
	}
	if work.IsEmpty() {
		delete(s.sets, key)
		return nil
	}
	s.sets[key] = work
	return nil
}

// Set replaces the changeset for key with a deep copy of cs. An empty or
// nil cs deletes the entry.
func (s *Store) Set(key string, cs *ChangeSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs == nil || cs.IsEmpty() {
		delete(s.sets, key)
		return
	}
	s.sets[key] = cs.Copy()
}

// Delete drops the changeset for key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, key)
}

// Keys returns the exchange keys with pending operations.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sets))
	for key := range s.sets {
		out = append(out, key)
	}
	return out
}
