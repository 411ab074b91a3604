package storage

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/getmockd/stubmatch/pkg/stub"
)

// ErrNilMapping is returned by Set for a nil mapping.
var ErrNilMapping = errors.New("storage: nil mapping")

type entry struct {
	mapping *stub.Mapping
	seq     uint64
}

// Snapshot is an immutable, ordered view of the stored mappings.
type Snapshot struct {
	entries []entry // match order
	byID    map[string]int
	version uint64
}

var emptySnapshot = &Snapshot{byID: map[string]int{}}

// Mappings returns the mappings in match order.
func (s *Snapshot) Mappings() []*stub.Mapping {
	out := make([]*stub.Mapping, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.mapping
	}
	return out
}

// Each calls fn for every mapping in match order until fn returns false.
// A nil Snapshot has no mappings.
func (s *Snapshot) Each(fn func(m *stub.Mapping) bool) {
	if s == nil {
		return
	}
	for _, e := range s.entries {
		if !fn(e.mapping) {
			return
		}
	}
}

// Get returns the mapping with the given ID, or nil.
func (s *Snapshot) Get(id string) *stub.Mapping {
	if i, ok := s.byID[id]; ok {
		return s.entries[i].mapping
	}
	return nil
}

// Len returns the number of mappings.
func (s *Snapshot) Len() int { return len(s.entries) }

// Version increases by one with every published change.
func (s *Snapshot) Version() uint64 { return s.version }

// InMemoryMappingStore is a copy-on-write in-memory implementation of MappingStore.
// Writers serialize on a mutex; readers load the published snapshot.
type InMemoryMappingStore struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	nextSeq uint64
}

// NewInMemoryMappingStore creates a new InMemoryMappingStore.
func NewInMemoryMappingStore() *InMemoryMappingStore {
	s := &InMemoryMappingStore{}
	s.current.Store(emptySnapshot)
	return s
}

// Snapshot returns the current immutable view.
func (s *InMemoryMappingStore) Snapshot() *Snapshot {
	return s.current.Load()
}

// Get retrieves a mapping by ID. Returns nil if not found.
func (s *InMemoryMappingStore) Get(id string) *stub.Mapping {
	return s.current.Load().Get(id)
}

// Set stores a copy of m. An empty ID is replaced by a random UUID.
func (s *InMemoryMappingStore) Set(m *stub.Mapping) (*stub.Mapping, error) {
	if m == nil {
		return nil, ErrNilMapping
	}
	stored := m.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	entries := make([]entry, 0, len(cur.entries)+1)
	var seq uint64
	superseded := false
	for _, e := range cur.entries {
		if e.mapping.ID == stored.ID {
			seq = e.seq
			superseded = true
			continue
		}
		entries = append(entries, e)
	}
	if !superseded {
		s.nextSeq++
		seq = s.nextSeq
	}
	entries = append(entries, entry{mapping: stored, seq: seq})

	s.publish(cur, entries)
	return stored, nil
}

// Delete removes a mapping by ID. Returns true if deleted, false if not found.
func (s *InMemoryMappingStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if _, ok := cur.byID[id]; !ok {
		return false
	}
	entries := make([]entry, 0, len(cur.entries)-1)
	for _, e := range cur.entries {
		if e.mapping.ID != id {
			entries = append(entries, e)
		}
	}
	s.publish(cur, entries)
	return true
}

// List returns all stored mappings, sorted by priority (descending) then by insertion order.
func (s *InMemoryMappingStore) List() []*stub.Mapping {
	return s.current.Load().Mappings()
}

// Count returns the number of stored mappings.
func (s *InMemoryMappingStore) Count() int {
	return s.current.Load().Len()
}

// Clear removes all stored mappings. Insertion order restarts from scratch.
func (s *InMemoryMappingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq = 0
	s.publish(s.current.Load(), nil)
}

// Exists checks if a mapping with the given ID exists.
func (s *InMemoryMappingStore) Exists(id string) bool {
	_, ok := s.current.Load().byID[id]
	return ok
}

// publish sorts entries into match order and swaps in the new snapshot.
// Callers hold s.mu.
func (s *InMemoryMappingStore) publish(prev *Snapshot, entries []entry) {
	sort.Slice(entries, func(i, j int) bool {
		pi, pj := entries[i].mapping.Priority, entries[j].mapping.Priority
		if pi != pj {
			return pi > pj
		}
		return entries[i].seq < entries[j].seq
	})

	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.mapping.ID] = i
	}
	s.current.Store(&Snapshot{entries: entries, byID: byID, version: prev.version + 1})
}

// Ensure InMemoryMappingStore implements MappingStore.
var _ MappingStore = (*InMemoryMappingStore)(nil)
