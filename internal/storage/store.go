package storage

import (
	"github.com/getmockd/stubmatch/pkg/stub"
)

// MappingStore defines the interface for storing and retrieving stub mappings.
type MappingStore interface {
	// Get retrieves a mapping by ID. Returns nil if not found.
	Get(id string) *stub.Mapping

	// Set stores a copy of m, assigning an ID when m.ID is empty, and returns
	// the stored copy. A mapping with the same ID is superseded.
	Set(m *stub.Mapping) (*stub.Mapping, error)

	// Delete removes a mapping by ID. Returns true if deleted, false if not found.
	Delete(id string) bool

	// List returns all stored mappings in match order.
	List() []*stub.Mapping

	// Count returns the number of stored mappings.
	Count() int

	// Clear removes all stored mappings.
	Clear()

	// Exists checks if a mapping with the given ID exists.
	Exists(id string) bool

	// Snapshot returns the current immutable view. It returns the same
	// pointer until the next change is published.
	Snapshot() *Snapshot
}
