// Package storage holds published stub mappings.
//
// MappingStore is the contract the engine writes through. InMemoryMappingStore
// keeps an ordered copy-on-write table: every write builds a new Snapshot and
// publishes it atomically, so readers iterate a fixed list without locking.
//
// Snapshot order is the match order: higher priority first, then earlier
// insertion. Re-adding a mapping under an existing ID supersedes it in place,
// keeping its original insertion position.
package storage
