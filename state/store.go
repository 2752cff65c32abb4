// Package state provides the transaction-scoped key-value store backing
// the stateful enforcers. Each enforcer owns its keys exclusively; keys
// are keccak hashes derived from caller, token, recipient and delegation
// identifiers so that separate orchestrators and delegations never share
// a ledger entry.
package state

import (
	"github.com/ethereum/go-ethereum/common"
)

// Store is the ledger surface handed to stateful enforcers. Records put
// into the store are treated as immutable: enforcers replace whole
// records instead of mutating them in place, which is what makes the
// journaled rollback in MemStore sound.
type Store interface {
	Get(key common.Hash) (value any, ok bool)
	Put(key common.Hash, value any)
	Delete(key common.Hash)
}

// Snapshotter is implemented by stores that can roll back to an earlier
// point. The evaluator snapshots before running a caveat chain and
// reverts on any failure so state mutations stay atomic with the action.
type Snapshotter interface {
	Snapshot() int
	RevertTo(revision int)
}

// journalEntry records the value a key held before a write, so the write
// can be undone.
type journalEntry struct {
	key      common.Hash
	previous any
	existed  bool
}

// MemStore is the in-memory Store used for a single top-level redemption.
// The evaluation model is synchronous, so MemStore is not safe for
// concurrent use.
type MemStore struct {
	entries map[common.Hash]any
	journal []journalEntry
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[common.Hash]any),
	}
}

// Get returns the record for key, if any.
func (s *MemStore) Get(key common.Hash) (any, bool) {
	value, ok := s.entries[key]
	return value, ok
}

// Put replaces the record for key.
func (s *MemStore) Put(key common.Hash, value any) {
	s.journalWrite(key)
	s.entries[key] = value
}

// Delete removes the record for key.
func (s *MemStore) Delete(key common.Hash) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	s.journalWrite(key)
	delete(s.entries, key)
}

// Snapshot marks the current state and returns a revision token for
// RevertTo.
func (s *MemStore) Snapshot() int {
	return len(s.journal)
}

// RevertTo undoes every write made after the given snapshot.
func (s *MemStore) RevertTo(revision int) {
	if revision < 0 || revision > len(s.journal) {
		return
	}
	for i := len(s.journal) - 1; i >= revision; i-- {
		entry := s.journal[i]
		if entry.existed {
			s.entries[entry.key] = entry.previous
		} else {
			delete(s.entries, entry.key)
		}
	}
	s.journal = s.journal[:revision]
}

// Len reports the number of live records.
func (s *MemStore) Len() int {
	return len(s.entries)
}

func (s *MemStore) journalWrite(key common.Hash) {
	previous, existed := s.entries[key]
	s.journal = append(s.journal, journalEntry{
		key:      key,
		previous: previous,
		existed:  existed,
	})
}
