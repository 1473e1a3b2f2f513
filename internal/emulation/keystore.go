// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package emulation

import "github.com/strayfield/decoy/internal/model"

// KeyStoreCapacity bounds the credential store. Distinct keys beyond
// capacity are dropped, not evicted.
const KeyStoreCapacity = 16

// KeyStore is the bounded, deduplicated set of sector keys the reader has
// disclosed. Identity is the raw key bytes alone; the sector and kind of
// the first sighting are retained. Not safe for concurrent use on its
// own: the owning Session serializes access.
type KeyStore struct {
	entries []model.CapturedCredential
}

// NewKeyStore returns an empty store with fixed capacity.
func NewKeyStore() *KeyStore {
	return &KeyStore{entries: make([]model.CapturedCredential, 0, KeyStoreCapacity)}
}

// Record stores the credential unless the same key bytes were seen before
// or the store is full. It reports whether a new entry was added. A full
// store drops silently; capacity exhaustion is not an error.
func (s *KeyStore) Record(sector int, kind model.KeyKind, key model.Key) bool {
	for _, e := range s.entries {
		if e.Key == key {
			return false
		}
	}
	if len(s.entries) >= KeyStoreCapacity {
		return false
	}
	s.entries = append(s.entries, model.CapturedCredential{Sector: sector, Kind: kind, Key: key})
	return true
}

// Len returns the number of stored credentials.
func (s *KeyStore) Len() int {
	return len(s.entries)
}

// Snapshot returns a copy of the stored credentials in capture order.
func (s *KeyStore) Snapshot() []model.CapturedCredential {
	out := make([]model.CapturedCredential, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear empties the store.
func (s *KeyStore) Clear() {
	s.entries = s.entries[:0]
}
