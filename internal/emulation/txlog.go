// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package emulation

import "github.com/strayfield/decoy/internal/model"

// TxLogCapacity bounds the transaction log. Once full, further events are
// dropped; the log never evicts older entries.
const TxLogCapacity = 64

// TxLog is the append-only record of protocol events, strictly in append
// order. Drop-newest-on-full: the 65th and later appends are no-ops, so a
// full log is a degraded-but-safe condition rather than a ring buffer.
// Not safe for concurrent use on its own: the owning Session serializes
// access.
type TxLog struct {
	entries []model.LogEntry
}

// NewTxLog returns an empty log with fixed capacity.
func NewTxLog() *TxLog {
	return &TxLog{entries: make([]model.LogEntry, 0, TxLogCapacity)}
}

// Append records an event unless the log is full. It reports whether the
// entry was stored.
func (l *TxLog) Append(e model.LogEntry) bool {
	if len(l.entries) >= TxLogCapacity {
		return false
	}
	l.entries = append(l.entries, e)
	return true
}

// Len returns the number of logged events.
func (l *TxLog) Len() int {
	return len(l.entries)
}

// Snapshot returns a copy of the log in append order.
func (l *TxLog) Snapshot() []model.LogEntry {
	out := make([]model.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear empties the log.
func (l *TxLog) Clear() {
	l.entries = l.entries[:0]
}
