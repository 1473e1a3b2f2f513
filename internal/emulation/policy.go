// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package emulation

// WritePolicy decides whether granted writes are committed to the virtual
// card. Sessions start in SuppressWrites so reader-initiated changes are
// never persisted by accident.
type WritePolicy int

const (
	// SuppressWrites denies writes at the protocol level; the reader sees
	// a normal rejection and the card image is left unchanged.
	SuppressWrites WritePolicy = iota
	// ApplyWrites grants writes and commits the proposed bytes into the
	// virtual card image.
	ApplyWrites
)

// String returns a short operator-facing mode name.
func (p WritePolicy) String() string {
	if p == ApplyWrites {
		return "APPLY"
	}
	return "SUPPRESS"
}
