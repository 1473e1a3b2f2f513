// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data types shared across Decoy: card
// memory layout, protocol operations, captured credentials and the
// records persisted to the history store.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Card geometry constants for the MIFARE Classic 1K layout Decoy emulates.
const (
	BlockSize       = 16 // bytes per block
	BlockCount      = 64 // blocks per card
	BlocksPerSector = 4  // blocks sharing one key pair
	SectorCount     = BlockCount / BlocksPerSector
	KeySize         = 6 // bytes per sector key
)

// Block is the smallest addressable unit of card memory.
type Block [BlockSize]byte

// Key is a raw 6-byte sector key as disclosed by the reader.
type Key [KeySize]byte

// String returns the key as 12 uppercase hex characters.
func (k Key) String() string {
	return fmt.Sprintf("%02X%02X%02X%02X%02X%02X", k[0], k[1], k[2], k[3], k[4], k[5])
}

// KeyKind identifies which of the two per-sector credential roles a key
// was offered as. Key A and Key B typically carry different read/write
// privilege scopes on the card.
type KeyKind int

const (
	KeyA KeyKind = iota
	KeyB
)

// String returns "A" or "B".
func (k KeyKind) String() string {
	if k == KeyB {
		return "B"
	}
	return "A"
}

// ParseKeyKind converts "A"/"B" (any case) into a KeyKind.
func ParseKeyKind(s string) (KeyKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return KeyA, nil
	case "B":
		return KeyB, nil
	}
	return KeyA, fmt.Errorf("invalid key kind: %q", s)
}

// Operation is the protocol event type recorded in the transaction log.
type Operation int

const (
	OpRead Operation = iota
	OpWrite
	OpAuthenticate
)

// String returns a short human-readable operation name.
func (o Operation) String() string {
	switch o {
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	case OpAuthenticate:
		return "AUTH"
	}
	return fmt.Sprintf("OP(%d)", int(o))
}

// CapturedCredential is one sector key the reader disclosed during
// authentication. Identity is the raw key bytes alone; sector and kind
// are the first-seen attribution.
type CapturedCredential struct {
	Sector int
	Kind   KeyKind
	Key    Key
}

// String returns the export line format: S<sector>:Key<A|B>:<12 hex chars>.
func (c CapturedCredential) String() string {
	return fmt.Sprintf("S%d:Key%s:%s", c.Sector, c.Kind, c.Key)
}

// LogEntry is one protocol event, immutable once appended to the
// transaction log. Tick is milliseconds since session start; resolution
// is coarse, so entries in the same tick are ordered by append order only.
type LogEntry struct {
	Block   int
	Op      Operation
	Payload Block
	Tick    int64
}

// CardImage is the emulated card's memory as presented to the reader.
// Blocks without a valid bit set were never loaded from a dump and read
// as zero. Mutated only by committed writes.
type CardImage struct {
	UID      string
	Blocks   [BlockCount]Block
	Valid    [BlockCount]bool
	Provider string
}

// Clone returns a deep copy of the image.
func (c *CardImage) Clone() *CardImage {
	out := *c
	return &out
}

// StoredCredential is a captured sector key as persisted to the history
// store. Unlike the in-session store, persisted credentials are scoped to
// the card they were captured from.
type StoredCredential struct {
	ID         int       `json:"id"`
	CardUID    string    `json:"card_uid"`
	Sector     int       `json:"sector"`
	Kind       string    `json:"kind"`
	KeyHex     string    `json:"key_hex"`
	CapturedAt time.Time `json:"captured_at"`
}

// String returns the export line format for a stored credential.
func (c StoredCredential) String() string {
	return fmt.Sprintf("S%d:Key%s:%s", c.Sector, c.Kind, c.KeyHex)
}

// SessionRecord is a finished emulation session as persisted to the
// history store.
type SessionRecord struct {
	ID              int       `json:"id"`
	CardUID         string    `json:"card_uid"`
	Provider        string    `json:"provider"`
	Mode            string    `json:"mode"`
	AuthCount       int       `json:"auth_count"`
	ReadCount       int       `json:"read_count"`
	WriteCount      int       `json:"write_count"`
	OriginalBalance int       `json:"original_balance"`
	FinalBalance    int       `json:"final_balance"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
}

// String returns a one-line summary for display.
func (s SessionRecord) String() string {
	return fmt.Sprintf("%s [%s] auth=%d read=%d write=%d balance %d -> %d",
		s.CardUID, s.Mode, s.AuthCount, s.ReadCount, s.WriteCount, s.OriginalBalance, s.FinalBalance)
}

// AuditLogEntry records an operator action (mode toggle, export, reset).
type AuditLogEntry struct {
	ID        int    `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

// BackupData is the portable snapshot of the entire history store, used
// by the backup and restore commands.
type BackupData struct {
	SchemaVersion int                `json:"schema_version"`
	Credentials   []StoredCredential `json:"credentials"`
	Sessions      []SessionRecord    `json:"sessions"`
	AuditLog      []AuditLogEntry    `json:"audit_log"`
}
