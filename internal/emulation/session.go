// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package emulation is the card interception engine. A Session stands in
// for a real card: it answers the reader frontend's protocol events,
// decides per write whether the effect reaches the virtual card image,
// and harvests every authentication key the reader offers. Handlers are
// invoked synchronously from the reader-emulation context one event at a
// time and must never stall; the display surface reads through try-lock
// snapshots so it can never block the live exchange.
package emulation

import (
	"sync"
	"time"

	"github.com/strayfield/decoy/internal/carddata"
	"github.com/strayfield/decoy/internal/logging"
	"github.com/strayfield/decoy/internal/model"
)

// Handler is the inbound protocol callback contract. The reader-emulation
// layer holds a Handler and invokes it once per protocol event, blocking
// on the boolean grant/deny verdict. Implementations must be non-blocking
// and must always return; capacity exhaustion inside the engine never
// changes a verdict.
type Handler interface {
	// OnAuthenticate is called when the reader authenticates to a sector.
	// It always grants: refusing would stop the reader before it reveals
	// its read/write intentions.
	OnAuthenticate(block int, kind model.KeyKind, key model.Key) bool
	// OnRead is called when the reader reads a block. Pure observation.
	OnRead(block int, data model.Block) bool
	// OnWrite is called when the reader writes a block. The verdict
	// follows the session's write policy.
	OnWrite(block int, data model.Block) bool
}

// Counters are the running session statistics.
type Counters struct {
	Auth  int
	Read  int
	Write int
}

// Snapshot is an immutable view of session state for the display and
// reporting surface.
type Snapshot struct {
	CardUID         string
	Provider        string
	Mode            WritePolicy
	Counters        Counters
	OriginalBalance uint16
	CurrentBalance  uint16
	Keys            []model.CapturedCredential
	Log             []model.LogEntry
	StartedAt       time.Time
}

// Session owns all state for one emulation run: the virtual card image,
// the write policy, counters, balances, the transaction log and the
// credential store. It is created when emulation starts and reset only by
// explicit operator action. All access goes through the session mutex;
// the protocol-event context takes it uncontended in practice because the
// display context only ever try-locks.
type Session struct {
	mu sync.Mutex

	card     *model.CardImage
	mode     WritePolicy
	counters Counters

	originalBalance uint16
	currentBalance  uint16

	log  *TxLog
	keys *KeyStore

	startedAt time.Time
	tick      func() int64
}

var _ Handler = (*Session)(nil)

// NewSession starts a session over the given card image. The image is
// cloned: committed writes mutate the session's copy, never the caller's.
// The original balance is read once from the card and never mutated by
// protocol traffic afterwards.
func NewSession(card *model.CardImage, mode WritePolicy) *Session {
	start := time.Now()
	s := &Session{
		card:      card.Clone(),
		mode:      mode,
		log:       NewTxLog(),
		keys:      NewKeyStore(),
		startedAt: start,
		tick:      func() int64 { return time.Since(start).Milliseconds() },
	}
	if bal, _, ok := carddata.ParseStoredBalance(s.card); ok {
		s.originalBalance = bal
		s.currentBalance = bal
	}
	return s
}

// OnAuthenticate records the offered key and always grants so the reader
// proceeds to disclose its read/write intentions.
func (s *Session) OnAuthenticate(block int, kind model.KeyKind, key model.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Auth++
	sector := block / model.BlocksPerSector
	s.keys.Record(sector, kind, key)
	s.log.Append(model.LogEntry{Block: block, Op: model.OpAuthenticate, Tick: s.tick()})
	return true
}

// OnRead logs the block's current data and grants. Never mutates the
// card image.
func (s *Session) OnRead(block int, data model.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Read++
	s.log.Append(model.LogEntry{Block: block, Op: model.OpRead, Payload: data, Tick: s.tick()})
	return true
}

// OnWrite logs the proposed data, tracks attempted balance changes, and
// returns the write-policy verdict. The balance bookkeeping happens even
// for suppressed writes: the session tracks what the reader attempted as
// distinct from what was committed.
func (s *Session) OnWrite(block int, data model.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters.Write++
	s.log.Append(model.LogEntry{Block: block, Op: model.OpWrite, Payload: data, Tick: s.tick()})

	if carddata.IsBalanceBlock(block) {
		s.currentBalance = carddata.DecodeBalance(data)
	}

	if s.mode != ApplyWrites {
		return false
	}
	if block >= 0 && block < model.BlockCount {
		s.card.Blocks[block] = data
		s.card.Valid[block] = true
	}
	return true
}

// ToggleMode flips the write policy and returns the new mode. Toggling is
// independent of session reset and has no other side effects beyond one
// narrative log line.
func (s *Session) ToggleMode() WritePolicy {
	s.mu.Lock()
	if s.mode == ApplyWrites {
		s.mode = SuppressWrites
	} else {
		s.mode = ApplyWrites
	}
	mode := s.mode
	s.mu.Unlock()

	logging.Infof("write policy changed to %s", mode)
	return mode
}

// SetBalance rewrites the stored balance on the virtual card image,
// checksums included, and re-baselines the session's balance tracking.
// Operator action only; equivalent to loading a card that already
// carried the new amount.
func (s *Session) SetBalance(cents uint16) error {
	s.mu.Lock()
	err := carddata.SetStoredBalance(s.card, cents)
	if err == nil {
		s.originalBalance = cents
		s.currentBalance = cents
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	logging.Infof("stored balance set to %d cents", cents)
	return nil
}

// Mode returns the current write policy.
func (s *Session) Mode() WritePolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Reset clears counters, log, captured keys and restores the current
// balance from the card image. The mode is left as-is. Operator action
// only.
func (s *Session) Reset() {
	s.mu.Lock()
	s.counters = Counters{}
	s.log.Clear()
	s.keys.Clear()
	s.currentBalance = s.originalBalance
	s.mu.Unlock()

	logging.Infof("session reset")
}

// Snapshot returns a consistent copy of the session state. Blocking;
// intended for the operator context (export, teardown, persistence).
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TrySnapshot is the display-surface accessor. It never blocks: when the
// protocol-event context holds the lock the frame is skipped and the
// caller reuses its previous data.
func (s *Session) TrySnapshot() (Snapshot, bool) {
	if !s.mu.TryLock() {
		return Snapshot{}, false
	}
	defer s.mu.Unlock()
	return s.snapshotLocked(), true
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		CardUID:         s.card.UID,
		Provider:        s.card.Provider,
		Mode:            s.mode,
		Counters:        s.counters,
		OriginalBalance: s.originalBalance,
		CurrentBalance:  s.currentBalance,
		Keys:            s.keys.Snapshot(),
		Log:             s.log.Snapshot(),
		StartedAt:       s.startedAt,
	}
}

// Block returns the current contents of one block as presented to the
// reader. Out-of-range blocks read as zero.
func (s *Session) Block(i int) model.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= model.BlockCount {
		return model.Block{}
	}
	return s.card.Blocks[i]
}

// Card returns a copy of the virtual card image as the reader currently
// sees it.
func (s *Session) Card() *model.CardImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card.Clone()
}
