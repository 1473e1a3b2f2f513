// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package emulation

import (
	"testing"

	"github.com/strayfield/decoy/internal/carddata"
	"github.com/strayfield/decoy/internal/model"
)

// testCard builds an image with a checksummed $5.00 balance in block 4.
func testCard(t *testing.T) *model.CardImage {
	t.Helper()
	img := &model.CardImage{UID: "DEADBEEF"}
	img.Valid[carddata.BalanceBlock] = true
	img.Valid[carddata.BalanceMirrorBlock] = true
	if err := carddata.SetStoredBalance(img, 500); err != nil {
		t.Fatalf("SetStoredBalance failed: %v", err)
	}
	return img
}

func balanceWrite(cents uint16) model.Block {
	return model.Block{byte(cents), byte(cents >> 8)}
}

func TestAuthenticateAlwaysGrants(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)
	for i := 0; i < 100; i++ {
		if !s.OnAuthenticate(i%model.BlockCount, model.KeyB, model.Key{byte(i)}) {
			t.Fatalf("auth %d was denied", i)
		}
	}
	if got := s.Snapshot().Counters.Auth; got != 100 {
		t.Errorf("auth counter = %d, want 100", got)
	}
}

// Two auths with identical key bytes but different sector/kind must store
// exactly one credential with the first-seen attribution.
func TestCredentialDedupByKeyBytesOnly(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)
	key := model.Key{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	s.OnAuthenticate(1*model.BlocksPerSector, model.KeyB, key)
	s.OnAuthenticate(2*model.BlocksPerSector, model.KeyA, key)

	keys := s.Snapshot().Keys
	if len(keys) != 1 {
		t.Fatalf("stored %d credentials, want 1", len(keys))
	}
	got := keys[0]
	if got.Sector != 1 || got.Kind != model.KeyB || got.Key != key {
		t.Errorf("first-seen attributes not retained: %+v", got)
	}
}

func TestCredentialStoreCapacity(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)
	for i := 0; i < KeyStoreCapacity+10; i++ {
		s.OnAuthenticate(0, model.KeyA, model.Key{byte(i), 1, 2, 3, 4, 5})
	}
	if got := len(s.Snapshot().Keys); got != KeyStoreCapacity {
		t.Errorf("store holds %d credentials, want %d", got, KeyStoreCapacity)
	}
}

func TestReadNeverMutatesCard(t *testing.T) {
	s := NewSession(testCard(t), ApplyWrites)
	before := s.Card().Blocks

	for i := 0; i < 10; i++ {
		if !s.OnRead(i, model.Block{0xEE}) {
			t.Fatalf("read %d was denied", i)
		}
	}
	if s.Card().Blocks != before {
		t.Error("card image changed after reads")
	}
}

// Scenario: suppress mode. The write is denied, the card is untouched,
// but the attempted balance is still tracked for the analyst.
func TestSuppressedBalanceWrite(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)
	before := s.Card().Blocks[carddata.BalanceBlock]

	if s.OnWrite(carddata.BalanceBlock, balanceWrite(100)) {
		t.Fatal("write granted in suppress mode")
	}
	snap := s.Snapshot()
	if snap.CurrentBalance != 100 {
		t.Errorf("current balance = %d, want 100", snap.CurrentBalance)
	}
	if snap.OriginalBalance != 500 {
		t.Errorf("original balance mutated: %d", snap.OriginalBalance)
	}
	if s.Card().Blocks[carddata.BalanceBlock] != before {
		t.Error("card block changed despite suppressed write")
	}
}

// Scenario: apply mode. Same write is granted and committed.
func TestAppliedBalanceWrite(t *testing.T) {
	s := NewSession(testCard(t), ApplyWrites)
	proposed := balanceWrite(100)

	if !s.OnWrite(carddata.BalanceBlock, proposed) {
		t.Fatal("write denied in apply mode")
	}
	snap := s.Snapshot()
	if snap.CurrentBalance != 100 {
		t.Errorf("current balance = %d, want 100", snap.CurrentBalance)
	}
	if s.Card().Blocks[carddata.BalanceBlock] != proposed {
		t.Error("card block not updated to proposed bytes")
	}
}

func TestWriteToNonBalanceBlock(t *testing.T) {
	s := NewSession(testCard(t), ApplyWrites)
	s.OnWrite(12, model.Block{0x42})
	if got := s.Snapshot().CurrentBalance; got != 500 {
		t.Errorf("current balance = %d after non-balance write, want 500", got)
	}
}

// Scenario: 70 reads. The log keeps the first 64 in order and drops the rest.
func TestTransactionLogDropsNewestOnFull(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)
	for i := 0; i < 70; i++ {
		s.OnRead(i%model.BlockCount, model.Block{byte(i)})
	}
	log := s.Snapshot().Log
	if len(log) != TxLogCapacity {
		t.Fatalf("log length = %d, want %d", len(log), TxLogCapacity)
	}
	for i, e := range log {
		if e.Payload[0] != byte(i) {
			t.Fatalf("entry %d holds payload %d; log order broken", i, e.Payload[0])
		}
	}
	if got := s.Snapshot().Counters.Read; got != 70 {
		t.Errorf("read counter = %d, want 70 (counting is independent of log capacity)", got)
	}
}

func TestToggleModeIsIndependentOfReset(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)
	if got := s.ToggleMode(); got != ApplyWrites {
		t.Fatalf("toggle -> %v, want APPLY", got)
	}
	if got := s.ToggleMode(); got != SuppressWrites {
		t.Fatalf("toggle -> %v, want SUPPRESS", got)
	}

	s.ToggleMode() // back to apply
	s.OnAuthenticate(0, model.KeyA, model.Key{1})
	s.OnWrite(carddata.BalanceBlock, balanceWrite(100))
	s.Reset()

	snap := s.Snapshot()
	if snap.Mode != ApplyWrites {
		t.Error("reset changed the mode")
	}
	if snap.Counters != (Counters{}) || len(snap.Keys) != 0 || len(snap.Log) != 0 {
		t.Errorf("reset did not clear session state: %+v", snap.Counters)
	}
	if snap.CurrentBalance != snap.OriginalBalance {
		t.Errorf("reset did not restore balance: %d vs %d", snap.CurrentBalance, snap.OriginalBalance)
	}
}

func TestTrySnapshotSkipsWhenLocked(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)

	s.mu.Lock()
	if _, ok := s.TrySnapshot(); ok {
		t.Error("TrySnapshot succeeded while the engine holds the lock")
	}
	s.mu.Unlock()

	if _, ok := s.TrySnapshot(); !ok {
		t.Error("TrySnapshot failed on an uncontended session")
	}
}

func TestLogTicksAreMonotonic(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)
	var fake int64
	s.tick = func() int64 { fake += 10; return fake }

	s.OnRead(0, model.Block{})
	s.OnRead(1, model.Block{})
	log := s.Snapshot().Log
	if len(log) != 2 || log[0].Tick >= log[1].Tick {
		t.Errorf("ticks not monotonic: %+v", log)
	}
}

// The caller's image must never be mutated, even by committed writes.
func TestSessionClonesCardImage(t *testing.T) {
	img := testCard(t)
	s := NewSession(img, ApplyWrites)
	s.OnWrite(carddata.BalanceBlock, balanceWrite(1))
	if bal, _, _ := carddata.ParseStoredBalance(img); bal != 500 {
		t.Errorf("caller's image mutated: balance %d", bal)
	}
}

func TestSetBalanceRebaselines(t *testing.T) {
	s := NewSession(testCard(t), SuppressWrites)

	// A suppressed write moves the tracked balance off the baseline first.
	s.OnWrite(carddata.BalanceBlock, balanceWrite(123))

	if err := s.SetBalance(2500); err != nil {
		t.Fatalf("SetBalance failed: %v", err)
	}
	snap := s.Snapshot()
	if snap.OriginalBalance != 2500 || snap.CurrentBalance != 2500 {
		t.Errorf("balance not rebaselined: original=%d current=%d", snap.OriginalBalance, snap.CurrentBalance)
	}
	if bal, _, ok := carddata.ParseStoredBalance(s.Card()); !ok || bal != 2500 {
		t.Errorf("card image balance = %d (valid=%v), want 2500", bal, ok)
	}
}

func TestSetBalanceWithoutValueBlockFails(t *testing.T) {
	s := NewSession(&model.CardImage{UID: "NOVALUE"}, SuppressWrites)
	if err := s.SetBalance(1000); err == nil {
		t.Fatal("expected error for card without a valid value block")
	}
}
