// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package readersim

import (
	"strings"
	"testing"

	"github.com/strayfield/decoy/internal/carddata"
	"github.com/strayfield/decoy/internal/emulation"
	"github.com/strayfield/decoy/internal/model"
)

const vendScript = `
name: vend cycle
steps:
  - op: auth
    block: 4
    kind: B
    key: AABBCCDDEEFF
  - op: read
    block: 4
  - op: write
    block: 4
    data: "64 00 05 00 9B FF FA FF 64 00 00 00 00 00 00 00"
  - op: read
    block: 5
    times: 3
`

func newTestSession(t *testing.T, mode emulation.WritePolicy) *emulation.Session {
	t.Helper()
	img := &model.CardImage{UID: "CAFE0001"}
	img.Valid[carddata.BalanceBlock] = true
	if err := carddata.SetStoredBalance(img, 500); err != nil {
		t.Fatalf("SetStoredBalance failed: %v", err)
	}
	return emulation.NewSession(img, mode)
}

func TestParse(t *testing.T) {
	sc, err := Parse(strings.NewReader(vendScript))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if sc.Name != "vend cycle" || len(sc.Steps) != 4 {
		t.Errorf("unexpected script: %+v", sc)
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse(strings.NewReader("name: empty\n")); err == nil {
		t.Error("expected error for script without steps")
	}
}

func TestRun_SuppressMode(t *testing.T) {
	sc, err := Parse(strings.NewReader(vendScript))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s := newTestSession(t, emulation.SuppressWrites)

	res, err := sc.Run(s, s)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// auth + 4 reads granted, 1 write denied.
	if res.Granted != 5 || res.Denied != 1 {
		t.Errorf("result = %+v, want 5 granted / 1 denied", res)
	}

	snap := s.Snapshot()
	if snap.Counters != (emulation.Counters{Auth: 1, Read: 4, Write: 1}) {
		t.Errorf("counters = %+v", snap.Counters)
	}
	if len(snap.Keys) != 1 || snap.Keys[0].String() != "S1:KeyB:AABBCCDDEEFF" {
		t.Errorf("captured keys = %+v", snap.Keys)
	}
	if snap.CurrentBalance != 100 {
		t.Errorf("current balance = %d, want 100", snap.CurrentBalance)
	}
}

func TestRun_ApplyMode(t *testing.T) {
	sc, err := Parse(strings.NewReader(vendScript))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s := newTestSession(t, emulation.ApplyWrites)

	res, err := sc.Run(s, s)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Denied != 0 {
		t.Errorf("unexpected denials in apply mode: %+v", res)
	}
	if got := s.Block(carddata.BalanceBlock); got[0] != 0x64 || got[1] != 0x00 {
		t.Errorf("write not committed: % X", got)
	}
}

func TestRun_BadStep(t *testing.T) {
	bad := `
steps:
  - op: auth
    block: 0
    kind: Q
    key: AABBCCDDEEFF
`
	sc, err := Parse(strings.NewReader(bad))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	s := newTestSession(t, emulation.SuppressWrites)
	if _, err := sc.Run(s, s); err == nil {
		t.Error("expected error for invalid key kind")
	}
}
