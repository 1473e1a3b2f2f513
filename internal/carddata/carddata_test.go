// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package carddata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/strayfield/decoy/internal/model"
)

const sampleDump = `# test dump
UID: DE AD BE EF
Block 1: 55 42 45 53 54 57 41 53 48 00 00 00 00 00 00 00
Block 4: 64 00 05 00 9B FF FA FF 64 00 00 00 00 00 00 00
Block 7: ?? ?? ?? ?? ?? ?? FF 07 80 69 ?? ?? ?? ?? ?? ??
garbage line that should be ignored
Block 99: 00
`

func TestParseDump(t *testing.T) {
	img, err := ParseDump(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("ParseDump failed: %v", err)
	}
	if img.UID != "DEADBEEF" {
		t.Errorf("unexpected UID: %q", img.UID)
	}
	if !img.Valid[1] || !img.Valid[4] || !img.Valid[7] {
		t.Errorf("expected blocks 1, 4, 7 valid; got %v %v %v", img.Valid[1], img.Valid[4], img.Valid[7])
	}
	for i := 0; i < model.BlockCount; i++ {
		if img.Valid[i] && i != 1 && i != 4 && i != 7 {
			t.Errorf("unexpected valid block %d", i)
		}
	}
	// Unknown bytes load as 0xFF.
	if img.Blocks[7][0] != 0xFF || img.Blocks[7][15] != 0xFF {
		t.Errorf("?? bytes not mapped to 0xFF: % X", img.Blocks[7])
	}
	if img.Provider != "U-Best Wash" {
		t.Errorf("unexpected provider: %q", img.Provider)
	}
}

func TestParseStoredBalance(t *testing.T) {
	img, err := ParseDump(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("ParseDump failed: %v", err)
	}
	bal, cnt, ok := ParseStoredBalance(img)
	if !ok {
		t.Fatal("expected valid balance checksum")
	}
	if bal != 100 {
		t.Errorf("balance = %d, want 100", bal)
	}
	if cnt != 5 {
		t.Errorf("counter = %d, want 5", cnt)
	}
}

func TestParseStoredBalance_BadChecksum(t *testing.T) {
	img := &model.CardImage{}
	img.Valid[BalanceBlock] = true
	img.Blocks[BalanceBlock] = model.Block{0x64, 0x00, 0x00, 0x00, 0x00, 0x00}
	if _, _, ok := ParseStoredBalance(img); ok {
		t.Error("expected checksum failure for non-inverted copy")
	}
}

func TestSetStoredBalance(t *testing.T) {
	img := &model.CardImage{}
	img.Valid[BalanceBlock] = true
	img.Valid[BalanceMirrorBlock] = true

	if err := SetStoredBalance(img, 2500); err != nil {
		t.Fatalf("SetStoredBalance failed: %v", err)
	}
	bal, _, ok := ParseStoredBalance(img)
	if !ok || bal != 2500 {
		t.Fatalf("round-trip balance = %d (ok=%v), want 2500", bal, ok)
	}
	if img.Blocks[BalanceMirrorBlock] != img.Blocks[BalanceBlock] {
		t.Error("mirror block not updated")
	}
	// Shadow copy at bytes 8..9.
	b := img.Blocks[BalanceBlock]
	if b[8] != b[0] || b[9] != b[1] {
		t.Errorf("shadow bytes not mirrored: % X", b)
	}

	var missing model.CardImage
	if err := SetStoredBalance(&missing, 100); err == nil {
		t.Error("expected error when balance block is absent")
	}
}

func TestDetectProvider_CSC(t *testing.T) {
	img := &model.CardImage{}
	img.Valid[2] = true
	img.Blocks[2] = model.Block{0x01, 0x01}
	if got := DetectProvider(img); got != "CSC ServiceWorks" {
		t.Errorf("provider = %q", got)
	}
	if got := DetectProvider(&model.CardImage{}); got != "Unknown" {
		t.Errorf("empty image provider = %q", got)
	}
}

func TestWriteDump_RoundTrip(t *testing.T) {
	img, err := ParseDump(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("ParseDump failed: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteDump(&buf, img); err != nil {
		t.Fatalf("WriteDump failed: %v", err)
	}
	again, err := ParseDump(&buf)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if again.UID != img.UID {
		t.Errorf("UID changed across round trip: %q vs %q", again.UID, img.UID)
	}
	if again.Blocks[4] != img.Blocks[4] {
		t.Errorf("block 4 changed across round trip")
	}
}

func TestDecodeBalance(t *testing.T) {
	if got := DecodeBalance(model.Block{0x64, 0x00}); got != 100 {
		t.Errorf("DecodeBalance = %d, want 100", got)
	}
	if got := DecodeBalance(model.Block{0xFF, 0xFF}); got != MaxBalance {
		t.Errorf("DecodeBalance = %d, want %d", got, MaxBalance)
	}
}
