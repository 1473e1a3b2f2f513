// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "testing"

func TestKeyString(t *testing.T) {
	k := Key{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	if got := k.String(); got != "AABBCCDDEEFF" {
		t.Errorf("unexpected Key.String(): %q", got)
	}
}

func TestCapturedCredentialString(t *testing.T) {
	c := CapturedCredential{Sector: 3, Kind: KeyB, Key: Key{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}}
	if got := c.String(); got != "S3:KeyB:010203040506" {
		t.Errorf("unexpected CapturedCredential.String(): %q", got)
	}
}

func TestParseKeyKind(t *testing.T) {
	if k, err := ParseKeyKind("b"); err != nil || k != KeyB {
		t.Errorf("ParseKeyKind(b) = %v, %v", k, err)
	}
	if k, err := ParseKeyKind(" A "); err != nil || k != KeyA {
		t.Errorf("ParseKeyKind(A) = %v, %v", k, err)
	}
	if _, err := ParseKeyKind("C"); err == nil {
		t.Error("expected error for invalid key kind")
	}
}

func TestOperationString(t *testing.T) {
	cases := map[Operation]string{OpRead: "READ", OpWrite: "WRITE", OpAuthenticate: "AUTH"}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Operation(%d).String() = %q, want %q", int(op), got, want)
		}
	}
}
