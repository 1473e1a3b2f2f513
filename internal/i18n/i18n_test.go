// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import "testing"

func TestT_KnownID(t *testing.T) {
	Init("en")
	if got := T("menu.session"); got != "Live Session" {
		t.Errorf("T(menu.session) = %q", got)
	}
}

func TestT_UnknownIDFallsBackToID(t *testing.T) {
	Init("en")
	if got := T("no.such.id"); got != "no.such.id" {
		t.Errorf("unknown ID returned %q", got)
	}
}

func TestSetLang(t *testing.T) {
	SetLang("de")
	defer SetLang("en")
	if got := T("menu.quit"); got != "Beenden" {
		t.Errorf("German menu.quit = %q", got)
	}
}
