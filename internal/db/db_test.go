// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/strayfield/decoy/internal/model"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	return dsn
}

func TestInitDB_MigrationsApplied(t *testing.T) {
	dsn := newTestDB(t)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sql.DB for inspection: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	for _, table := range []string{"captured_keys", "sessions", "audit_log", "schema_migrations"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist after migrations: %v", table, err)
		}
	}
}

func TestInitDB_MigrationsIdempotent(t *testing.T) {
	dsn := newTestDB(t)
	// A second init over the same DSN must not fail or re-apply migrations.
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
}

func TestRecordCredential_DuplicateIsSilentlyIgnored(t *testing.T) {
	_ = newTestDB(t)

	cred := model.CapturedCredential{
		Sector: 1,
		Kind:   model.KeyB,
		Key:    model.Key{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
	}
	if err := RecordCredential("04A1B2C3", cred); err != nil {
		t.Fatalf("first RecordCredential failed: %v", err)
	}
	if err := RecordCredential("04A1B2C3", cred); err != nil {
		t.Fatalf("duplicate RecordCredential should be a no-op, got: %v", err)
	}

	creds, err := GetCredentialsForCard("04A1B2C3")
	if err != nil {
		t.Fatalf("GetCredentialsForCard failed: %v", err)
	}
	if len(creds) != 1 {
		t.Fatalf("expected 1 stored credential, got %d", len(creds))
	}
	if creds[0].KeyHex != "AABBCCDDEEFF" || creds[0].Kind != "B" || creds[0].Sector != 1 {
		t.Errorf("stored credential mismatch: %+v", creds[0])
	}
}

func TestRecordCredential_SameKeyDifferentCard(t *testing.T) {
	_ = newTestDB(t)

	cred := model.CapturedCredential{Sector: 0, Kind: model.KeyA, Key: model.Key{1, 2, 3, 4, 5, 6}}
	if err := RecordCredential("CARD-1", cred); err != nil {
		t.Fatalf("record for first card failed: %v", err)
	}
	if err := RecordCredential("CARD-2", cred); err != nil {
		t.Fatalf("record for second card failed: %v", err)
	}

	all, err := GetAllCredentials()
	if err != nil {
		t.Fatalf("GetAllCredentials failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("dedup is per card; expected 2 rows, got %d", len(all))
	}
}

func TestAddSession_RoundTrip(t *testing.T) {
	_ = newTestDB(t)

	started := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)
	rec := model.SessionRecord{
		CardUID:         "04A1B2C3",
		Provider:        "CSC ServiceWorks",
		Mode:            "SUPPRESS",
		AuthCount:       12,
		ReadCount:       40,
		WriteCount:      2,
		OriginalBalance: 500,
		FinalBalance:    500,
		StartedAt:       started,
		EndedAt:         started.Add(90 * time.Second),
	}
	id, err := AddSession(rec)
	if err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive session ID, got %d", id)
	}

	sessions, err := GetAllSessions()
	if err != nil {
		t.Fatalf("GetAllSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.CardUID != rec.CardUID || got.Mode != rec.Mode || got.AuthCount != 12 || got.OriginalBalance != 500 {
		t.Errorf("session round-trip mismatch: %+v", got)
	}
}

func TestAuditLog_RecordsActions(t *testing.T) {
	_ = newTestDB(t)

	if err := LogAction("TOGGLE_MODE", "mode: APPLY"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}
	entries, err := GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries failed: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.Action == "TOGGLE_MODE" && e.Details == "mode: APPLY" {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("audit entry not found in %d entries", len(entries))
	}
}

func TestMapDBError(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Error("nil must map to nil")
	}
	if got := MapDBError(sql.ErrNoRows); got != sql.ErrNoRows {
		t.Errorf("unrelated error must pass through, got %v", got)
	}
}
