// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the history data access layer for Decoy.
// This file contains the SQLite implementation of the database store.
package db // import "github.com/strayfield/decoy/internal/db"

import (
	"fmt"

	"github.com/strayfield/decoy/internal/model"
	"github.com/uptrace/bun"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SqliteStore is the SQLite implementation of the Store interface.
type SqliteStore struct {
	bun *bun.DB
}

// RecordCredential persists a captured credential for the given card.
func (s *SqliteStore) RecordCredential(cardUID string, c model.CapturedCredential) error {
	err := RecordCredentialBun(s.bun, cardUID, c)
	if err == nil {
		_ = s.LogAction("RECORD_CREDENTIAL", fmt.Sprintf("card: %s, credential: %s", cardUID, c))
	}
	return err
}

// GetCredentialsForCard retrieves all credentials captured from one card.
func (s *SqliteStore) GetCredentialsForCard(cardUID string) ([]model.StoredCredential, error) {
	return GetCredentialsForCardBun(s.bun, cardUID)
}

// GetAllCredentials retrieves every persisted credential.
func (s *SqliteStore) GetAllCredentials() ([]model.StoredCredential, error) {
	return GetAllCredentialsBun(s.bun)
}

// AddSession persists a finished session summary and returns its ID.
func (s *SqliteStore) AddSession(rec model.SessionRecord) (int, error) {
	id, err := AddSessionBun(s.bun, rec)
	if err == nil {
		_ = s.LogAction("ADD_SESSION", fmt.Sprintf("card: %s, mode: %s", rec.CardUID, rec.Mode))
	}
	return id, err
}

// GetAllSessions retrieves all recorded sessions, most recent first.
func (s *SqliteStore) GetAllSessions() ([]model.SessionRecord, error) {
	return GetAllSessionsBun(s.bun)
}

// LogAction records an audit trail event.
func (s *SqliteStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// GetAllAuditLogEntries retrieves all entries from the audit log, most recent first.
func (s *SqliteStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// ExportDataForBackup retrieves all data from the database for a backup.
// It uses a transaction to ensure a consistent snapshot of the data.
func (s *SqliteStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the database from a backup data structure.
// It performs a full wipe-and-replace within a single transaction to ensure atomicity.
func (s *SqliteStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}
