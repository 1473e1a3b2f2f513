// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the history data access layer for Decoy.
// This file contains the MySQL implementation of the database store.
package db // import "github.com/strayfield/decoy/internal/db"

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/strayfield/decoy/internal/model"
	"github.com/uptrace/bun"
)

// MySQLStore is the MySQL implementation of the Store interface.
type MySQLStore struct {
	bun *bun.DB
}

// RecordCredential persists a captured credential for the given card.
func (s *MySQLStore) RecordCredential(cardUID string, c model.CapturedCredential) error {
	err := RecordCredentialBun(s.bun, cardUID, c)
	if err == nil {
		_ = s.LogAction("RECORD_CREDENTIAL", fmt.Sprintf("card: %s, credential: %s", cardUID, c))
	}
	return err
}

// GetCredentialsForCard retrieves all credentials captured from one card.
func (s *MySQLStore) GetCredentialsForCard(cardUID string) ([]model.StoredCredential, error) {
	return GetCredentialsForCardBun(s.bun, cardUID)
}

// GetAllCredentials retrieves every persisted credential.
func (s *MySQLStore) GetAllCredentials() ([]model.StoredCredential, error) {
	return GetAllCredentialsBun(s.bun)
}

// AddSession persists a finished session summary and returns its ID.
func (s *MySQLStore) AddSession(rec model.SessionRecord) (int, error) {
	id, err := AddSessionBun(s.bun, rec)
	if err == nil {
		_ = s.LogAction("ADD_SESSION", fmt.Sprintf("card: %s, mode: %s", rec.CardUID, rec.Mode))
	}
	return id, err
}

// GetAllSessions retrieves all recorded sessions, most recent first.
func (s *MySQLStore) GetAllSessions() ([]model.SessionRecord, error) {
	return GetAllSessionsBun(s.bun)
}

// LogAction records an audit trail event.
func (s *MySQLStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// GetAllAuditLogEntries retrieves all entries from the audit log, most recent first.
func (s *MySQLStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// ExportDataForBackup retrieves all data from the database for a backup.
func (s *MySQLStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the database from a backup data structure.
func (s *MySQLStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}
