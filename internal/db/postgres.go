// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the history data access layer for Decoy.
// This file contains the PostgreSQL implementation of the database store.
package db // import "github.com/strayfield/decoy/internal/db"

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver via database/sql
	"github.com/strayfield/decoy/internal/model"
	"github.com/uptrace/bun"
)

// PostgresStore is the PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	bun *bun.DB
}

// RecordCredential persists a captured credential for the given card.
func (s *PostgresStore) RecordCredential(cardUID string, c model.CapturedCredential) error {
	err := RecordCredentialBun(s.bun, cardUID, c)
	if err == nil {
		_ = s.LogAction("RECORD_CREDENTIAL", fmt.Sprintf("card: %s, credential: %s", cardUID, c))
	}
	return err
}

// GetCredentialsForCard retrieves all credentials captured from one card.
func (s *PostgresStore) GetCredentialsForCard(cardUID string) ([]model.StoredCredential, error) {
	return GetCredentialsForCardBun(s.bun, cardUID)
}

// GetAllCredentials retrieves every persisted credential.
func (s *PostgresStore) GetAllCredentials() ([]model.StoredCredential, error) {
	return GetAllCredentialsBun(s.bun)
}

// AddSession persists a finished session summary and returns its ID.
func (s *PostgresStore) AddSession(rec model.SessionRecord) (int, error) {
	id, err := AddSessionBun(s.bun, rec)
	if err == nil {
		_ = s.LogAction("ADD_SESSION", fmt.Sprintf("card: %s, mode: %s", rec.CardUID, rec.Mode))
	}
	return id, err
}

// GetAllSessions retrieves all recorded sessions, most recent first.
func (s *PostgresStore) GetAllSessions() ([]model.SessionRecord, error) {
	return GetAllSessionsBun(s.bun)
}

// LogAction records an audit trail event.
func (s *PostgresStore) LogAction(action string, details string) error {
	return LogActionBun(s.bun, action, details)
}

// GetAllAuditLogEntries retrieves all entries from the audit log, most recent first.
func (s *PostgresStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	return GetAllAuditLogEntriesBun(s.bun)
}

// ExportDataForBackup retrieves all data from the database for a backup.
func (s *PostgresStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

// ImportDataFromBackup restores the database from a backup data structure.
func (s *PostgresStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}
