// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/strayfield/decoy/internal/model"

// Store defines the interface for all history-database operations in
// Decoy. This allows for multiple database backends to be implemented.
// The store is only ever touched from the operator context; the live
// protocol-event path never does database I/O.
type Store interface {
	// Captured credential methods. Credentials persist across sessions;
	// identity within one card is the raw key bytes.
	RecordCredential(cardUID string, c model.CapturedCredential) error
	GetCredentialsForCard(cardUID string) ([]model.StoredCredential, error)
	GetAllCredentials() ([]model.StoredCredential, error)

	// Session summary methods.
	AddSession(rec model.SessionRecord) (int, error)
	GetAllSessions() ([]model.SessionRecord, error)

	// Audit log methods.
	LogAction(action string, details string) error
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)

	// Backup methods.
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(data *model.BackupData) error
}
