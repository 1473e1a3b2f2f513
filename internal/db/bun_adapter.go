// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/strayfield/decoy/internal/model"
	"github.com/uptrace/bun"
)

// CredentialModel maps the `captured_keys` table for Bun queries.
type CredentialModel struct {
	bun.BaseModel `bun:"table:captured_keys"`
	ID            int       `bun:"id,pk,autoincrement"`
	CardUID       string    `bun:"card_uid"`
	Sector        int       `bun:"sector"`
	Kind          string    `bun:"kind"`
	KeyHex        string    `bun:"key_hex"`
	CapturedAt    time.Time `bun:"captured_at"`
}

// SessionModel maps the `sessions` table for Bun queries.
type SessionModel struct {
	bun.BaseModel   `bun:"table:sessions"`
	ID              int       `bun:"id,pk,autoincrement"`
	CardUID         string    `bun:"card_uid"`
	Provider        string    `bun:"provider"`
	Mode            string    `bun:"mode"`
	AuthCount       int       `bun:"auth_count"`
	ReadCount       int       `bun:"read_count"`
	WriteCount      int       `bun:"write_count"`
	OriginalBalance int       `bun:"original_balance"`
	FinalBalance    int       `bun:"final_balance"`
	StartedAt       time.Time `bun:"started_at"`
	EndedAt         time.Time `bun:"ended_at"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int    `bun:"id,pk,autoincrement"`
	Timestamp     string `bun:"timestamp"`
	Action        string `bun:"action"`
	Details       string `bun:"details"`
}

// --- Mapping helpers (centralized conversions) ---

func credentialModelToModel(c CredentialModel) model.StoredCredential {
	return model.StoredCredential{
		ID:         c.ID,
		CardUID:    c.CardUID,
		Sector:     c.Sector,
		Kind:       c.Kind,
		KeyHex:     c.KeyHex,
		CapturedAt: c.CapturedAt,
	}
}

func sessionModelToModel(s SessionModel) model.SessionRecord {
	return model.SessionRecord{
		ID:              s.ID,
		CardUID:         s.CardUID,
		Provider:        s.Provider,
		Mode:            s.Mode,
		AuthCount:       s.AuthCount,
		ReadCount:       s.ReadCount,
		WriteCount:      s.WriteCount,
		OriginalBalance: s.OriginalBalance,
		FinalBalance:    s.FinalBalance,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
}

// RecordCredentialBun inserts a captured credential if the key is not already
// known for this card. Duplicate keys are a normal outcome of repeated reader
// contact and are silently ignored.
func RecordCredentialBun(bdb *bun.DB, cardUID string, c model.CapturedCredential) error {
	ctx := context.Background()
	_, err := bdb.NewInsert().Model(&CredentialModel{
		CardUID:    cardUID,
		Sector:     c.Sector,
		Kind:       c.Kind.String(),
		KeyHex:     c.Key.String(),
		CapturedAt: time.Now(),
	}).Exec(ctx)
	if mapped := MapDBError(err); mapped == ErrDuplicate {
		return nil
	}
	return err
}

// GetCredentialsForCardBun retrieves all credentials captured from one card,
// ordered by sector then kind.
func GetCredentialsForCardBun(bdb *bun.DB, cardUID string) ([]model.StoredCredential, error) {
	ctx := context.Background()
	var cm []CredentialModel
	if err := bdb.NewSelect().Model(&cm).Where("card_uid = ?", cardUID).OrderExpr("sector, kind").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.StoredCredential, 0, len(cm))
	for _, c := range cm {
		out = append(out, credentialModelToModel(c))
	}
	return out, nil
}

// GetAllCredentialsBun retrieves every persisted credential ordered by card.
func GetAllCredentialsBun(bdb *bun.DB) ([]model.StoredCredential, error) {
	ctx := context.Background()
	var cm []CredentialModel
	if err := bdb.NewSelect().Model(&cm).OrderExpr("card_uid, sector, kind").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.StoredCredential, 0, len(cm))
	for _, c := range cm {
		out = append(out, credentialModelToModel(c))
	}
	return out, nil
}

// AddSessionBun inserts a finished session summary and returns its ID.
func AddSessionBun(bdb *bun.DB, rec model.SessionRecord) (int, error) {
	ctx := context.Background()
	sm := &SessionModel{
		CardUID:         rec.CardUID,
		Provider:        rec.Provider,
		Mode:            rec.Mode,
		AuthCount:       rec.AuthCount,
		ReadCount:       rec.ReadCount,
		WriteCount:      rec.WriteCount,
		OriginalBalance: rec.OriginalBalance,
		FinalBalance:    rec.FinalBalance,
		StartedAt:       rec.StartedAt,
		EndedAt:         rec.EndedAt,
	}
	if _, err := bdb.NewInsert().Model(sm).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return sm.ID, nil
}

// GetAllSessionsBun retrieves all recorded sessions, most recent first.
func GetAllSessionsBun(bdb *bun.DB) ([]model.SessionRecord, error) {
	ctx := context.Background()
	var sm []SessionModel
	if err := bdb.NewSelect().Model(&sm).OrderExpr("started_at DESC, id DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.SessionRecord, 0, len(sm))
	for _, s := range sm {
		out = append(out, sessionModelToModel(s))
	}
	return out, nil
}

// GetAllAuditLogEntriesBun retrieves audit log entries ordered by timestamp desc.
func GetAllAuditLogEntriesBun(bdb *bun.DB) ([]model.AuditLogEntry, error) {
	ctx := context.Background()
	var am []AuditLogModel
	if err := QueryRawInto(ctx, bdb, &am,
		"SELECT id, timestamp, action, details FROM audit_log ORDER BY timestamp DESC"); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(am))
	for _, a := range am {
		out = append(out, model.AuditLogEntry{ID: a.ID, Timestamp: a.Timestamp, Action: a.Action, Details: a.Details})
	}
	return out, nil
}

// LogActionBun inserts an audit log entry.
func LogActionBun(bdb *bun.DB, action string, details string) error {
	ctx := context.Background()
	_, err := ExecRaw(ctx, bdb, "INSERT INTO audit_log (timestamp, action, details) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), action, details)
	return MapDBError(err)
}

// ExportDataForBackupBun exports all tables' data into a model.BackupData using a Bun transaction.
func ExportDataForBackupBun(bdb *bun.DB) (*model.BackupData, error) {
	ctx := context.Background()
	var backup *model.BackupData
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		backup = &model.BackupData{SchemaVersion: 1}

		var creds []CredentialModel
		if err := tx.NewSelect().Model(&creds).Scan(ctx); err != nil {
			return err
		}
		for _, c := range creds {
			backup.Credentials = append(backup.Credentials, credentialModelToModel(c))
		}

		var sessions []SessionModel
		if err := tx.NewSelect().Model(&sessions).Scan(ctx); err != nil {
			return err
		}
		for _, s := range sessions {
			backup.Sessions = append(backup.Sessions, sessionModelToModel(s))
		}

		var als []AuditLogModel
		if err := tx.NewSelect().Model(&als).Scan(ctx); err != nil {
			return err
		}
		for _, a := range als {
			backup.AuditLog = append(backup.AuditLog, model.AuditLogEntry{ID: a.ID, Timestamp: a.Timestamp, Action: a.Action, Details: a.Details})
		}

		return nil
	})
	return backup, err
}

// ImportDataFromBackupBun performs a full wipe-and-replace using a Bun transaction.
func ImportDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		// Wipe tables
		tables := []string{"audit_log", "sessions", "captured_keys"}
		for _, t := range tables {
			if _, err := ExecRaw(ctx, tx, "DELETE FROM "+t); err != nil {
				return err
			}
		}

		for _, c := range backup.Credentials {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO captured_keys (id, card_uid, sector, kind, key_hex, captured_at) VALUES (?, ?, ?, ?, ?, ?)",
				c.ID, c.CardUID, c.Sector, c.Kind, c.KeyHex, c.CapturedAt); err != nil {
				return MapDBError(err)
			}
		}
		for _, s := range backup.Sessions {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO sessions (id, card_uid, provider, mode, auth_count, read_count, write_count, original_balance, final_balance, started_at, ended_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				s.ID, s.CardUID, s.Provider, s.Mode, s.AuthCount, s.ReadCount, s.WriteCount, s.OriginalBalance, s.FinalBalance, s.StartedAt, s.EndedAt); err != nil {
				return MapDBError(err)
			}
		}
		// Audit log timestamps travel as RFC3339 strings; MySQL needs them
		// converted back to time values.
		for _, ale := range backup.AuditLog {
			var ts interface{} = ale.Timestamp
			if parsed, err := time.Parse(time.RFC3339, ale.Timestamp); err == nil {
				ts = parsed
			}
			if _, err := ExecRaw(ctx, tx, "INSERT INTO audit_log (id, timestamp, action, details) VALUES (?, ?, ?, ?)",
				ale.ID, ts, ale.Action, ale.Details); err != nil {
				return MapDBError(err)
			}
		}
		return nil
	})
}
