// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the history data access layer for Decoy.
// This file contains the zstd-compressed JSON backup and restore path.
package db // import "github.com/strayfield/decoy/internal/db"

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/strayfield/decoy/internal/model"
)

// Backup exports the history store into BackupData.
func Backup(st Store) (*model.BackupData, error) {
	return st.ExportDataForBackup()
}

// WriteBackup writes compressed JSON backup data to writer.
func WriteBackup(data *model.BackupData, w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	return zw.Close()
}

// Restore reads a zstd-compressed JSON backup and imports it via the Store.
// The import is a full wipe-and-replace.
func Restore(r io.Reader, st Store) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}
	return st.ImportDataFromBackup(&data)
}
