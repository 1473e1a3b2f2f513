// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package export serializes captured credentials for the persistence
// collaborator. The format is a UTF-8 text file, one credential per line
// as S<sector>:Key<A|B>:<12 hex chars>, preceded by a two-line comment
// header. Each export replaces the previous file wholesale.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/strayfield/decoy/internal/logging"
	"github.com/strayfield/decoy/internal/model"
)

// DefaultPath is where captured keys land when no export path is
// configured.
const DefaultPath = "decoy_captured_keys.txt"

const header = "# Decoy Captured Keys\n# Sector:KeyType:Key\n"

// Render returns the full file contents for the given credentials, in
// capture order. Rendering the same store contents twice is
// byte-identical.
func Render(creds []model.CapturedCredential) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, c := range creds {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteCredentials overwrites path with the rendered credentials. An
// empty store is a success no-op: nothing is written and any prior export
// is left in place.
func WriteCredentials(path string, creds []model.CapturedCredential) error {
	if len(creds) == 0 {
		logging.Debugf("export: no captured keys, skipping write")
		return nil
	}
	if err := os.WriteFile(path, []byte(Render(creds)), 0o600); err != nil {
		return fmt.Errorf("write captured keys to %s: %w", path, err)
	}
	logging.Infof("exported %d captured keys to %s", len(creds), path)
	return nil
}

// WriteStored overwrites path with credentials loaded from the history
// store, using the same file format and empty-store semantics as
// WriteCredentials.
func WriteStored(path string, creds []model.StoredCredential) error {
	if len(creds) == 0 {
		logging.Debugf("export: no stored keys, skipping write")
		return nil
	}
	var sb strings.Builder
	sb.WriteString(header)
	for _, c := range creds {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("write captured keys to %s: %w", path, err)
	}
	logging.Infof("exported %d stored keys to %s", len(creds), path)
	return nil
}
