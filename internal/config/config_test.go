// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)

	got, err := LoadConfig[Config](&cobra.Command{}, Defaults(), nil)
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			t.Fatalf("unexpected error type: %T %v", err, err)
		}
	}
	if got.Database.Type != "sqlite" || got.Database.DSN != "./decoy.db" {
		t.Errorf("unexpected database defaults: %+v", got.Database)
	}
	if got.Language != "en" {
		t.Errorf("language default = %q", got.Language)
	}
	if got.Emulation.ApplyWrites {
		t.Error("apply_writes must default to false (fail-safe suppress mode)")
	}
}

func TestLoadConfig_EnvVars(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)
	t.Setenv("DECOY_DATABASE_TYPE", "postgres")
	t.Setenv("DECOY_EXPORT_PATH", "/tmp/keys.txt")

	got, err := LoadConfig[Config](&cobra.Command{}, Defaults(), nil)
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			t.Fatalf("unexpected error type: %T %v", err, err)
		}
	}
	if got.Database.Type != "postgres" {
		t.Errorf("env var not applied: %+v", got.Database)
	}
	if got.Export.Path != "/tmp/keys.txt" {
		t.Errorf("export path = %q", got.Export.Path)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Chdir(tmp)

	path := filepath.Join(tmp, "custom.yaml")
	content := "database:\n  type: mysql\n  dsn: user@/decoy\nlanguage: de\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := LoadConfig[Config](&cobra.Command{}, Defaults(), &path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.Database.Type != "mysql" || got.Language != "de" {
		t.Errorf("config file not applied: %+v", got)
	}
}
