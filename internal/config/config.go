// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package config loads Decoy's configuration from decoy.yaml, DECOY_*
// environment variables and CLI flags, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		DSN  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`
	Language string `mapstructure:"language" yaml:"language"`
	Debug    bool   `mapstructure:"debug" yaml:"debug"`
	Card     struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"card" yaml:"card"`
	Export struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"export" yaml:"export"`
	Emulation struct {
		ApplyWrites bool `mapstructure:"apply_writes" yaml:"apply_writes"`
	} `mapstructure:"emulation" yaml:"emulation"`
}

// Defaults is the baseline configuration: sqlite history next to the
// binary, English UI, suppress-writes mode.
func Defaults() map[string]any {
	return map[string]any{
		"database.type":          "sqlite",
		"database.dsn":           "./decoy.db",
		"language":               "en",
		"debug":                  false,
		"export.path":            "decoy_captured_keys.txt",
		"card.path":              "",
		"emulation.apply_writes": false,
	}
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Decoy")
		default: // Linux, macOS, etc.
			configDir = "/etc/decoy"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "decoy")
	}

	return filepath.Join(configDir, "decoy.yaml"), nil
}

// LoadConfig builds the configuration from defaults, decoy.yaml (user,
// system, then cwd search paths, or an explicit --config file), DECOY_*
// environment variables, and the command's flags. A missing config file
// is returned as viper.ConfigFileNotFoundError so callers can treat it as
// non-fatal.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFilePath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("decoy")
	v.SetConfigType("yaml")

	// An explicit --config path has the highest file precedence.
	if configFilePath != nil && *configFilePath != "" {
		v.SetConfigFile(*configFilePath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	var readErr error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		readErr = err
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("decoy")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, readErr
}

// WriteConfigFile persists the configuration as YAML to the user (or
// system) config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}

	return nil
}
