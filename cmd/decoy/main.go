// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Decoy
// application using the Cobra library. It defines the root command,
// subcommands (like replay, export, backup), flags, and the main
// entry point for execution.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/strayfield/decoy/buildvars"
	"github.com/strayfield/decoy/internal/carddata"
	"github.com/strayfield/decoy/internal/config"
	"github.com/strayfield/decoy/internal/db"
	"github.com/strayfield/decoy/internal/emulation"
	"github.com/strayfield/decoy/internal/export"
	"github.com/strayfield/decoy/internal/i18n"
	"github.com/strayfield/decoy/internal/logging"
	"github.com/strayfield/decoy/internal/model"
	"github.com/strayfield/decoy/internal/readersim"
	"github.com/strayfield/decoy/internal/tui"
)

var version = buildvars.VersionOrDefault("dev")

var (
	cfgFile string
	cfg     config.Config
)

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

// newRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decoy",
		Short: "Decoy is a contactless card interception lab.",
		Long: `Decoy emulates a MIFARE Classic card toward a reader and records
everything the reader does: the sector keys it discloses during
authentication, every read, and every attempted write. Writes are
suppressed by default so the emulated card never mutates, while the
reader believes each write succeeded.

Running without a subcommand will launch the interactive TUI.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var cfgPath *string
			if cfgFile != "" {
				cfgPath = &cfgFile
			}
			c, err := config.LoadConfig[config.Config](cmd, config.Defaults(), cfgPath)
			if err != nil {
				// A missing config file is fine; defaults apply.
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return fmt.Errorf("load config: %w", err)
				}
			}
			cfg = c
			applyFlagOverrides(cmd)
			logging.SetDebug(cfg.Debug)
			db.SetDebug(cfg.Debug)
			i18n.Init(cfg.Language)
			if err := db.InitDB(cfg.Database.Type, cfg.Database.DSN); err != nil {
				return fmt.Errorf("initialize history store: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := loadCard(cmd)
			if err != nil {
				return err
			}
			session := newSessionFromFlags(cmd, card)
			started := time.Now()
			tui.Run(session, exportPath())
			persistSession(session, started)
			// Teardown always hands the harvest to the collaborator file.
			if err := export.WriteCredentials(exportPath(), session.Snapshot().Keys); err != nil {
				logging.Errorf("exporting captured keys on exit: %v", err)
			}
			return nil
		},
	}

	cmd.AddCommand(newReplayCmd())
	cmd.AddCommand(newBalanceCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newAuditLogCmd())
	cmd.AddCommand(newBackupCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newMaintenanceCmd())

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is decoy.yaml in the working or user config directory)")
	cmd.PersistentFlags().String("db-type", "sqlite", "History database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "./decoy.db", "History database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `UI language ("en", "de")`)
	cmd.PersistentFlags().String("card", "", "Path to a card dump file to emulate")
	cmd.PersistentFlags().Bool("apply-writes", false, "Commit reader writes to the emulated card instead of suppressing them")

	return cmd
}

// applyFlagOverrides lets explicitly set CLI flags win over the config
// file. Viper binds flags by their flag name, which does not match the
// nested config keys, so the mapping is done here.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if f := flags.Lookup("db-type"); f != nil && f.Changed {
		cfg.Database.Type = f.Value.String()
	}
	if f := flags.Lookup("db-dsn"); f != nil && f.Changed {
		cfg.Database.DSN = f.Value.String()
	}
	if f := flags.Lookup("lang"); f != nil && f.Changed {
		cfg.Language = f.Value.String()
	}
}

// exportPath resolves the captured-keys export target from config.
func exportPath() string {
	if cfg.Export.Path != "" {
		return cfg.Export.Path
	}
	return export.DefaultPath
}

// loadCard reads the card dump named by --card or the config file and
// prepares it for emulation.
func loadCard(cmd *cobra.Command) (*model.CardImage, error) {
	path, _ := cmd.Flags().GetString("card")
	if path == "" {
		path = cfg.Card.Path
	}
	if path == "" {
		return nil, fmt.Errorf("%s", i18n.T("error.no_card"))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open card dump: %w", err)
	}
	defer func() { _ = f.Close() }()

	card, err := carddata.ParseDump(f)
	if err != nil {
		return nil, fmt.Errorf("parse card dump %s: %w", path, err)
	}
	logging.Infof("loaded card %s (provider: %s)", card.UID, card.Provider)
	return card, nil
}

// newSessionFromFlags builds the emulation session honoring --apply-writes
// and the configured default policy.
func newSessionFromFlags(cmd *cobra.Command, card *model.CardImage) *emulation.Session {
	mode := emulation.SuppressWrites
	apply, _ := cmd.Flags().GetBool("apply-writes")
	if apply || cfg.Emulation.ApplyWrites {
		mode = emulation.ApplyWrites
	}
	return emulation.NewSession(card, mode)
}

// persistSession records the finished session and its captured credentials
// in the history store. Persistence failures are logged, not fatal: the
// capture results on screen are already worth more than the record.
func persistSession(session *emulation.Session, started time.Time) {
	snap := session.Snapshot()
	rec := model.SessionRecord{
		CardUID:         snap.CardUID,
		Provider:        snap.Provider,
		Mode:            snap.Mode.String(),
		AuthCount:       snap.Counters.Auth,
		ReadCount:       snap.Counters.Read,
		WriteCount:      snap.Counters.Write,
		OriginalBalance: int(snap.OriginalBalance),
		FinalBalance:    int(snap.CurrentBalance),
		StartedAt:       started,
		EndedAt:         time.Now(),
	}
	if _, err := db.AddSession(rec); err != nil {
		logging.Errorf("failed to persist session: %v", err)
		return
	}
	for _, c := range snap.Keys {
		if err := db.RecordCredential(snap.CardUID, c); err != nil {
			logging.Errorf("failed to persist credential %s: %v", c, err)
		}
	}
}

// newReplayCmd creates the 'replay' command. It runs a scripted reader
// against the emulated card without the TUI, prints a summary, and
// persists the session like an interactive run.
func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a scripted reader against the emulated card",
		Long: `Replays a YAML reader script (a sequence of auth, read and write
steps) against the card named by --card, then prints a session summary.
The session is persisted to the history store exactly like an
interactive one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := loadCard(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open script: %w", err)
			}
			defer func() { _ = f.Close() }()
			script, err := readersim.Parse(f)
			if err != nil {
				return fmt.Errorf("parse script %s: %w", args[0], err)
			}

			session := newSessionFromFlags(cmd, card)
			started := time.Now()
			result, err := script.Run(session, session)
			if err != nil {
				return fmt.Errorf("run script %s: %w", script.Name, err)
			}
			persistSession(session, started)

			snap := session.Snapshot()
			fmt.Printf("script %s against card %s [%s]\n", script.Name, snap.CardUID, snap.Mode)
			fmt.Printf("  granted: %d  denied: %d\n", result.Granted, result.Denied)
			fmt.Printf("  auths: %d  reads: %d  writes: %d\n", snap.Counters.Auth, snap.Counters.Read, snap.Counters.Write)
			fmt.Printf("  balance: %d -> %d\n", snap.OriginalBalance, snap.CurrentBalance)
			fmt.Printf("  keys captured: %d\n", len(snap.Keys))

			return export.WriteCredentials(exportPath(), snap.Keys)
		},
	}
	return cmd
}

// newBalanceCmd creates the 'balance' command, which rewrites the stored
// balance of a card dump on disk.
func newBalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <cents|max>",
		Short: "Rewrite the stored balance in a card dump",
		Long: `Rewrites the checksummed value block of the card dump named by
--card, including the inverted copies and the block 8 mirror. The amount
is given in cents (0-65535) or as "max".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := parseBalanceAmount(args[0])
			if err != nil {
				return err
			}
			card, err := loadCard(cmd)
			if err != nil {
				return err
			}
			if err := carddata.SetStoredBalance(card, cents); err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out, _ = cmd.Flags().GetString("card")
			}
			if out == "" {
				out = cfg.Card.Path
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create dump %s: %w", out, err)
			}
			if err := carddata.WriteDump(f, card); err != nil {
				_ = f.Close()
				return fmt.Errorf("write dump %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write dump %s: %w", out, err)
			}
			_ = db.LogAction("SET_BALANCE", fmt.Sprintf("card: %s, cents: %d", card.UID, cents))
			logging.Infof("stored balance set to %d cents in %s", cents, out)
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output dump file (defaults to rewriting the input)")
	return cmd
}

// parseBalanceAmount accepts a cent amount or one of the preset words.
func parseBalanceAmount(s string) (uint16, error) {
	if strings.EqualFold(s, "max") {
		return carddata.MaxBalance, nil
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid balance %q: amount is cents (0-65535) or \"max\"", s)
	}
	return uint16(v), nil
}

// newExportCmd creates the 'export' command, which writes credentials
// persisted in the history store to the captured-keys file format.
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export persisted captured keys to a text file",
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, _ := cmd.Flags().GetString("uid")
			var (
				creds []model.StoredCredential
				err   error
			)
			if uid != "" {
				creds, err = db.GetCredentialsForCard(uid)
			} else {
				creds, err = db.GetAllCredentials()
			}
			if err != nil {
				return fmt.Errorf("load credentials: %w", err)
			}
			path, _ := cmd.Flags().GetString("out")
			if path == "" {
				path = exportPath()
			}
			if err := export.WriteStored(path, creds); err != nil {
				return err
			}
			_ = db.LogAction("EXPORT_KEYS", fmt.Sprintf("path: %s, keys: %d", path, len(creds)))
			return nil
		},
	}
	cmd.Flags().String("uid", "", "Only export keys captured from this card UID")
	cmd.Flags().String("out", "", "Output file (defaults to the configured export path)")
	return cmd
}

// newHistoryCmd creates the 'history' command, printing persisted session
// summaries.
func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded emulation sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := db.GetAllSessions()
			if err != nil {
				return fmt.Errorf("load sessions: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Println(i18n.T("history.empty"))
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%s  %s\n", s.StartedAt.Format("2006-01-02 15:04"), s)
			}
			return nil
		},
	}
}

// newAuditLogCmd creates the 'audit-log' command, printing operator actions.
func newAuditLogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-log",
		Short: "Show the operator action audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := db.GetAllAuditLogEntries()
			if err != nil {
				return fmt.Errorf("load audit log: %w", err)
			}
			for _, e := range entries {
				fmt.Printf("%s  %-20s %s\n", e.Timestamp, e.Action, e.Details)
			}
			return nil
		},
	}
}

// newBackupCmd creates the 'backup' command, writing the history store as
// zstd-compressed JSON.
func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Write a compressed backup of the history store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := db.ExportDataForBackup()
			if err != nil {
				return fmt.Errorf("export history store: %w", err)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			defer func() { _ = f.Close() }()
			if err := db.WriteBackup(data, f); err != nil {
				return err
			}
			_ = db.LogAction("BACKUP", fmt.Sprintf("path: %s", args[0]))
			logging.Infof("backup written to %s", args[0])
			return nil
		},
	}
}

// newRestoreCmd creates the 'restore' command. The restore is a full
// wipe-and-replace of the history store.
func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the history store from a backup (replaces all data)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open backup file: %w", err)
			}
			defer func() { _ = f.Close() }()
			s, err := db.NewStoreFromDSN(cfg.Database.Type, cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			if err := db.Restore(f, s); err != nil {
				return err
			}
			logging.Infof("history store restored from %s", args[0])
			return nil
		},
	}
}

// newMaintenanceCmd creates the 'maintenance' command, running
// engine-specific housekeeping (VACUUM and friends) on the history store.
func newMaintenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Run database maintenance on the history store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.RunDBMaintenance(cfg.Database.Type, cfg.Database.DSN); err != nil {
				return fmt.Errorf("maintenance: %w", err)
			}
			logging.Infof("maintenance completed for %s", cfg.Database.Type)
			return nil
		},
	}
}
