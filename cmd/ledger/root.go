package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"facecounter/internal/config"
	"facecounter/internal/repository/sqlite"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and convert the face counter attendance ledger",
	Long: `ledger reads the SQLite state database written by the face counter
server. It lists recorded days and visitors, and converts between the
database and the single-file JSON state format.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dbPath != "" {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.StateBackend == config.BackendSQLite {
			dbPath = cfg.StatePath
		} else {
			dbPath = filepath.Join(".", "data", "attendance.db")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite state database (default: STATE_PATH from config)")
}

func openStore() (*sqlite.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return sqlite.NewStore(dbPath)
}
