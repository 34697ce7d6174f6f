package main

import (
	"github.com/spf13/cobra"

	"github.com/claude/reptrack/internal/config"
	"github.com/claude/reptrack/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, closer := logging.New(cfg.Log)
	defer closer.Close()

	store, _, err := openStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	log.Info("migrations applied")
	return store.Close()
}
