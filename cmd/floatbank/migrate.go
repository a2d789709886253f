package main

import (
	"fmt"

	"github.com/floatbank/floatbank/internal/config"
	"github.com/floatbank/floatbank/internal/logger"
	"github.com/floatbank/floatbank/internal/server"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger.Init(cfg.Log.Format, cfg.Log.Level)

		if _, err := server.OpenDatabase(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
		return nil
	},
}
