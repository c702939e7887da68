package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update the database schema and exit.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		log.Info("database schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
