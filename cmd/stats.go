package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/spf13/cobra"
)

var statsFlags struct {
	Username string
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show record statistics of a user",
	Example: `neurodash stats --user alice`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		user, err := db.GetUserByUsername(cmd.Context(), statsFlags.Username)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("user %q does not exist", statsFlags.Username)
		}
		if err != nil {
			return err
		}

		counts, err := db.CountRecords(cmd.Context(), user.ID)
		if err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}

		fmt.Printf("User:            %s (id %d, since %s)\n", user.Username, user.ID, user.CreatedAt.Format(time.DateOnly))
		fmt.Printf("Metric samples:  %s\n", humanize.Comma(counts.MetricSamples))
		fmt.Printf("Dream records:   %s\n", humanize.Comma(counts.DreamRecords))
		fmt.Printf("Chat messages:   %s\n", humanize.Comma(counts.ChatMessages))
		fmt.Printf("Custom settings: %t\n", counts.HasSettings)
		if counts.LastSampleAt != nil {
			fmt.Printf("Last sample:     %s\n", timediff.TimeDiff(*counts.LastSampleAt))
		} else {
			fmt.Println("Last sample:     never")
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsFlags.Username, "user", "u", "", "Username to show statistics for")
	_ = statsCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(statsCmd)
}
