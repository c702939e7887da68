package cmd

import (
	"fmt"
	"strings"

	"github.com/neurodash/neurodash/internal/auth"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/spf13/cobra"
)

var tokenFlags struct {
	Username string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for a user",
	Long:  `Issue a bearer token for a user, creating the user if needed. Intended for local testing.`,
	Example: `neurodash token --user alice
curl -H "Authorization: Bearer $(neurodash token -u alice)" localhost:3002/api/signals`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		username := strings.TrimSpace(tokenFlags.Username)
		if username == "" {
			return fmt.Errorf("username must not be empty")
		}

		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		tokens, err := auth.New(cfg.Auth.Secret, auth.WithTTL(cfg.Auth.TokenTTL))
		if err != nil {
			return err
		}

		db, err := database.New(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		user, err := db.GetOrCreateUser(cmd.Context(), username)
		if err != nil {
			return err
		}

		token, err := tokens.IssueToken(user.ID, user.Username)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenFlags.Username, "user", "u", "", "Username to issue the token for")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
