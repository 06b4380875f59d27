package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/gitrec/internal/data/db"
	"github.com/yungbote/gitrec/internal/data/repos"
	"github.com/yungbote/gitrec/internal/services"
)

func newUserCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API accounts directly in the database",
	}
	cmd.AddCommand(newUserCreateCmd(c))
	return cmd
}

func newUserCreateCmd(c *cli) *cobra.Command {
	var (
		email      string
		password   string
		dailyLimit int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account in the configured database.

A daily limit of 0 uses the server-wide quota.daily_limit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			log := c.logger()
			dbService, err := db.NewService(cfg.DB, log)
			if err != nil {
				return err
			}
			defer dbService.Close()
			if err := db.AutoMigrateAll(dbService.DB()); err != nil {
				return fmt.Errorf("automigrate: %w", err)
			}
			userRepo := repos.NewSet(dbService.DB(), log).Users
			auth := services.NewAuthService(dbService.DB(), log, userRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL.Duration)

			u, err := auth.CreateUser(cmd.Context(), email, password, dailyLimit)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (min 8 characters)")
	cmd.Flags().IntVar(&dailyLimit, "daily-limit", 0, "Generations per day (0 = server default)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
