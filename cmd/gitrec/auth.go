package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	var (
		email    string
		password string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange email and password for an access token",
		Long: `Exchange email and password for an access token and store it in the
credentials file. The password may also come from GITREC_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("GITREC_PASSWORD")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password (or GITREC_PASSWORD) are required")
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			creds, err := openCredentials(c.credentialsPath)
			if err != nil {
				return err
			}
			apiURL := c.resolveAPIURL(cfg, creds)
			client, err := c.newClient(cfg, apiURL, c.logger())
			if err != nil {
				return err
			}
			tok, err := client.IssueToken(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := creds.Save(apiURL, strings.ToLower(strings.TrimSpace(email)), tok.AccessToken); err != nil {
				return err
			}
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), tok)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s (token valid for %ds)\n", apiURL, email, tok.ExpiresIn)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := openCredentials(c.credentialsPath)
			if err != nil {
				return err
			}
			if err := creds.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newProfileCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the account and today's usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer cn.Close()

			snap := cn.session.Snapshot()
			if snap.Profile == nil {
				if snap.Err != nil {
					return snap.Err
				}
				return errors.New("profile unavailable")
			}
			p := *snap.Profile
			if c.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Email:            %s\n", p.Email)
			fmt.Fprintf(w, "Recommendations:  %d\n", p.RecommendationCount)
			if p.DailyLimit > 0 {
				fmt.Fprintf(w, "Used today:       %d of %d (%d left)\n", p.UsedToday, p.DailyLimit, p.Remaining())
			} else {
				fmt.Fprintf(w, "Used today:       %d (no daily limit)\n", p.UsedToday)
			}
			return nil
		},
	}
}
