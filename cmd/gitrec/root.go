package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yungbote/gitrec/internal/platform/logger"
)

type cli struct {
	configPath      string
	credentialsPath string
	apiURL          string
	token           string
	jsonOutput      bool
	verbose         bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "gitrec",
		Short: "Generate and version GitHub recommendations",
		Long: `gitrec serves the recommendation API and talks to it.

Examples:
  gitrec serve                                   # Run the API
  gitrec user create --email me@example.com      # Provision an account
  gitrec login --email me@example.com            # Store an access token
  gitrec generate --subject octocat --relationship "We shipped v2 together" --pick 1
  gitrec history <recommendation-id>             # List versions
  gitrec revert <recommendation-id> 1 --reason "too long"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "Path to gitrec.yaml (defaults to $GITREC_CONFIG or ./config/gitrec.yaml)")
	pf.StringVar(&c.credentialsPath, "credentials", defaultCredentialsPath(), "Where login stores the access token")
	pf.StringVar(&c.apiURL, "api-url", "", "API base URL (overrides config and stored credentials)")
	pf.StringVar(&c.token, "token", "", "Access token (overrides stored credentials)")
	pf.BoolVar(&c.jsonOutput, "json", false, "Output in JSON format")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Log client activity to stderr")

	root.AddCommand(
		newServeCmd(c),
		newUserCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newProfileCmd(c),
		newGenerateCmd(c),
		newShowCmd(c),
		newHistoryCmd(c),
		newCompareCmd(c),
		newRevertCmd(c),
		newRefineCmd(c),
		newEditCmd(c),
	)
	return root
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".gitrec", "credentials.yaml")
	}
	return filepath.Join(dir, "gitrec", "credentials.yaml")
}

func (c *cli) logger() *logger.Logger {
	if !c.verbose {
		return logger.Nop()
	}
	log, err := logger.New("development")
	if err != nil {
		return logger.Nop()
	}
	return log
}
