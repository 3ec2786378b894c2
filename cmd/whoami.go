package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/aTrapDeer/portfolio-admin/internal/apiclient"
	"github.com/aTrapDeer/portfolio-admin/internal/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var whoamiToken string

//nolint:gochecknoglobals // Cobra boilerplate
var whoamiEmail string

//nolint:gochecknoglobals // Cobra boilerplate
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Check credentials against the portfolio API",
	Long: `Ask the portfolio API who a token belongs to, the same check the dashboard runs
before serving a page.

Pass a token with --token, or sign in with --email and the password from
ADMIN_PASSWORD.

Example:
  portfolio-admin whoami --token "$TOKEN"
  ADMIN_PASSWORD=... portfolio-admin whoami --email me@example.com`,
	RunE: runWhoami,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().StringVar(&whoamiToken, "token", "", "API token to check")
	whoamiCmd.Flags().StringVar(&whoamiEmail, "email", "", "Sign in as this operator instead of passing a token")
}

func runWhoami(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	cfg := config.Load()
	if err = cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	api, err := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		return errors.Wrap(err, "failed to create API client")
	}

	token := whoamiToken
	if token == "" {
		if whoamiEmail == "" {
			return errors.New("either --token or --email is required")
		}
		token, err = api.Login(ctx, whoamiEmail, os.Getenv("ADMIN_PASSWORD"))
		if err != nil {
			return errors.Wrap(err, "sign in failed")
		}
		if getVerbose() {
			fmt.Fprintln(cmd.ErrOrStderr(), "Signed in, checking token")
		}
	}

	user, err := api.Me(apiclient.WithToken(ctx, token))
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "Unauthenticated")
		}
		return errors.Wrap(err, "token check failed")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as %s\n", user.Display())
	return nil
}
