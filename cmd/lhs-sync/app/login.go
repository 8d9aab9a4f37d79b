package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lhs-project/libre-health-sync/internal/app"
	"github.com/lhs-project/libre-health-sync/internal/llu"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to LibreLinkUp and store the session",
	Long: `Sign in with the follower account and persist the token in the configured
credential store. The password is read from account.passwordFile or the
LHS_ACCOUNT_PASSWORD environment variable. Region redirects are followed.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().String("email", "", "Account email (overrides account.email)")
	loginCmd.Flags().String("region", "", "Initial region (overrides account.region)")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = cfg.Account.Email
	}
	if email == "" {
		return fmt.Errorf("no account email configured: set account.email or pass --email")
	}
	password, err := cfg.Account.GetPassword()
	if err != nil {
		return err
	}

	region := cfg.GetRegion()
	if value, _ := cmd.Flags().GetString("region"); value != "" {
		if region, err = llu.ParseRegion(value); err != nil {
			return err
		}
	}

	store, err := app.NewCredentialStore(cfg)
	if err != nil {
		return err
	}
	sessions := app.NewSessionManager(cfg, store, nil)

	result, err := sessions.Login(cmd.Context(), email, password, region)
	if err != nil {
		if errors.Is(err, llu.ErrTermsRequired) {
			return fmt.Errorf("%w: open the LibreLinkUp app, accept the terms, then log in again", err)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	slog.Info("Logged in", "account", cfg.GetAccountName(), "region", result.Region)
	name := email
	if result.User != nil && result.User.FirstName != "" {
		name = result.User.FirstName + " " + result.User.LastName
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", name, result.Region.DisplayName())
	return err
}
