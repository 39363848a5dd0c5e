package main

import (
	"fmt"
	"time"

	"github.com/signald/serverconf/internal/auth"
	"github.com/signald/serverconf/internal/config"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the write API",
	Long: `Issue a bearer token signed with the configured auth secret.

The token authorizes POST and DELETE requests on /api/v1/servers.
Without --ttl the lifetime comes from auth.token_ttl_hours.

Example:
  serverconf token --subject deploy-bot --ttl 1h
  curl -H "Authorization: Bearer $(serverconf token)" ...`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "Subject recorded as the actor of API writes")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (overrides config)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Auth.Type == "none" {
		return fmt.Errorf("authentication is disabled (auth.type=none); no token is needed")
	}

	ttl := tokenTTL
	if ttl <= 0 {
		ttl = time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	}

	authenticator, err := auth.NewTokenAuthenticator(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}
	token, err := authenticator.Issue(tokenSubject, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
