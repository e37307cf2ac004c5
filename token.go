package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"projectboard/domain"
	"projectboard/session"
)

func tokenCmd() *cobra.Command {
	var (
		name  string
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token [uid]",
		Short: "Print a bearer token accepted in auth test mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Auth0TestMode {
				return errors.New("token requires AUTH0_TEST_MODE=1")
			}
			user := domain.User{UID: args[0], DisplayName: name, Email: email}
			tok, err := session.SignTestToken([]byte(cfg.TestJWTSecret), user, cfg.Auth0Audience, cfg.Issuer(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
