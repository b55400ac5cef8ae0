// cmd/stockctl/token.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/pkg/auth"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		email   string
		name    string
		role    string
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(cmd.Context()); err != nil {
				return err
			}

			p, err := buildPrincipal(subject, email, name, role)
			if err != nil {
				return err
			}

			expiry := c.cfg.Security.JWTExpiration
			if ttl > 0 {
				expiry = ttl
			}

			token, err := auth.NewTokenManager(c.cfg.Security.JWTSecret, c.cfg.Security.JWTIssuer, expiry).GenerateToken(p)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleViewer), "admin, manager, technician or viewer")
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (default: a new UUID)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: JWT_EXPIRATION)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func buildPrincipal(subject, email, name, role string) (domain.Principal, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return domain.Principal{}, err
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Principal{}, fmt.Errorf("email is required")
	}
	if subject == "" {
		subject = uuid.NewString()
	}

	return domain.Principal{Subject: subject, Email: email, Name: name, Role: r}, nil
}
