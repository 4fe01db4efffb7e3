package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teamforge/collabd/internal/auth"
)

var (
	tokenSecret string
	tokenRole   string
	tokenTTL    time.Duration
	tokenIssuer string
)

// tokenCmd mints a bearer token offline. Intended for admin access and
// scripted setups; regular clients get tokens from /api/auth/login.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for a user id",
	Long: `Mint a signed bearer token without going through login.

The secret must match the server's auth.secret. This is the only way to
obtain an admin token; admin accounts are not self-registerable.

Examples:
  # Mint an admin token
  collabctl token u-123 --secret "$AUTH_SECRET" --role admin

  # Short-lived user token
  collabctl token u-123 --secret "$AUTH_SECRET" --ttl 15m`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "signing secret (required, must match the server)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "user", "token role: user, project_owner or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "collabd", "token issuer claim")
	_ = tokenCmd.MarkFlagRequired("secret")
}

func runToken(cmd *cobra.Command, args []string) error {
	role := auth.Role(tokenRole)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", tokenRole)
	}

	issuer := auth.NewTokenIssuer([]byte(tokenSecret), tokenTTL, tokenIssuer)
	token, err := issuer.Issue(auth.Identity{UserID: args[0], Role: role})
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	fmt.Println(token)
	return nil
}
