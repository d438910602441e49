package main

import (
	"fmt"
	"time"

	"github.com/giantgun/BareBtc/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage admin access tokens",
}

// tokenMintCmd signs an access token with the configured JWT key. The token
// is accepted as a bearer token or exchanged for a cookie at /admin/session.
var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint an admin or operator access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.JWTAccessTTL
		}
		jwt := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
		tok, err := jwt.Mint(tokenSubject, tokenRole, auth.TokenTypeAccess, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenMintCmd.Flags().StringVar(&tokenSubject, "subject", "", "user id recorded in audit entries")
	tokenMintCmd.Flags().StringVar(&tokenRole, "role", auth.RoleAdmin, "admin or operator")
	tokenMintCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to JWT_ACCESS_TTL)")
	_ = tokenMintCmd.MarkFlagRequired("subject")
	tokenCmd.AddCommand(tokenMintCmd)
}
