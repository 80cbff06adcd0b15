package commands

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ridecipher/internal/access"
	"ridecipher/internal/crypto"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with $RIDECIPHER_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("RIDECIPHER_JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("RIDECIPHER_JWT_SECRET is not set")
			}
			r, err := access.ParseRole(role)
			if err != nil {
				return err
			}
			tok, err := access.IssueToken([]byte(secret), subject, r, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "caller identity, e.g. a device id")
	cmd.Flags().StringVar(&role, "role", string(access.RoleDevice), "device, operator or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func secretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Print a random 32-byte JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				return err
			}
			fmt.Println(crypto.B64(b))
			return nil
		},
	}
}
