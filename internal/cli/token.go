package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"tap-analytics-service/internal/auth"

	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	var (
		secret  string
		subject string
		role    string
		clients []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Example: `  JWT_SECRET=... tapctl token --subject ops@tap --clients melrose,fancy --ttl 24h
  JWT_SECRET=... tapctl token --subject admin@tap --role ADMIN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}
			r := auth.Role(strings.ToUpper(role))
			if r != auth.RoleAdmin && r != auth.RoleAnalyst {
				return fmt.Errorf("unknown role %q (want ADMIN or ANALYST)", role)
			}
			token, err := auth.IssueAccessToken(secret, subject, r, clients, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	cmd.Flags().StringVar(&subject, "subject", "tapctl", "token subject")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleAnalyst), "ADMIN or ANALYST")
	cmd.Flags().StringSliceVar(&clients, "clients", nil, "client ids the token may read (* for all)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
