package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/foro/shared/domain"
	"github.com/itchan-dev/foro/shared/jwt"
)

var (
	tokenName  string
	tokenAdmin bool
	tokenTTL   time.Duration
)

// tokenCmd mints a session token
var tokenCmd = &cobra.Command{
	Use:   "token <idcuenta>",
	Short: "Mint a session token for local testing",
	Long: `Signs a session token with JWT_SECRET. Put it in the accessToken
cookie to post replies against a local gateway.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		token, err := jwt.New(secret, tokenTTL).NewToken(domain.Account{
			Id:          domain.AccountId(args[0]),
			DisplayName: tokenName,
			Admin:       tokenAdmin,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "nombre", "", "display name claim")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "set the admin claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
