package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"securemate/backend/internal/domain/account"
)

func newClaimsCmd(get getter) *cobra.Command {
	claims := &cobra.Command{
		Use:   "claims",
		Short: "Manage account custom claims",
	}

	var (
		uid      string
		userType string
		admin    bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Set user_type and the admin flag on an account",
		Long: `Set the user_type claim (client or bodyguard) and optionally the admin flag.
Other claims on the account are kept. The user must sign in again for the
new claims to reach their ID token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := account.UserType(userType)
			if t != account.UserTypeClient && t != account.UserTypeBodyguard {
				return fmt.Errorf("--user-type must be client or bodyguard, got %q", userType)
			}
			a, ctx, cancel, err := get(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			out, err := a.roles.SetRole(ctx, uid, t, admin)
			if err != nil {
				return fmt.Errorf("set claims: %w", err)
			}
			keys := make([]string, 0, len(out))
			for k := range out {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(cmd.OutOrStdout(), "ok: claims set for %s\n", uid)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s=%v\n", k, out[k])
			}
			return nil
		},
	}
	set.Flags().StringVar(&uid, "uid", "", "Target account uid (required)")
	set.Flags().StringVar(&userType, "user-type", string(account.UserTypeClient), "client or bodyguard")
	set.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	_ = set.MarkFlagRequired("uid")

	claims.AddCommand(set)
	return claims
}
