package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <email> <password> [full_name]",
	Short: "Create an admin account, or promote an existing one",
	Long: `Creates an admin account with the given credentials. When an account with
that email already exists it is promoted to admin, re-activated and its
password is reset.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fullName *string
		if len(args) == 3 {
			fullName = &args[2]
		}

		a, err := newApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		user, created, err := a.users.EnsureAdmin(cmd.Context(), args[0], args[1], fullName)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		if created {
			log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("✅ Admin account created")
		} else {
			log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("✅ Existing account promoted to admin")
		}
		return nil
	},
}
