package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivyforms/ivyforms/internal/auth"
	"github.com/ivyforms/ivyforms/internal/model"
	"github.com/ivyforms/ivyforms/internal/store"
)

const minPasswordLen = 8

func newAdminCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}
	cmd.AddCommand(newAdminCreateCmd(opts), newAdminListCmd(opts))
	return cmd
}

func newAdminCreateCmd(opts *options) *cobra.Command {
	var (
		u        model.AdminUser
		role     string
		password string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Long: `Create an admin account.

The password is read from --password or, when omitted, from $IVYFORMS_ADMIN_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("IVYFORMS_ADMIN_PASSWORD")
			}
			if len(password) < minPasswordLen {
				return fmt.Errorf("password must be at least %d characters", minPasswordLen)
			}
			u.Role = model.Role(role)
			if !u.Role.CanManage() {
				return fmt.Errorf("role must be %q or %q", model.RoleAdmin, model.RoleSuperAdmin)
			}

			hash, err := auth.Hash(password)
			if err != nil {
				return err
			}
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.NewUserStore(db).Create(cmd.Context(), &u, hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&u.Username, "username", "", "login name")
	cmd.Flags().StringVar(&u.Email, "email", "", "email address")
	cmd.Flags().StringVar(&u.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&u.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleAdmin), "admin or super_admin")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newAdminListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List admin accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			users, err := store.NewUserStore(db).ListAll(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, u := range users {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
			}
			return nil
		},
	}
}
