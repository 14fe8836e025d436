package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/surveyhub/surveyhub/internal/profiles"
)

const minPasswordLength = 6

func newCreateUserCommand(a *app) *cobra.Command {
	var (
		email string
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a confirmed account",
		Long: `create-user registers an account that can sign in immediately.
The password is read from the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if a.password == nil {
				return errNotConfigured
			}
			password, err := a.password("Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if len(password) < minPasswordLength {
				return fmt.Errorf("password must be at least %d characters", minPasswordLength)
			}
			confirm, err := a.password("Confirm password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if confirm != password {
				return fmt.Errorf("passwords do not match")
			}

			deps, err := a.open(cmd)
			if err != nil {
				return err
			}
			if deps.Users == nil {
				return errNotConfigured
			}
			role := profiles.RoleUser
			if admin {
				role = profiles.RoleAdmin
			}
			user, err := deps.Users.CreateConfirmedUser(cmd.Context(), email, password, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) with role %s\n", user.Email, user.ID, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address of the new account")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	return cmd
}

func newGrantRoleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "grant-role <email> <role>",
		Short: "Set the role of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := profiles.ParseRole(args[1])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q (want admin or user)", args[1])
			}
			deps, err := a.open(cmd)
			if err != nil {
				return err
			}
			if deps.Users == nil || deps.Profiles == nil {
				return errNotConfigured
			}
			user, err := deps.Users.FindUser(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("find %s: %w", args[0], err)
			}
			if err := deps.Profiles.Grant(cmd.Context(), user.ID, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, role)
			return nil
		},
	}
}

func newProfilesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List profiles and their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := a.open(cmd)
			if err != nil {
				return err
			}
			if deps.Profiles == nil {
				return errNotConfigured
			}
			list, err := deps.Profiles.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROLE\tCREATED")
			for _, p := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Role, p.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}
