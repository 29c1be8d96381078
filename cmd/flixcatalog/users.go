package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JustinTDCT/flixcatalog/internal/auth"
	"github.com/JustinTDCT/flixcatalog/internal/config"
	"github.com/JustinTDCT/flixcatalog/internal/db"
	"github.com/JustinTDCT/flixcatalog/internal/users"
)

func newCreateSuperuserCommand(ctx *commandContext) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.ValidatePassword(password); err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u, err := users.New(email, name, hash)
			if err != nil {
				return err
			}
			return ctx.withDB(func(_ *config.Config, database *db.DB) error {
				if err := users.NewRepository(database.DB).CreateSuperuser(cmd.Context(), u); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created (%s)\n", u.Email, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect user accounts",
	}
	usersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(_ *config.Config, database *db.DB) error {
				list, err := users.NewRepository(database.DB).List(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderUsers(list))
				return nil
			})
		},
	})
	usersCmd.AddCommand(newUsersDeleteCommand(ctx))
	return usersCmd
}

func newUsersDeleteCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user with their videos, tags on them and ratings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(_ *config.Config, database *db.DB) error {
				repo := users.NewRepository(database.DB)
				u, err := repo.GetByEmail(cmd.Context(), email)
				if err != nil {
					return fmt.Errorf("find user %s: %w", email, err)
				}
				if err := repo.Delete(cmd.Context(), u.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", u.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func renderUsers(list []users.User) string {
	rows := make([][]string, 0, len(list))
	for _, u := range list {
		var roles []string
		if u.IsSuperuser {
			roles = append(roles, "superuser")
		}
		if u.IsStaff {
			roles = append(roles, "staff")
		}
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			u.Email,
			u.Name,
			strings.Join(roles, ","),
			strconv.FormatBool(u.IsActive),
			lastLogin,
		})
	}
	return renderTable([]string{"Email", "Name", "Roles", "Active", "Last login"}, rows)
}
