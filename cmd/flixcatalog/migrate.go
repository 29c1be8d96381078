package main

import (
	"github.com/spf13/cobra"

	"github.com/JustinTDCT/flixcatalog/internal/config"
	"github.com/JustinTDCT/flixcatalog/internal/db"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	step := func(use, short string, fn func(*db.DB) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withDB(func(_ *config.Config, database *db.DB) error {
					return fn(database)
				})
			},
		}
	}

	migrateCmd.AddCommand(step("up", "Apply all pending migrations", db.Migrate))
	migrateCmd.AddCommand(step("down", "Roll back the most recent migration", db.MigrateDown))
	migrateCmd.AddCommand(step("status", "Show applied and pending migrations", db.MigrationStatus))
	return migrateCmd
}
