package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/JustinTDCT/flixcatalog/internal/config"
	"github.com/JustinTDCT/flixcatalog/internal/db"
	"github.com/JustinTDCT/flixcatalog/internal/logging"
	"github.com/JustinTDCT/flixcatalog/internal/version"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		logging.Setup(logging.Options{
			Level:       cfg.LogLevel,
			File:        cfg.LogFile,
			Development: cfg.IsDevelopment(),
		})
		c.config = cfg
	})
	return c.config, c.configErr
}

// withDB opens the configured database for the duration of fn.
func (c *commandContext) withDB(fn func(*config.Config, *db.DB) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	database, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer database.Close()
	return fn(cfg, database)
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:          "flixcatalog",
		Short:        "Media catalog server",
		Version:      version.String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "TOML configuration file")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newCreateSuperuserCommand(ctx))
	rootCmd.AddCommand(newUsersCommand(ctx))
	return rootCmd
}
