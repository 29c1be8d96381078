package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/JustinTDCT/flixcatalog/internal/api"
	"github.com/JustinTDCT/flixcatalog/internal/config"
	"github.com/JustinTDCT/flixcatalog/internal/db"
	"github.com/JustinTDCT/flixcatalog/internal/version"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDB(func(cfg *config.Config, database *db.DB) error {
				if !skipMigrate {
					if err := db.Migrate(database); err != nil {
						return err
					}
				}
				return serve(cmd.Context(), cfg, database)
			})
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on startup")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, database *db.DB) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(cfg, database)
	if n, err := srv.Auth().PurgeExpiredSessions(ctx); err != nil {
		log.Warn().Err(err).Msg("could not purge expired sessions")
	} else if n > 0 {
		log.Info().Int64("sessions", n).Msg("purged expired sessions")
	}

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("version", version.String()).Msg("flixcatalog listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
