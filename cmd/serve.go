package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/soundchat/internal/collection"
	"github.com/desertthunder/soundchat/internal/repositories"
	"github.com/desertthunder/soundchat/internal/server"
	"github.com/desertthunder/soundchat/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
//
// Playlists and comments live in memory for the lifetime of the process; accounts are stored in SQLite.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	serverCfg := r.config.Server
	if port := cmd.Int("port"); port > 0 {
		serverCfg.Port = port
	}
	dbCfg := r.config.Database
	if path := cmd.String("db"); path != "" {
		dbCfg.Path = path
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := shared.OpenDatabase(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	deps := server.Deps{
		Store: collection.NewStore(),
		Users: repositories.NewUserRepository(db),
	}
	if r.catalog != nil {
		deps.Catalog = r.catalog
	} else {
		r.logger.Warn("catalog provider not configured; catalog and auth endpoints will answer 503")
	}
	if r.auth != nil {
		deps.Auth = r.auth
	}

	r.logger.Info("starting server", "addr", serverCfg.Addr(), "database", dbCfg.Path)
	return server.New(serverCfg, deps, r.logger).Run(ctx)
}
