package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundchat/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\nSet credentials.spotify.client_id and client_secret before running 'soundchat serve'\n", path)
}

// SetupDatabase initializes the accounts database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	dbCfg := r.config.Database
	if path := cmd.String("db"); path != "" {
		dbCfg.Path = path
	}
	if dbCfg.Path == "" || dbCfg.Path == shared.MemoryDatabase {
		return fmt.Errorf("%w: database.path must name a file, not %q", shared.ErrInvalidConfig, dbCfg.Path)
	}

	r.logger.Info("initializing database", "path", dbCfg.Path)

	db, err := shared.OpenDatabase(dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		r.logger.Info("rolled back latest migration", "path", dbCfg.Path)
		return r.writePlain("✓ Rolled back latest migration for %s\n", dbCfg.Path)
	}

	r.logger.Infof("setup complete for database: %v", dbCfg.Path)
	return r.writePlain("✓ Database ready at %s\n", dbCfg.Path)
}
