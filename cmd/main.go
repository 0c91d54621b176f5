package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/soundchat/internal/services"
	"github.com/desertthunder/soundchat/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("SOUNDCHAT_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config, err := shared.ResolveConfig(configPath, ".env")
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		config = shared.DefaultConfig()
		shared.ApplyEnv(config)
	}
	shared.SetLogLevel(logger, config.Log.Level)

	opts := RunnerOpts{Config: config, Logger: logger}

	svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), services.CatalogOptions(config.Catalog)...)
	if err != nil {
		logger.Debug("catalog provider not configured", "error", err)
	} else {
		opts.Catalog = svc
		opts.Auth = svc
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "soundchat",
		Usage:    "Collaborative playlists & comments over the Spotify catalog",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
