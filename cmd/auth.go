package main

import (
	"context"

	"github.com/desertthunder/soundchat/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthURL prints the provider's authorization URL, optionally opening it in a browser.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.requireAuth()
	if err != nil {
		return err
	}

	url := auth.AuthURL(shared.GenerateID())
	if err := r.writePlain("%s\n", url); err != nil {
		return err
	}

	if cmd.Bool("open") {
		if err := r.browser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			return nil
		}
		r.logger.Info("opened authorization URL in browser")
	}

	return nil
}
