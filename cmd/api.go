package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/desertthunder/soundchat/internal/formatter"
	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/services"
	"github.com/desertthunder/soundchat/internal/shared"
	"github.com/desertthunder/soundchat/internal/tasks"
	"github.com/urfave/cli/v3"
)

// client returns the API client, honoring the parent command's --url flag.
func (r *Runner) client(cmd *cli.Command) *services.APIService {
	if base := cmd.String("url"); base != "" {
		return services.NewAPIService(base, nil)
	}
	return r.api
}

// APIGet makes a direct GET request to the server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.client(cmd).Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the server
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.client(cmd).Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, true)
}

// APIDelete makes a direct DELETE request to the server
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	r.logger.Info("DELETE request", "path", path)

	resp, err := r.client(cmd).Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, true)
}

// APIExport fetches a playlist and its comments from the server and writes them to a file.
func (r *Runner) APIExport(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist")
	if shared.IsBlank(playlistID) {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	client := r.client(cmd)
	base := "/api/playlists/" + url.PathEscape(playlistID)

	var playlist models.Playlist
	if err := fetchJSON(ctx, client, base, &playlist); err != nil {
		return err
	}

	var comments []models.Comment
	if err := fetchJSON(ctx, client, base+"/comments", &comments); err != nil {
		return err
	}

	path, err := formatter.WriteExport(format, playlist, comments, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("playlist exported", "playlist", playlist.ID, "format", format, "path", path)
	return r.writePlain("✓ Exported %q (%d tracks, %d comments) to %s\n", playlist.Name, len(playlist.Tracks), len(comments), path)
}

// APIExportAll exports the listed playlists, or all of them, into a directory with a manifest.
func (r *Runner) APIExportAll(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine := tasks.NewEngine(tasks.NewAPISource(r.client(cmd)))
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := engine.BulkExport(ctx, progress, cmd.StringArgs("playlists"), tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d/%d playlists to %s\n", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %s\n", res.PlaylistName, res.Error)
		}
	}
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}

func fetchJSON(ctx context.Context, client *services.APIService, path string, v any) error {
	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", shared.ErrAPIRequest, path, err)
	}
	return nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if len(resp.Body) == 0 {
		return nil
	}
	if _, err := r.output.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	_, err := r.output.Write([]byte("\n"))
	return err
}
