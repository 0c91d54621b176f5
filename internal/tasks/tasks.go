package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/services"
	"github.com/desertthunder/soundchat/internal/shared"
)

// Source reads playlists and their comments.
type Source interface {
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)
	GetPlaylist(ctx context.Context, playlistID string) (models.Playlist, error)
	ListComments(ctx context.Context, playlistID string) ([]models.Comment, error)
}

// APIClient defines the interface for making API requests to the server.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// APISource implements [Source] over the server's HTTP API.
type APISource struct {
	api APIClient
}

// NewAPISource creates a [Source] backed by api.
func NewAPISource(api APIClient) *APISource {
	return &APISource{api: api}
}

// ListPlaylists fetches GET /api/playlists.
func (s *APISource) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	if err := s.get(ctx, "/api/playlists", &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// GetPlaylist fetches GET /api/playlists/{id}; a 404 maps to [shared.ErrPlaylistNotFound].
func (s *APISource) GetPlaylist(ctx context.Context, playlistID string) (models.Playlist, error) {
	var playlist models.Playlist
	if err := s.get(ctx, "/api/playlists/"+url.PathEscape(playlistID), &playlist); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// ListComments fetches GET /api/playlists/{id}/comments.
func (s *APISource) ListComments(ctx context.Context, playlistID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.get(ctx, "/api/playlists/"+url.PathEscape(playlistID)+"/comments", &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *APISource) get(ctx context.Context, path string, v any) error {
	resp, err := s.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	switch {
	case resp.StatusCode == 404:
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, path)
	case !resp.OK():
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", shared.ErrAPIRequest, path, err)
	}
	return nil
}

// Engine runs playlist tasks against a [Source].
type Engine struct {
	source Source
}

// NewEngine creates a new Engine reading from source.
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
