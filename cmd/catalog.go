package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/soundchat/internal/services"
	"github.com/desertthunder/soundchat/internal/shared"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// CatalogArtists searches the catalog for artists matching the query argument.
func (r *Runner) CatalogArtists(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if shared.IsBlank(query) {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	catalog, err := r.requireCatalog()
	if err != nil {
		return err
	}

	r.logger.Info("searching artists", "query", query, "provider", catalog.Name())
	artists, err := catalog.SearchArtists(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Artists matching %q (%d)", query, len(artists)))
	for i, artist := range artists {
		r.writePlain("%d. %s [%s]\n", i+1, artist.Name, artist.ID)
		if len(artist.Genres) > 0 {
			r.writePlain("   %s\n", strings.Join(artist.Genres, ", "))
		}
	}
	return nil
}

// CatalogAlbums lists the albums and singles of an artist, newest first.
func (r *Runner) CatalogAlbums(ctx context.Context, cmd *cli.Command) error {
	artistID := cmd.StringArg("artist")
	if shared.IsBlank(artistID) {
		return fmt.Errorf("%w: artist id is required", shared.ErrMissingArgument)
	}

	catalog, err := r.requireCatalog()
	if err != nil {
		return err
	}

	r.logger.Info("fetching albums", "artist", artistID)
	albums, err := catalog.ArtistAlbums(ctx, artistID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(albums, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Albums (%d)", len(albums)))
	for i, album := range albums {
		r.writePlain("%d. %s (%s, %s) [%s]\n", i+1, album.Name, album.ReleaseDate, album.AlbumType, album.ID)
	}
	return nil
}

// CatalogTracks lists an album's tracks.
func (r *Runner) CatalogTracks(ctx context.Context, cmd *cli.Command) error {
	albumID := cmd.StringArg("album")
	if shared.IsBlank(albumID) {
		return fmt.Errorf("%w: album id is required", shared.ErrMissingArgument)
	}

	catalog, err := r.requireCatalog()
	if err != nil {
		return err
	}

	r.logger.Info("fetching tracks", "album", albumID)
	tracks, err := catalog.AlbumTracks(ctx, albumID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Tracks (%d)", len(tracks)))
	for _, track := range tracks {
		r.writePlain("%2d. %s - %s [%s]\n", track.TrackNumber, track.Name, artistNames(track.Artists), track.ID)
	}
	return nil
}

func artistNames(artists []services.SpotifyArtist) string {
	return strings.Join(lo.Map(artists, func(a services.SpotifyArtist, _ int) string { return a.Name }), ", ")
}
