// package services defines the interfaces for talking to the music catalog provider
// and implements them for Spotify.
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundchat/internal/shared"
	"golang.org/x/oauth2"
)

// Catalog is the read-only view of the music catalog the HTTP API proxies.
//
// Implementations authenticate with application credentials, never with a user's token.
type Catalog interface {
	// SearchArtists returns artists matching a free-text query.
	SearchArtists(ctx context.Context, query string) ([]SpotifyArtist, error)

	// ArtistAlbums returns an artist's albums and singles, newest release first.
	ArtistAlbums(ctx context.Context, artistID string) ([]SpotifyAlbum, error)

	// AlbumTracks returns the tracks of an album in album order.
	AlbumTracks(ctx context.Context, albumID string) ([]SpotifyTrack, error)

	// Name returns the name of the provider (e.g., "Spotify")
	Name() string
}

// Authorizer drives the provider's authorization-code flow for end users.
type Authorizer interface {
	// AuthURL returns the URL a user visits to grant access.
	AuthURL(state string) string

	// Exchange trades an authorization code for a user token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// UserProfile fetches the profile of the user that owns token.
	UserProfile(ctx context.Context, token *oauth2.Token) (*SpotifyUser, error)
}

// Unconfigured stands in for a provider whose credentials are missing.
//
// Every call fails with [shared.ErrServiceUnavailable], so the collection endpoints keep working without a catalog.
type Unconfigured struct{}

func (Unconfigured) Name() string { return "unconfigured" }

func (Unconfigured) SearchArtists(context.Context, string) ([]SpotifyArtist, error) {
	return nil, errUnconfigured
}

func (Unconfigured) ArtistAlbums(context.Context, string) ([]SpotifyAlbum, error) {
	return nil, errUnconfigured
}

func (Unconfigured) AlbumTracks(context.Context, string) ([]SpotifyTrack, error) {
	return nil, errUnconfigured
}

// AuthURL returns an empty string; there is nothing to consent to.
func (Unconfigured) AuthURL(string) string { return "" }

func (Unconfigured) Exchange(context.Context, string) (*oauth2.Token, error) {
	return nil, errUnconfigured
}

func (Unconfigured) UserProfile(context.Context, *oauth2.Token) (*SpotifyUser, error) {
	return nil, errUnconfigured
}

var errUnconfigured = fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, shared.ErrMissingCredentials)

var (
	_ Catalog    = Unconfigured{}
	_ Authorizer = Unconfigured{}
)
