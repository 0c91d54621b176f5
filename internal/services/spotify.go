// Spotify implementation of [Catalog] and [Authorizer]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/soundchat/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRedirectURI = "http://localhost:3000/callback"
	defaultMarket      = "US"
	defaultLimit       = 20
	maxLimit           = 50
)

var userScopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-modify-public",
	"playlist-modify-private",
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
//
// Tracks listed under an album omit the album object.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       *SpotifyAlbum   `json:"album,omitempty"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	TrackNumber int             `json:"track_number"`
	PreviewURL  *string         `json:"preview_url"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	AlbumType            string          `json:"album_type"`
	Artists              []SpotifyArtist `json:"artists"`
	ReleaseDate          string          `json:"release_date"`
	ReleaseDatePrecision string          `json:"release_date_precision"`
	TotalTracks          int             `json:"total_tracks"`
	Images               []SpotifyImage  `json:"images"`
	URI                  string          `json:"uri"`
}

type page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// SpotifyService implements [Catalog] and [Authorizer] for the Spotify Web API.
//
// Catalog reads use an application token from the client-credentials grant; profile reads use the user's token.
type SpotifyService struct {
	config     *oauth2.Config
	appTokens  oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	market     string
	limit      int
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithHTTPClient sets the client used for API and token requests.
func WithHTTPClient(client *http.Client) SpotifyOption {
	return func(s *SpotifyService) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithBaseURL points API requests at baseURL instead of api.spotify.com.
func WithBaseURL(baseURL string) SpotifyOption {
	return func(s *SpotifyService) {
		if baseURL != "" {
			s.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithAccountsURL points the authorize and token endpoints at accountsURL instead of accounts.spotify.com.
func WithAccountsURL(accountsURL string) SpotifyOption {
	return func(s *SpotifyService) {
		accountsURL = strings.TrimRight(accountsURL, "/")
		s.config.Endpoint = oauth2.Endpoint{
			AuthURL:  accountsURL + "/authorize",
			TokenURL: accountsURL + "/api/token",
		}
	}
}

// WithMarket sets the market used to filter album listings.
func WithMarket(market string) SpotifyOption {
	return func(s *SpotifyService) {
		if market != "" {
			s.market = market
		}
	}
}

// WithLimit sets the page size of catalog listings, capped at 50.
func WithLimit(limit int) SpotifyOption {
	return func(s *SpotifyService) {
		if limit > 0 {
			s.limit = min(limit, maxLimit)
		}
	}
}

// WithRateLimit paces outbound API calls to rps requests per second. Zero or less disables pacing.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			s.limiter = nil
		}
	}
}

// CatalogOptions translates the [shared.CatalogConfig] section into service options.
func CatalogOptions(cfg shared.CatalogConfig) []SpotifyOption {
	return []SpotifyOption{
		WithBaseURL(cfg.BaseURL),
		WithMarket(cfg.Market),
		WithLimit(cfg.Limit),
		WithRateLimit(cfg.RequestsPerSecond),
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
	}
}

// NewSpotifyService creates a Spotify service from OAuth2 credentials ("client_id", "client_secret", "redirect_uri").
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       userScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
		market:     defaultMarket,
		limit:      defaultLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     s.config.Endpoint.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// The source outlives any single request, so it gets a background context carrying our client.
	s.appTokens = cc.TokenSource(s.oauthContext(context.Background()))

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a user token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if shared.IsBlank(code) {
		return nil, fmt.Errorf("%w: authorization code is required", shared.ErrInvalidInput)
	}

	token, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// UserProfile retrieves the profile of the user that owns token.
func (s *SpotifyService) UserProfile(ctx context.Context, token *oauth2.Token) (*SpotifyUser, error) {
	if token == nil || token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var user SpotifyUser
	if err := s.doRequest(ctx, oauth2.StaticTokenSource(token), "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchArtists searches the catalog for artists matching query.
func (s *SpotifyService) SearchArtists(ctx context.Context, query string) ([]SpotifyArtist, error) {
	if shared.IsBlank(query) {
		return nil, fmt.Errorf("%w: search query is required", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "artist")
	params.Set("limit", strconv.Itoa(s.limit))

	var response struct {
		Artists page[SpotifyArtist] `json:"artists"`
	}
	if err := s.doRequest(ctx, s.appTokens, "/search", params, &response); err != nil {
		return nil, err
	}

	return nonNil(response.Artists.Items), nil
}

// ArtistAlbums retrieves an artist's albums and singles sorted newest-first.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string) ([]SpotifyAlbum, error) {
	if shared.IsBlank(artistID) {
		return nil, fmt.Errorf("%w: artist id is required", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("include_groups", "album,single")
	params.Set("market", s.market)
	params.Set("limit", strconv.Itoa(s.limit))

	var response page[SpotifyAlbum]
	endpoint := fmt.Sprintf("/artists/%s/albums", url.PathEscape(artistID))
	if err := s.doRequest(ctx, s.appTokens, endpoint, params, &response); err != nil {
		return nil, err
	}

	albums := nonNil(response.Items)
	SortAlbumsByReleaseDate(albums)
	return albums, nil
}

// AlbumTracks retrieves the tracks of an album.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]SpotifyTrack, error) {
	if shared.IsBlank(albumID) {
		return nil, fmt.Errorf("%w: album id is required", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(maxLimit))

	var response page[SpotifyTrack]
	endpoint := fmt.Sprintf("/albums/%s/tracks", url.PathEscape(albumID))
	if err := s.doRequest(ctx, s.appTokens, endpoint, params, &response); err != nil {
		return nil, err
	}

	return nonNil(response.Items), nil
}

// doRequest performs an authenticated GET against the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, tokens oauth2.TokenSource, endpoint string, params url.Values, result any) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
		}
	}

	token, err := tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: failed to obtain access token: %v", shared.ErrAPIRequest, err)
	}

	apiURL := s.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API error: status %d%s", shared.ErrAPIRequest, resp.StatusCode, errorDetail(resp.Body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// errorDetail extracts the message from a Spotify error object, if there is one.
func errorDetail(body io.Reader) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil || payload.Error.Message == "" {
		return ""
	}
	return ": " + payload.Error.Message
}

var releaseDateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseReleaseDate parses a release date at day, month or year precision.
func ParseReleaseDate(s string) (time.Time, bool) {
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortAlbumsByReleaseDate orders albums newest-first in place.
//
// The sort is stable; albums whose date does not parse keep their relative order after all dated albums.
func SortAlbumsByReleaseDate(albums []SpotifyAlbum) {
	slices.SortStableFunc(albums, func(a, b SpotifyAlbum) int {
		ta, okA := ParseReleaseDate(a.ReleaseDate)
		tb, okB := ParseReleaseDate(b.ReleaseDate)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

var (
	_ Catalog    = (*SpotifyService)(nil)
	_ Authorizer = (*SpotifyService)(nil)
)
