// Package collection holds playlists and their comments in memory.
//
// A [Store] is the single owner of that state: every operation takes the store's lock, so check-then-act sequences
// such as the duplicate-track check and the append that follows it are atomic with respect to concurrent callers.
// Nothing survives a process restart.
package collection

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/shared"
	"github.com/samber/lo"
)

// Store is the in-memory playlist and comment aggregate.
//
// Playlists and comments are independent collections correlated only by playlist id.
// Values returned by a Store are copies and never alias its internal state.
type Store struct {
	mu        sync.RWMutex
	playlists []*models.Playlist
	comments  []models.Comment
	newID     func() string
	now       func() time.Time
}

// Option configures a [Store].
type Option func(*Store)

// WithIDGenerator replaces [shared.GenerateID] as the id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces [time.Now] as the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// NewStore creates an empty [Store].
func NewStore(opts ...Option) *Store {
	s := &Store{
		newID: shared.GenerateID,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats summarizes the store contents.
type Stats struct {
	Playlists int `json:"playlists"`
	Tracks    int `json:"tracks"`
	Comments  int `json:"comments"`
}

// ListPlaylists returns every playlist, tracks included, in creation order.
func (s *Store) ListPlaylists() []models.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Map(s.playlists, func(p *models.Playlist, _ int) models.Playlist {
		return p.Clone()
	})
}

// GetPlaylist returns the playlist with the given id.
func (s *Store) GetPlaylist(playlistID string) (models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.find(playlistID)
	if !ok {
		return models.Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return p.Clone(), nil
}

// PlaylistWithComments returns a playlist and its comments as one consistent snapshot.
func (s *Store) PlaylistWithComments(playlistID string) (models.Playlist, []models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.find(playlistID)
	if !ok {
		return models.Playlist{}, nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	comments := lo.Filter(s.comments, func(c models.Comment, _ int) bool {
		return c.PlaylistID == playlistID
	})
	return p.Clone(), comments, nil
}

// CreatePlaylist adds an empty public playlist owned by ownerID.
//
// A blank name is rejected with [shared.ErrInvalidInput].
func (s *Store) CreatePlaylist(name, description, ownerID string) (models.Playlist, error) {
	if shared.IsBlank(name) {
		return models.Playlist{}, fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &models.Playlist{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Tracks:      []models.TrackRef{},
		CreatedAt:   s.now(),
		Public:      true,
	}
	s.playlists = append(s.playlists, p)

	return p.Clone(), nil
}

// DeletePlaylist removes a playlist together with every comment that references it.
//
// Deleting an unknown id succeeds without effect.
func (s *Store) DeletePlaylist(playlistID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlists = lo.Reject(s.playlists, func(p *models.Playlist, _ int) bool {
		return p.ID == playlistID
	})
	s.comments = lo.Reject(s.comments, func(c models.Comment, _ int) bool {
		return c.PlaylistID == playlistID
	})
}

// AddTrack appends a track reference to a playlist.
//
// It fails with [shared.ErrPlaylistNotFound] when the playlist does not exist and with [shared.ErrDuplicateTrack]
// when a track with the same catalog id is already in it. Only the catalog id is compared.
func (s *Store) AddTrack(playlistID string, in models.NewTrack) (models.TrackRef, error) {
	if shared.IsBlank(in.CatalogTrackID) {
		return models.TrackRef{}, fmt.Errorf("%w: catalog track id is required", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.find(playlistID)
	if !ok {
		return models.TrackRef{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	if p.HasCatalogTrack(in.CatalogTrackID) {
		return models.TrackRef{}, fmt.Errorf("%w: %s", shared.ErrDuplicateTrack, in.CatalogTrackID)
	}

	track := models.TrackRef{
		ID:             s.newID(),
		CatalogTrackID: in.CatalogTrackID,
		TrackName:      in.TrackName,
		ArtistName:     in.ArtistName,
		AlbumName:      in.AlbumName,
		AddedBy:        in.AddedBy,
		AddedAt:        s.now(),
	}
	p.Tracks = append(p.Tracks, track)

	return track, nil
}

// RemoveTrack removes the track reference with the given id, keeping the order of the rest.
//
// An unknown playlist is [shared.ErrPlaylistNotFound]; an unknown track id in an existing playlist is a no-op.
func (s *Store) RemoveTrack(playlistID, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.find(playlistID)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	p.Tracks = lo.Reject(p.Tracks, func(t models.TrackRef, _ int) bool {
		return t.ID == trackID
	})
	return nil
}

// ListComments returns the comments attached to playlistID in insertion order.
//
// An unknown playlist yields an empty list.
func (s *Store) ListComments(playlistID string) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.comments, func(c models.Comment, _ int) bool {
		return c.PlaylistID == playlistID
	})
}

// AddComment attaches a comment to an existing playlist.
func (s *Store) AddComment(playlistID string, in models.NewComment) (models.Comment, error) {
	if shared.IsBlank(in.Text) {
		return models.Comment{}, fmt.Errorf("%w: comment text is required", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.find(playlistID); !ok {
		return models.Comment{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	c := models.Comment{
		ID:         s.newID(),
		PlaylistID: playlistID,
		Text:       in.Text,
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		CreatedAt:  s.now(),
	}
	s.comments = append(s.comments, c)

	return c, nil
}

// RemoveComment deletes a comment by id; unknown ids are a no-op.
func (s *Store) RemoveComment(commentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments = lo.Reject(s.comments, func(c models.Comment, _ int) bool {
		return c.ID == commentID
	})
}

// Stats counts playlists, tracks across all playlists, and comments.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Playlists: len(s.playlists),
		Tracks: lo.SumBy(s.playlists, func(p *models.Playlist) int {
			return len(p.Tracks)
		}),
		Comments: len(s.comments),
	}
}

// find must be called with s.mu held.
func (s *Store) find(playlistID string) (*models.Playlist, bool) {
	return lo.Find(s.playlists, func(p *models.Playlist) bool {
		return p.ID == playlistID
	})
}
