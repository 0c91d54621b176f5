package models

import "time"

// Playlist is a named, ordered collection of [TrackRef] values.
//
// Tracks are kept in insertion order, which is also play order.
type Playlist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     string     `json:"userId"`
	Tracks      []TrackRef `json:"tracks"`
	CreatedAt   time.Time  `json:"createdAt"`
	Public      bool       `json:"isPublic"`
}

// Clone returns a deep copy; the track slice is never shared.
func (p Playlist) Clone() Playlist {
	tracks := make([]TrackRef, len(p.Tracks))
	copy(tracks, p.Tracks)
	p.Tracks = tracks
	return p
}

// HasCatalogTrack reports whether a track with the given catalog id is already present.
func (p Playlist) HasCatalogTrack(catalogTrackID string) bool {
	for _, t := range p.Tracks {
		if t.CatalogTrackID == catalogTrackID {
			return true
		}
	}
	return false
}

// TrackRef is a playlist's snapshot of a catalog track, taken when it was added.
//
// ID is generated per insertion; CatalogTrackID is the provider's id and the uniqueness key within a playlist.
type TrackRef struct {
	ID             string    `json:"id"`
	CatalogTrackID string    `json:"trackId"`
	TrackName      string    `json:"trackName"`
	ArtistName     string    `json:"artistName"`
	AlbumName      string    `json:"albumName"`
	AddedBy        string    `json:"addedBy"`
	AddedAt        time.Time `json:"addedAt"`
}

// NewTrack carries the caller-supplied fields of a track insertion.
type NewTrack struct {
	CatalogTrackID string `json:"trackId"`
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	AlbumName      string `json:"albumName"`
	AddedBy        string `json:"userId"`
}

// Comment is free text attached to a playlist by id.
type Comment struct {
	ID         string    `json:"id"`
	PlaylistID string    `json:"playlistId"`
	Text       string    `json:"text"`
	AuthorID   string    `json:"userId"`
	AuthorName string    `json:"userName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewComment carries the caller-supplied fields of a comment.
type NewComment struct {
	Text       string `json:"text"`
	AuthorID   string `json:"userId"`
	AuthorName string `json:"userName"`
}
