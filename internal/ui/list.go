package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks • %s", len(i.playlist.Tracks), shared.VisibilityString(i.playlist.Public))
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.TrackRef] to implement [list.Item].
type trackItem struct {
	track models.TrackRef
}

func (i trackItem) FilterValue() string { return i.track.TrackName }
func (i trackItem) Title() string       { return i.track.TrackName }
func (i trackItem) Description() string {
	desc := i.track.ArtistName
	if i.track.AlbumName != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.AlbumName)
	}
	return desc
}
