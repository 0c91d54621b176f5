package ui

import (
	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/tasks"
)

type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

type playlistFetchedMsg struct {
	playlist models.Playlist
	comments []models.Comment
	err      error
}

type progressUpdateMsg tasks.ProgressUpdate

type exportCompleteMsg struct {
	result *tasks.BulkExportResult
	err    error
}
