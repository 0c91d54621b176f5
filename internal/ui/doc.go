// Package ui implements an interactive terminal browser for a running soundchat server using bubbletea's Elm
// architecture.
//
// Views:
//  1. [PlaylistListView] : Browse playlists
//  2. [TrackListView] : Tracks of the selected playlist with its comments
//  3. [ExportView] : Progress of an export of the selected playlist
//  4. [ResultView] : Where the export was written
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, e, r, q) with contextual help from
// charmbracelet/bubbles/help.
package ui
