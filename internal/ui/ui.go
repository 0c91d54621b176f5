package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundchat/internal/formatter"
	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/tasks"
)

// maxComments is how many of the latest comments the track view shows.
const maxComments = 5

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ExportView
	ResultView
)

// Options configures exports started from the TUI.
type Options struct {
	Format    formatter.Format
	OutputDir string
}

type exportDone struct {
	result *tasks.BulkExportResult
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	source       tasks.Source
	engine       *tasks.Engine
	opts         Options
	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	selected     *models.Playlist
	comments     []models.Comment
	progressChan chan tasks.ProgressUpdate
	done         chan exportDone
	progress     tasks.ProgressUpdate
	result       *tasks.BulkExportResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model reading from source.
func NewModel(ctx context.Context, source tasks.Source, opts Options) *Model {
	if opts.Format == "" {
		opts.Format = formatter.FormatMarkdown
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	playlists := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	playlists.Title = "Playlists"

	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		source:       source,
		engine:       tasks.NewEngine(source),
		opts:         opts,
		playlistList: playlists,
		trackList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by fetching playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(m.listWidth(), m.listHeight())
		m.trackList.SetSize(m.listWidth(), m.listHeight())
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		return m, m.playlistList.SetItems(items)

	case playlistFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.selected = &msg.playlist
		m.comments = msg.comments
		items := make([]list.Item, len(msg.playlist.Tracks))
		for i, track := range msg.playlist.Tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.view = TrackListView
		return m, m.trackList.SetItems(items)

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case exportCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.progressChan = nil
		m.done = nil
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) listWidth() int  { return max(m.width-4, 0) }
func (m *Model) listHeight() int { return max(m.height-8-maxComments, 0) }

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchPlaylists()
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.fetchPlaylist(pl.playlist.ID)
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, m.fetchPlaylists()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchPlaylist(m.selected.ID)
	case key.Matches(msg, m.keys.export):
		m.view = ExportView
		return m, m.startExport()
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = TrackListView
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.ListPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchPlaylist(playlistID string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.source.GetPlaylist(m.ctx, playlistID)
		if err != nil {
			return playlistFetchedMsg{err: err}
		}
		comments, err := m.source.ListComments(m.ctx, playlistID)
		return playlistFetchedMsg{playlist: playlist, comments: comments, err: err}
	}
}

func (m *Model) startExport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 16)
	m.done = make(chan exportDone, 1)
	progress, done := m.progressChan, m.done
	id := m.selected.ID

	go func() {
		result, err := m.engine.BulkExport(m.ctx, progress, []string{id}, tasks.BulkExportOpts{
			Format:     m.opts.Format,
			OutputDir:  m.opts.OutputDir,
			NumWorkers: 1,
		})
		close(progress)
		done <- exportDone{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if progress == nil {
			return exportCompleteMsg{err: fmt.Errorf("no export in progress")}
		}

		update, ok := <-progress
		if !ok {
			d := <-done
			return exportCompleteMsg{result: d.result, err: d.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.export, m.keys.refresh, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", m.trackList.View(), m.renderComments(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderComments() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Comments (%d)", len(m.comments))))
	b.WriteString("\n")

	if len(m.comments) == 0 {
		b.WriteString(styles.help.Render("No comments yet"))
		b.WriteString("\n")
		return b.String()
	}

	start := max(len(m.comments)-maxComments, 0)
	for _, c := range m.comments[start:] {
		author := c.AuthorName
		if author == "" {
			author = "anonymous"
		}
		fmt.Fprintf(&b, "  %s: %s\n", styles.ok.Render(author), c.Text)
	}
	return b.String()
}

func (m *Model) renderExport() string {
	title := styles.title.Render(fmt.Sprintf("Exporting '%s'", m.selected.Name))

	phase := "Starting..."
	if m.progress.Message != "" {
		phase = m.progress.Message
	}

	return fmt.Sprintf("%s\n\n%s (%s)", title, phase, m.progress.Phase)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil || len(m.result.Results) == 0 {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	res := m.result.Results[0]
	if !res.Success {
		return styles.warn.Render(fmt.Sprintf("✗ %s: %s", res.PlaylistName, res.Error)) + "\n\n" + helpView
	}

	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\nComments: %d\nFile: %s\nManifest: %s",
		res.PlaylistName, res.Tracks, res.Comments, res.File, m.result.ManifestPath)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
