// package formatter renders collection playlists as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/shared"
)

// Format names an export rendering.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat accepts a format name, case-insensitively; "md" and "txt" are aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension, without the dot, used for the format.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// Export renders the playlist, and for Markdown its comments, in the given format.
func Export(format Format, playlist models.Playlist, comments []models.Comment) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(playlist)
	case FormatMarkdown:
		return ExportToMarkdown(playlist, comments)
	case FormatText:
		return ExportToText(playlist)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts a playlist's tracks to CSV with columns: ID, Track ID, Title, Artist, Album, Added By, Added At
func ExportToCSV(playlist models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Track ID", "Title", "Artist", "Album", "Added By", "Added At"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range playlist.Tracks {
		record := []string{
			track.ID,
			track.CatalogTrackID,
			track.TrackName,
			track.ArtistName,
			track.AlbumName,
			track.AddedBy,
			formatTime(track.AddedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist and its comments to a Markdown document
func ExportToMarkdown(playlist models.Playlist, comments []models.Comment) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", playlist.Name)

	if playlist.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", playlist.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(playlist.Tracks))
	fmt.Fprintf(&buf, "**Visibility**: %s\n", shared.VisibilityString(playlist.Public))
	if !playlist.CreatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Created**: %s\n", formatTime(playlist.CreatedAt))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range playlist.Tracks {
		albumPart := ""
		if track.AlbumName != "" {
			albumPart = fmt.Sprintf(" (%s)", track.AlbumName)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s\n", i+1, track.ArtistName, track.TrackName, albumPart)
	}

	if len(comments) > 0 {
		buf.WriteString("\n## Comments\n\n")
		for _, c := range comments {
			author := c.AuthorName
			if author == "" {
				author = "anonymous"
			}
			fmt.Fprintf(&buf, "- **%s**: %s\n", author, c.Text)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(playlist models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(playlist.Tracks))

	for i, track := range playlist.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.ArtistName, track.TrackName)
	}

	return buf.Bytes(), nil
}

// Filename returns the default export filename for a playlist: {id}_tracks.{ext}
func Filename(playlist models.Playlist, format Format) string {
	return fmt.Sprintf("%s_tracks.%s", playlist.ID, format.Extension())
}

// WriteExport renders the playlist and writes it to path, defaulting to [Filename].
//
// Returns the path written.
func WriteExport(format Format, playlist models.Playlist, comments []models.Comment, path string) (string, error) {
	if path == "" {
		path = Filename(playlist, format)
	}

	data, err := Export(format, playlist, comments)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
