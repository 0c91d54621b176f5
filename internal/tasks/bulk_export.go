package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/soundchat/internal/formatter"
	"github.com/desertthunder/soundchat/internal/models"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestName     = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: markdown)
	OutputDir  string           // Base output directory (default: soundchat_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 5, max: 10)
	RateLimit  float64          // Playlist fetches per second (default: 5)
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string `json:"playlistId"`
	PlaylistName string `json:"playlistName"`
	File         string `json:"file,omitempty"`
	Tracks       int    `json:"tracks"`
	Comments     int    `json:"comments"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`

	index int
}

// BulkExportResult summarizes a bulk export and is written as the manifest.
type BulkExportResult struct {
	Format            formatter.Format       `json:"format"`
	OutputDirectory   string                 `json:"outputDirectory"`
	ExportedAt        time.Time              `json:"exportedAt"`
	TotalPlaylists    int                    `json:"totalPlaylists"`
	SuccessfulExports int                    `json:"successfulExports"`
	FailedExports     int                    `json:"failedExports"`
	Results           []PlaylistExportResult `json:"results"`
	ManifestPath      string                 `json:"-"`
}

type exportJob struct {
	index    int
	playlist models.Playlist
	comments []models.Comment
}

// BulkExport exports the given playlists, or every playlist when ids is empty, into opts.OutputDir.
//
// Playlists are fetched at opts.RateLimit and rendered by a pool of opts.NumWorkers. A failure affects only its own
// playlist. Results keep the order of ids.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	opts = withDefaults(opts)

	if len(ids) == 0 {
		e.sendProgress(prog, fetchPlaylistsUpdate())
		playlists, err := e.source.ListPlaylists(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}
		for _, p := range playlists {
			ids = append(ids, p.ID)
		}
		e.sendProgress(prog, foundPlaylistsUpdate(len(ids)))
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		ExportedAt:      time.Now().UTC(),
		TotalPlaylists:  len(ids),
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	produced := make(chan struct{})
	go func() {
		defer close(produced)
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			playlist, comments, err := e.fetch(ctx, id)
			if err != nil {
				results <- PlaylistExportResult{
					index:        i,
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Error:        err.Error(),
				}
				continue
			}

			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), playlist.Name))
			jobs <- exportJob{index: i, playlist: playlist, comments: comments}
		}
	}()

	go func() {
		wg.Wait()
		<-produced
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int { return a.index - b.index })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted after %d of %d playlists: %w", completed, len(ids), err)
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	return result, nil
}

func (e *Engine) fetch(ctx context.Context, playlistID string) (models.Playlist, []models.Comment, error) {
	playlist, err := e.source.GetPlaylist(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	comments, err := e.source.ListComments(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, nil, fmt.Errorf("failed to fetch comments: %w", err)
	}

	return playlist, comments, nil
}

// exportWorker renders playlists from the jobs channel until it is closed.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- exportSinglePlaylist(job, opts)
	}
}

func exportSinglePlaylist(j exportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		index:        j.index,
		PlaylistID:   j.playlist.ID,
		PlaylistName: j.playlist.Name,
		Tracks:       len(j.playlist.Tracks),
		Comments:     len(j.comments),
	}

	path := filepath.Join(opts.OutputDir, formatter.Filename(j.playlist, opts.Format))
	written, err := formatter.WriteExport(opts.Format, j.playlist, j.comments, path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.File = written
	result.Success = true
	return result
}

func withDefaults(opts BulkExportOpts) BulkExportOpts {
	if opts.Format == "" {
		opts.Format = formatter.FormatMarkdown
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("soundchat_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	return opts
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
