package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/soundchat/internal/collection"
	"github.com/desertthunder/soundchat/internal/models"
	"github.com/desertthunder/soundchat/internal/server"
	"github.com/desertthunder/soundchat/internal/services"
	"github.com/desertthunder/soundchat/internal/shared"
	tu "github.com/desertthunder/soundchat/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

type stubCatalog struct {
	artists []services.SpotifyArtist
	albums  []services.SpotifyAlbum
	tracks  []services.SpotifyTrack
	err     error
}

func (s *stubCatalog) Name() string { return "stub" }

func (s *stubCatalog) SearchArtists(context.Context, string) ([]services.SpotifyArtist, error) {
	return s.artists, s.err
}

func (s *stubCatalog) ArtistAlbums(context.Context, string) ([]services.SpotifyAlbum, error) {
	return s.albums, s.err
}

func (s *stubCatalog) AlbumTracks(context.Context, string) ([]services.SpotifyTrack, error) {
	return s.tracks, s.err
}

type stubAuthorizer struct{}

func (stubAuthorizer) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (stubAuthorizer) Exchange(context.Context, string) (*oauth2.Token, error) {
	return nil, shared.ErrNotImplemented
}

func (stubAuthorizer) UserProfile(context.Context, *oauth2.Token) (*services.SpotifyUser, error) {
	return nil, shared.ErrNotImplemented
}

// run executes args against a fresh command tree built from r.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "soundchat", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"soundchat"}, args...))
}

func newTestRunner(opts RunnerOpts) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	opts.Output = output
	if opts.Logger == nil {
		opts.Logger = tu.NewDiscardLogger()
	}
	return NewRunner(opts), output
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			catalog := &stubCatalog{}
			api := services.NewAPIService("http://example.com", nil)

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Catalog: catalog,
				Auth:    stubAuthorizer{},
				API:     api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.auth == nil {
				t.Error("expected auth to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.api == nil {
				t.Error("expected default api client to be set")
			}
			if runner.browser == nil {
				t.Error("expected default browser opener to be set")
			}
			if runner.catalog != nil || runner.auth != nil {
				t.Error("expected catalog and auth to stay unset")
			}
		})

		t.Run("local API URL follows server port", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Server.Port = 4242

			if got := localAPIURL(config); got != "http://localhost:4242" {
				t.Errorf("expected http://localhost:4242, got %s", got)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			runner, output := newTestRunner(RunnerOpts{})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "  \"key\": \"value\"") {
				t.Errorf("expected indented JSON, got %q", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			runner, output := newTestRunner(RunnerOpts{})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "{\"key\":\"value\"}\n" {
				t.Errorf("expected compact JSON, got %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner, _ := newTestRunner(RunnerOpts{})

			err := runner.writeJSON(map[string]any{"ch": make(chan int)}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Logger: tu.NewDiscardLogger()})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			var buf bytes.Buffer
			lw := tu.NewLimitedWriter(1, 0, &buf)
			runner := NewRunner(RunnerOpts{Output: &lw, Logger: tu.NewDiscardLogger()})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
			if buf.String() != "{\"key\":\"value\"}" {
				t.Errorf("expected JSON without newline, got %q", buf.String())
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		runner, output := newTestRunner(RunnerOpts{})

		if err := runner.writePlain("hello %s\n", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world\n" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{})
		commands := runner.register()

		names := make([]string, 0, len(commands))
		for _, c := range commands {
			names = append(names, c.Name)
		}

		want := []string{"serve", "setup", "auth", "catalog", "api", "tui"}
		if strings.Join(names, ",") != strings.Join(want, ",") {
			t.Errorf("expected commands %v, got %v", want, names)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	catalog := &stubCatalog{
		artists: []services.SpotifyArtist{
			{ID: "a1", Name: "Radiohead", Genres: []string{"art rock", "alternative"}},
		},
		albums: []services.SpotifyAlbum{
			{ID: "al2", Name: "A Moon Shaped Pool", ReleaseDate: "2016-05-08", AlbumType: "album"},
			{ID: "al1", Name: "In Rainbows", ReleaseDate: "2007-10-10", AlbumType: "album"},
		},
		tracks: []services.SpotifyTrack{
			{ID: "t1", Name: "Burn the Witch", TrackNumber: 1, Artists: []services.SpotifyArtist{{Name: "Radiohead"}}},
		},
	}

	t.Run("artists plain output", func(t *testing.T) {
		runner, output := newTestRunner(RunnerOpts{Catalog: catalog})

		if err := run(t, runner, "catalog", "artists", "radiohead"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Radiohead [a1]", "art rock, alternative"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected output to contain %q, got %q", want, output.String())
			}
		}
	})

	t.Run("artists JSON output", func(t *testing.T) {
		runner, output := newTestRunner(RunnerOpts{Catalog: catalog})

		if err := run(t, runner, "catalog", "artists", "--json", "radiohead"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var artists []services.SpotifyArtist
		tu.MustDecodeJSON(t, output, &artists)
		if len(artists) != 1 || artists[0].ID != "a1" {
			t.Errorf("unexpected artists: %+v", artists)
		}
	})

	t.Run("albums keep catalog order", func(t *testing.T) {
		runner, output := newTestRunner(RunnerOpts{Catalog: catalog})

		if err := run(t, runner, "catalog", "albums", "a1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := output.String()
		if strings.Index(out, "A Moon Shaped Pool") > strings.Index(out, "In Rainbows") {
			t.Errorf("expected newest album first, got %q", out)
		}
	})

	t.Run("tracks list artist names", func(t *testing.T) {
		runner, output := newTestRunner(RunnerOpts{Catalog: catalog})

		if err := run(t, runner, "catalog", "tracks", "al2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), " 1. Burn the Witch - Radiohead [t1]") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("missing query", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{Catalog: catalog})

		err := run(t, runner, "catalog", "artists")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{})

		err := run(t, runner, "catalog", "artists", "radiohead")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("provider error is returned", func(t *testing.T) {
		failing := &stubCatalog{err: fmt.Errorf("%w: status 502", shared.ErrAPIRequest)}
		runner, _ := newTestRunner(RunnerOpts{Catalog: failing})

		err := run(t, runner, "catalog", "albums", "a1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestAuthURL(t *testing.T) {
	t.Run("prints the URL", func(t *testing.T) {
		opened := ""
		runner, output := newTestRunner(RunnerOpts{
			Auth:    stubAuthorizer{},
			Browser: func(url string) error { opened = url; return nil },
		})

		if err := run(t, runner, "auth", "url"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(output.String(), "https://accounts.example.com/authorize?state=") {
			t.Errorf("unexpected output %q", output.String())
		}
		if opened != "" {
			t.Error("expected browser to stay closed without --open")
		}
	})

	t.Run("opens the browser", func(t *testing.T) {
		opened := ""
		runner, output := newTestRunner(RunnerOpts{
			Auth:    stubAuthorizer{},
			Browser: func(url string) error { opened = url; return nil },
		})

		if err := run(t, runner, "auth", "url", "--open"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if opened == "" || opened != strings.TrimSpace(output.String()) {
			t.Errorf("expected browser to open %q, got %q", output.String(), opened)
		}
	})

	t.Run("browser failure is not fatal", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{
			Auth:    stubAuthorizer{},
			Browser: func(string) error { return errors.New("no display") },
		})

		if err := run(t, runner, "auth", "url", "--open"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{})

		if err := run(t, runner, "auth", "url"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes the example file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner, _ := newTestRunner(RunnerOpts{})

		if err := run(t, runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected written config to load, got %v", err)
		}
	})

	t.Run("config refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("# mine\n"), 0644); err != nil {
			t.Fatal(err)
		}
		runner, _ := newTestRunner(RunnerOpts{})

		if err := run(t, runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected error for existing file")
		}
		if got := tu.MustReadFile(t, path); got != "# mine\n" {
			t.Errorf("expected file untouched, got %q", got)
		}
	})

	t.Run("database migrates and rolls back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soundchat.db")
		runner, output := newTestRunner(RunnerOpts{})

		if err := run(t, runner, "setup", "database", "--db", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}

		if err := run(t, runner, "setup", "database", "--db", path, "--rollback"); err != nil {
			t.Fatalf("expected rollback to succeed, got %v", err)
		}
	})

	t.Run("database rejects in-memory path", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = shared.MemoryDatabase
		runner, _ := newTestRunner(RunnerOpts{Config: config})

		if err := run(t, runner, "setup", "database"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func newAPIServer(t *testing.T) (*httptest.Server, *collection.Store) {
	t.Helper()

	store := collection.NewStore()
	srv := server.New(shared.ServerConfig{}, server.Deps{Store: store}, tu.NewDiscardLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, store
}

func TestAPICommands(t *testing.T) {
	t.Run("get prints JSON", func(t *testing.T) {
		ts, store := newAPIServer(t)
		if _, err := store.CreatePlaylist("Road Trip", "", "u1"); err != nil {
			t.Fatal(err)
		}
		runner, output := newTestRunner(RunnerOpts{API: services.NewAPIService(ts.URL, nil)})

		if err := run(t, runner, "api", "get", "/api/playlists"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var playlists []models.Playlist
		tu.MustDecodeJSON(t, output, &playlists)
		if len(playlists) != 1 || playlists[0].Name != "Road Trip" {
			t.Errorf("unexpected playlists: %+v", playlists)
		}
	})

	t.Run("url flag overrides the default client", func(t *testing.T) {
		ts, _ := newAPIServer(t)
		runner, output := newTestRunner(RunnerOpts{API: services.NewAPIService("http://127.0.0.1:1", nil)})

		if err := run(t, runner, "api", "--url", ts.URL, "get", "health"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "\"status\": \"ok\"") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("post creates a playlist", func(t *testing.T) {
		ts, store := newAPIServer(t)
		runner, _ := newTestRunner(RunnerOpts{API: services.NewAPIService(ts.URL, nil)})

		err := run(t, runner, "api", "post", "/api/playlists", "--data", `{"name":"Focus","userId":"u1"}`)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := store.ListPlaylists(); len(got) != 1 || got[0].Name != "Focus" {
			t.Errorf("unexpected playlists: %+v", got)
		}
	})

	t.Run("post rejects invalid JSON", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{})

		err := run(t, runner, "api", "post", "/api/playlists", "--data", "{nope")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		ts, _ := newAPIServer(t)
		runner, _ := newTestRunner(RunnerOpts{API: services.NewAPIService(ts.URL, nil)})

		err := run(t, runner, "api", "get", "/api/playlists/missing")
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "404") {
			t.Errorf("expected ErrAPIRequest with 404, got %v", err)
		}
	})

	t.Run("delete removes a playlist", func(t *testing.T) {
		ts, store := newAPIServer(t)
		p, err := store.CreatePlaylist("Gone", "", "u1")
		if err != nil {
			t.Fatal(err)
		}
		runner, _ := newTestRunner(RunnerOpts{API: services.NewAPIService(ts.URL, nil)})

		if err := run(t, runner, "api", "delete", "/api/playlists/"+p.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := store.GetPlaylist(p.ID); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected playlist to be deleted, got %v", err)
		}
	})

	t.Run("export writes markdown with comments", func(t *testing.T) {
		ts, store := newAPIServer(t)
		p, err := store.CreatePlaylist("Road Trip", "Long drives", "u1")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.AddTrack(p.ID, models.NewTrack{
			CatalogTrackID: "sp-1", TrackName: "Karma Police", ArtistName: "Radiohead", AlbumName: "OK Computer", AddedBy: "u1",
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.AddComment(p.ID, models.NewComment{Text: "great opener", AuthorName: "Bob"}); err != nil {
			t.Fatal(err)
		}

		path := filepath.Join(t.TempDir(), "export.md")
		runner, output := newTestRunner(RunnerOpts{API: services.NewAPIService(ts.URL, nil)})

		if err := run(t, runner, "api", "export", p.ID, "--format", "md", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := tu.MustReadFile(t, path)
		for _, want := range []string{"Road Trip", "Karma Police", "great opener"} {
			if !strings.Contains(content, want) {
				t.Errorf("expected export to contain %q", want)
			}
		}
		if !strings.Contains(output.String(), "1 tracks, 1 comments") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("export-all writes every playlist and a manifest", func(t *testing.T) {
		ts, store := newAPIServer(t)
		for _, name := range []string{"Road Trip", "Focus"} {
			if _, err := store.CreatePlaylist(name, "", "u1"); err != nil {
				t.Fatal(err)
			}
		}

		dir := filepath.Join(t.TempDir(), "out")
		runner, output := newTestRunner(RunnerOpts{API: services.NewAPIService(ts.URL, nil)})

		if err := run(t, runner, "api", "export-all", "--format", "csv", "--dir", dir, "--rate", "1000"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, p := range store.ListPlaylists() {
			tu.AssertFileExists(t, filepath.Join(dir, p.ID+"_tracks.csv"))
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(output.String(), "Exported 2/2 playlists") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("export rejects unknown format", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{})

		err := run(t, runner, "api", "export", "p1", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("export of unknown playlist fails", func(t *testing.T) {
		ts, _ := newAPIServer(t)
		runner, _ := newTestRunner(RunnerOpts{API: services.NewAPIService(ts.URL, nil)})

		err := run(t, runner, "api", "export", "missing", "--output", filepath.Join(t.TempDir(), "x.md"))
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestServe(t *testing.T) {
	config := shared.DefaultConfig()
	config.Server.Host = "127.0.0.1"
	config.Server.Port = 0
	config.Database.Path = shared.MemoryDatabase

	runner, _ := newTestRunner(RunnerOpts{Config: config})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app := &cli.Command{Name: "soundchat", Commands: runner.register()}
	if err := app.Run(ctx, []string{"soundchat", "serve"}); err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}
