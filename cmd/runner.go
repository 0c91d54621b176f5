package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundchat/internal/services"
	"github.com/desertthunder/soundchat/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	catalog services.Catalog
	auth    services.Authorizer
	api     *services.APIService
	logger  *log.Logger
	output  io.Writer
	browser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog services.Catalog
	Auth    services.Authorizer
	API     *services.APIService
	Logger  *log.Logger
	Output  io.Writer
	Browser func(url string) error
}

// NewRunner creates a new Runner with the provided configuration.
//
// A nil Catalog or Auth means the provider is not configured; commands that need it fail with
// [shared.ErrMissingCredentials].
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(localAPIURL(opts.Config), nil)
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	return &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		auth:    opts.Auth,
		api:     opts.API,
		logger:  opts.Logger,
		output:  opts.Output,
		browser: opts.Browser,
	}
}

// localAPIURL is the address a local `serve` with the same config listens on.
func localAPIURL(config *shared.Config) string {
	return fmt.Sprintf("http://localhost:%d", config.Server.Port)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, authCommand, catalogCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) requireCatalog() (services.Catalog, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: set credentials.spotify in config.toml or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials)
	}
	return r.catalog, nil
}

func (r *Runner) requireAuth() (services.Authorizer, error) {
	if r.auth == nil {
		return nil, fmt.Errorf("%w: set credentials.spotify in config.toml or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials)
	}
	return r.auth, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
