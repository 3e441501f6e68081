package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jarvis/internal/dispatch"
	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/services"
	"github.com/desertthunder/jarvis/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	api         *services.APIService
	dispatcher  *dispatch.Dispatcher
	httpClient  *http.Client
	ownsAPI     bool
	logger      *log.Logger
	output      io.Writer
	getenv      func(string) string
	openBrowser shared.BrowserOpener
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	API         *services.APIService
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Getenv      func(string) string
	OpenBrowser shared.BrowserOpener
}

// NewRunner creates a new Runner with the provided configuration
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
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		api:         opts.API,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		getenv:      opts.Getenv,
		openBrowser: opts.OpenBrowser,
	}
	r.wire()
	return r
}

// wire builds the backend client and dispatcher from the current config.
func (r *Runner) wire() {
	if r.api == nil {
		client := r.httpClient
		if client == nil {
			client = &http.Client{Timeout: r.config.Backend.Timeout.Duration}
		}
		r.api = services.NewAPIService(r.config.Backend.URL, client)
		r.ownsAPI = true
	}

	classifier := intent.NewClassifier(intent.WithArtistSeparator(r.config.Intent.ArtistSeparator))
	r.dispatcher = dispatch.New(r.api, dispatch.Opts{Classifier: classifier, Logger: r.logger})
}

// Load reads the config file named by --config, applies environment overrides and the
// log level, then rebuilds the dependencies. A missing file keeps the defaults so
// that `setup config` can create it.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	r.configPath = path

	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
		r.config = config
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Debug("config file not found, using defaults", "path", path)
	default:
		return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.config.ApplyEnv(r.getenv)
	shared.ApplyLogLevel(r.logger, r.config.Log.Level)
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.ownsAPI {
		r.api = nil
	}
	r.wire()
	return ctx, nil
}

// SetLogger swaps the logger, e.g. to keep log lines off the chat screen.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		chatCommand, askCommand, classifyCommand, serveCommand, setupCommand, authCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
