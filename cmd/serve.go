package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/jarvis/internal/repositories"
	"github.com/desertthunder/jarvis/internal/server"
	"github.com/desertthunder/jarvis/internal/services"
	"github.com/desertthunder/jarvis/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the backend until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet("host") {
		r.config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		r.config.Server.Port = int(cmd.Int("port"))
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	handler, err := r.backendHandler(db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(r.config.Server, handler)
	errs := make(chan error, 1)
	go func() {
		r.logger.Info("backend listening", "addr", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// backendHandler wires the services behind the HTTP backend. Spotify and chat
// are optional: without credentials their endpoints answer "not configured".
func (r *Runner) backendHandler(db *sql.DB) (http.Handler, error) {
	tokens := repositories.NewTokenRepository(db)
	states := repositories.NewStateRepository(db, repositories.DefaultStateTTL)

	opts := server.BackendOpts{
		Files:  services.NewFileManager(r.config, r.logger),
		Logger: r.logger,
	}

	var oauth *server.OAuthHandler
	spotifyOpts := &services.SpotifyOpts{
		RequestsPerSecond: r.config.Spotify.RequestsPerSecond,
		Logger:            r.logger,
	}
	if r.config.Spotify.OpenInBrowser {
		spotifyOpts.OpenBrowser = r.openBrowser
	}
	spotify, err := services.NewSpotifyService(r.config.Credentials.Spotify, tokens, spotifyOpts)
	switch {
	case err == nil:
		opts.Player = spotify
		oauth = server.NewOAuthHandler(spotify, states, r.logger)
	case errors.Is(err, shared.ErrMissingCredentials):
		r.logger.Warn("spotify disabled", "reason", err)
	default:
		return nil, err
	}

	chat, err := services.NewOpenAIService(r.config.Credentials.OpenAI)
	switch {
	case err == nil:
		opts.Chat = chat
	case errors.Is(err, shared.ErrMissingCredentials):
		r.logger.Warn("chat disabled", "reason", err)
	default:
		return nil, err
	}

	backend := server.NewBackendHandler(opts)
	return server.NewBackend(backend, oauth, r.config.Server.AllowedOrigin, r.logger), nil
}
