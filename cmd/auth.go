package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jarvis/internal/models"
	"github.com/desertthunder/jarvis/internal/repositories"
	"github.com/desertthunder/jarvis/internal/services"
	"github.com/desertthunder/jarvis/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 2 * time.Minute

// pollInterval is how often login checks /health. Tests shorten it.
var pollInterval = 2 * time.Second

// AuthLogin opens the backend's authorize page and waits until /health reports a token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	health, err := r.api.Health(ctx)
	if err != nil {
		return err
	}
	if health.Authenticated {
		return r.writePlain("✓ Already authenticated with Spotify\n")
	}

	url := r.api.AuthorizeURL()
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize Spotify:\n%s\n", url)
	} else if err := r.openBrowser(url); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Couldn't open the browser. Please visit:\n%s\n", url)
	}

	r.logger.Info("waiting for authorization", "timeout", cmd.Duration("timeout"))
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	if err := r.waitForAuth(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Authentication successful\n")
}

func (r *Runner) waitForAuth(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: timed out waiting for authorization", shared.ErrAuthFailed)
		case <-ticker.C:
			health, err := r.api.Health(ctx)
			if err != nil {
				r.logger.Debug("health check failed", "error", err)
				continue
			}
			if health.Authenticated {
				return nil
			}
		}
	}
}

// AuthStatus checks current authentication state by calling the /health endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	health, err := r.api.Health(ctx)
	if err != nil {
		return err
	}
	return r.printHealth(health)
}

func (r *Runner) printHealth(health *models.Health) error {
	status := health.Status
	if status == "" {
		status = "unknown"
	}

	r.writePlain("✓ Service is healthy\n")
	r.writePlain("Status: %s\n", status)
	if health.Authenticated {
		return r.writePlain("Authentication: ✓ Authenticated\n")
	}
	return r.writePlain("Authentication: ✗ Not authenticated\n")
}

// AuthLogout deletes the stored Spotify token from the backend database.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	err = repositories.NewTokenRepository(db).Delete(ctx, services.SpotifyProvider)
	switch {
	case errors.Is(err, shared.ErrTokenNotFound):
		return r.writePlain("Not logged in\n")
	case err != nil:
		return err
	}

	r.logger.Info("spotify token removed")
	return r.writePlain("✓ Logged out of Spotify\n")
}
