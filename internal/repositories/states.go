package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jarvis/internal/shared"
)

// DefaultStateTTL bounds how long a login may take.
const DefaultStateTTL = 10 * time.Minute

// StateRepository keeps OAuth state values between the authorize redirect and the callback.
type StateRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewStateRepository creates a [StateRepository]; ttl <= 0 uses [DefaultStateTTL].
func NewStateRepository(db *sql.DB, ttl time.Duration) *StateRepository {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateRepository{db: db, ttl: ttl, now: time.Now}
}

// Create stores and returns a fresh state for provider, pruning expired ones.
func (r *StateRepository) Create(ctx context.Context, provider string) (string, error) {
	state := shared.GenerateID()
	now := r.now().UTC()

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM oauth_states WHERE created_at < ?", now.Add(-r.ttl)); err != nil {
			return fmt.Errorf("failed to prune states: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO oauth_states (state, provider, created_at) VALUES (?, ?, ?)", state, provider, now); err != nil {
			return fmt.Errorf("failed to insert state: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// Consume deletes state and reports whether it was issued for provider and is still fresh.
// A state can be consumed once, even when the check fails.
func (r *StateRepository) Consume(ctx context.Context, state, provider string) error {
	var (
		owner     string
		createdAt time.Time
	)
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT provider, created_at FROM oauth_states WHERE state = ?", state).Scan(&owner, &createdAt)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: unknown state", shared.ErrAuthFailed)
		}
		if err != nil {
			return fmt.Errorf("failed to query state: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM oauth_states WHERE state = ?", state); err != nil {
			return fmt.Errorf("failed to delete state: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if owner != provider {
		return fmt.Errorf("%w: state issued for %s", shared.ErrAuthFailed, owner)
	}
	if r.now().UTC().Sub(createdAt) > r.ttl {
		return fmt.Errorf("%w: state expired", shared.ErrAuthFailed)
	}
	return nil
}
