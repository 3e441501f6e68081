package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jarvis/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository stores one [oauth2.Token] per provider.
type TokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db, now: time.Now}
}

// SaveToken inserts or replaces the token for provider.
//
// A refreshed token without a refresh token keeps the stored one.
func (r *TokenRepository) SaveToken(ctx context.Context, provider string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	var expiry sql.NullTime
	if !token.Expiry.IsZero() {
		expiry = sql.NullTime{Time: token.Expiry.UTC(), Valid: true}
	}
	scope, _ := token.Extra("scope").(string)
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	now := r.now().UTC()

	query := `
		INSERT INTO oauth_tokens (provider, access_token, token_type, refresh_token, expiry, scope, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN oauth_tokens.refresh_token ELSE excluded.refresh_token END,
			expiry = excluded.expiry,
			scope = CASE WHEN excluded.scope = '' THEN oauth_tokens.scope ELSE excluded.scope END,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, provider, token.AccessToken, tokenType, token.RefreshToken, expiry, scope, now, now)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Token returns the stored token for provider or [shared.ErrTokenNotFound].
func (r *TokenRepository) Token(ctx context.Context, provider string) (*oauth2.Token, error) {
	query := `
		SELECT access_token, token_type, refresh_token, expiry
		FROM oauth_tokens
		WHERE provider = ?
	`

	var (
		token  oauth2.Token
		expiry sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, provider).Scan(&token.AccessToken, &token.TokenType, &token.RefreshToken, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTokenNotFound, provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	if expiry.Valid {
		token.Expiry = expiry.Time
	}
	return &token, nil
}

// Scope returns the granted scope recorded with the token.
func (r *TokenRepository) Scope(ctx context.Context, provider string) (string, error) {
	var scope string
	err := r.db.QueryRowContext(ctx, "SELECT scope FROM oauth_tokens WHERE provider = ?", provider).Scan(&scope)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrTokenNotFound, provider)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query scope: %w", err)
	}
	return scope, nil
}

// Delete forgets the token for provider.
func (r *TokenRepository) Delete(ctx context.Context, provider string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM oauth_tokens WHERE provider = ?", provider)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTokenNotFound, provider)
	}
	return nil
}
