package services

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// SpotifyProvider is the token store key for Spotify credentials.
const SpotifyProvider = "spotify"

// TokenStore persists OAuth tokens per provider.
//
// Token returns [shared.ErrTokenNotFound] when nothing is stored.
type TokenStore interface {
	Token(ctx context.Context, provider string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, provider string, token *oauth2.Token) error
}

// ChatCompleter answers a free-text prompt.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// MediaError is a failed media request whose Text is shown to the user verbatim.
type MediaError struct {
	Err  error
	Text string
}

func (e *MediaError) Error() string { return e.Text }
func (e *MediaError) Unwrap() error { return e.Err }

// MediaErrorText returns the user-facing text of err if it carries one.
func MediaErrorText(err error) (string, bool) {
	var me *MediaError
	if errors.As(err, &me) {
		return me.Text, true
	}
	return "", false
}
