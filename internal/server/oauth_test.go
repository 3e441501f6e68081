package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/jarvis/internal/shared"
)

type fakeAuthorizer struct {
	codes []string
	err   error
}

func (f *fakeAuthorizer) GetAuthURL(state string) string {
	return "https://accounts.spotify.com/authorize?state=" + state
}

func (f *fakeAuthorizer) Exchange(ctx context.Context, code string) error {
	f.codes = append(f.codes, code)
	return f.err
}

type fakeStates struct {
	live map[string]bool
}

func (f *fakeStates) Create(ctx context.Context, provider string) (string, error) {
	if f.live == nil {
		f.live = map[string]bool{}
	}
	f.live["state-1"] = true
	return "state-1", nil
}

func (f *fakeStates) Consume(ctx context.Context, state, provider string) error {
	if !f.live[state] {
		return shared.ErrAuthFailed
	}
	delete(f.live, state)
	return nil
}

func newTestOAuth(auth *fakeAuthorizer, states *fakeStates) http.Handler {
	logger := shared.NewLogger(io.Discard)
	return NewBackend(NewBackendHandler(BackendOpts{Files: &fakeFiles{}, Logger: logger}), NewOAuthHandler(auth, states, logger), "", logger)
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Authorize Redirects With State", func(t *testing.T) {
		h := newTestOAuth(&fakeAuthorizer{}, &fakeStates{})

		rec := get(h, "/spotify/authorize")
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("expected 307, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "https://accounts.spotify.com/authorize?state=state-1" {
			t.Errorf("unexpected location %q", loc)
		}
	})

	t.Run("Callback Success", func(t *testing.T) {
		auth := &fakeAuthorizer{}
		h := newTestOAuth(auth, &fakeStates{live: map[string]bool{"state-1": true}})

		rec := get(h, "/spotify/callback?code=abc&state=state-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "postMessage('spotify-auth-success', '*')") || !strings.Contains(body, "window.close()") {
			t.Errorf("expected popup closing page, got %s", body)
		}
		if len(auth.codes) != 1 || auth.codes[0] != "abc" {
			t.Errorf("expected code exchange, got %v", auth.codes)
		}
	})

	t.Run("Callback Replay", func(t *testing.T) {
		auth := &fakeAuthorizer{}
		h := newTestOAuth(auth, &fakeStates{live: map[string]bool{"state-1": true}})

		get(h, "/spotify/callback?code=abc&state=state-1")
		rec := get(h, "/spotify/callback?code=abc&state=state-1")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}
		if len(auth.codes) != 1 {
			t.Errorf("expected a single exchange, got %d", len(auth.codes))
		}
	})

	t.Run("Callback Invalid State", func(t *testing.T) {
		auth := &fakeAuthorizer{}
		h := newTestOAuth(auth, &fakeStates{})

		rec := get(h, "/spotify/callback?code=abc&state=forged")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(auth.codes) != 0 {
			t.Error("expected no exchange for a forged state")
		}
	})

	t.Run("Callback Denied", func(t *testing.T) {
		h := newTestOAuth(&fakeAuthorizer{}, &fakeStates{live: map[string]bool{"state-1": true}})

		rec := get(h, "/spotify/callback?error=access_denied&state=state-1")
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "access_denied") {
			t.Errorf("expected 400 access_denied, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		h := newTestOAuth(&fakeAuthorizer{err: errors.New("bad code")}, &fakeStates{live: map[string]bool{"state-1": true}})

		rec := get(h, "/spotify/callback?code=abc&state=state-1")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Wrong Method", func(t *testing.T) {
		h := newTestOAuth(&fakeAuthorizer{}, &fakeStates{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/spotify/authorize", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}
