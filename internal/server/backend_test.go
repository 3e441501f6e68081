package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/models"
	"github.com/desertthunder/jarvis/internal/services"
	"github.com/desertthunder/jarvis/internal/shared"
)

type fakePlayer struct {
	msg    string
	err    error
	authed bool
	got    []string
}

func (f *fakePlayer) Media(ctx context.Context, action intent.ActionType, kind intent.EntityType, name string) (string, error) {
	f.got = append(f.got, fmt.Sprintf("%s-%s:%s", action, kind, name))
	return f.msg, f.err
}

func (f *fakePlayer) Authenticated(ctx context.Context) bool { return f.authed }

type fakeChat struct {
	resp string
	err  error
}

func (f *fakeChat) Complete(ctx context.Context, prompt string) (string, error) {
	return f.resp + prompt, f.err
}

type fakeFiles struct{ calls []string }

func (f *fakeFiles) Create(name, content string) string {
	f.calls = append(f.calls, "create:"+name+":"+content)
	return "created " + name
}

func (f *fakeFiles) Delete(name string) string {
	f.calls = append(f.calls, "delete:"+name)
	return "deleted " + name
}

func newTestBackend(opts BackendOpts) http.Handler {
	opts.Logger = shared.NewLogger(io.Discard)
	if opts.Files == nil {
		opts.Files = &fakeFiles{}
	}
	return NewBackend(NewBackendHandler(opts), nil, "http://localhost:3000", opts.Logger)
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, models.Reply) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var reply models.Reply
	json.Unmarshal(rec.Body.Bytes(), &reply)
	return rec, reply
}

func TestBackendMedia(t *testing.T) {
	t.Run("Routes Every Action And Kind", func(t *testing.T) {
		player := &fakePlayer{msg: "ok"}
		h := newTestBackend(BackendOpts{Player: player})

		for _, path := range []string{
			"/spotify/play-song", "/spotify/queue-song",
			"/spotify/play-album", "/spotify/queue-album",
			"/spotify/play-podcast", "/spotify/queue-podcast",
		} {
			rec, reply := post(t, h, path, `{"song_name": "abbey road"}`)
			if rec.Code != http.StatusOK || reply.Success != "ok" {
				t.Errorf("%s: expected success, got %d %+v", path, rec.Code, reply)
			}
		}

		if len(player.got) != 6 || player.got[3] != "queue-album:abbey road" {
			t.Errorf("unexpected player calls %v", player.got)
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		player := &fakePlayer{err: &services.MediaError{Err: shared.ErrNotAuthenticated, Text: services.NotLoggedInText}}
		h := newTestBackend(BackendOpts{Player: player})

		_, reply := post(t, h, "/spotify/play-song", `{"song_name": "x"}`)
		if reply.Error != services.NotLoggedInText {
			t.Errorf("expected not logged in text, got %+v", reply)
		}
		if reply.AuthorizationURL != "http://example.com/spotify/authorize" {
			t.Errorf("unexpected authorization URL %q", reply.AuthorizationURL)
		}
	})

	t.Run("Media Error Text", func(t *testing.T) {
		player := &fakePlayer{err: &services.MediaError{Err: shared.ErrNotFound, Text: services.AlbumNotFoundText}}
		h := newTestBackend(BackendOpts{Player: player})

		_, reply := post(t, h, "/spotify/play-album", `{"song_name": "x"}`)
		if reply.Error != services.AlbumNotFoundText {
			t.Errorf("expected album not found, got %+v", reply)
		}
	})

	t.Run("API Error", func(t *testing.T) {
		player := &fakePlayer{err: &services.SpotifyError{Status: 403, Message: "Premium required"}}
		h := newTestBackend(BackendOpts{Player: player})

		rec, reply := post(t, h, "/spotify/play-song", `{"song_name": "x"}`)
		if rec.Code != http.StatusOK || !strings.Contains(reply.Error, "Premium required") {
			t.Errorf("expected API error text, got %d %+v", rec.Code, reply)
		}
	})

	t.Run("Missing Name", func(t *testing.T) {
		h := newTestBackend(BackendOpts{Player: &fakePlayer{}})

		rec, _ := post(t, h, "/spotify/play-song", `{"song_name": "  "}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		h := newTestBackend(BackendOpts{Player: &fakePlayer{}})

		rec, _ := post(t, h, "/spotify/play-song", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("Spotify Disabled", func(t *testing.T) {
		h := newTestBackend(BackendOpts{})

		_, reply := post(t, h, "/spotify/play-song", `{"song_name": "x"}`)
		if reply.Error != SpotifyDisabledText {
			t.Errorf("expected disabled text, got %+v", reply)
		}
	})

	t.Run("Wrong Method", func(t *testing.T) {
		h := newTestBackend(BackendOpts{Player: &fakePlayer{}})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spotify/play-song", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestBackendChat(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := newTestBackend(BackendOpts{Chat: &fakeChat{resp: "echo: "}})

		rec, reply := post(t, h, "/chat", `{"prompt": "hello"}`)
		if rec.Code != http.StatusOK || reply.Response != "echo: hello" {
			t.Errorf("unexpected reply %d %+v", rec.Code, reply)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		h := newTestBackend(BackendOpts{Chat: &fakeChat{err: errors.New("quota exceeded")}})

		rec, reply := post(t, h, "/chat", `{"prompt": "hello"}`)
		if rec.Code != http.StatusBadGateway || reply.Error == "" {
			t.Errorf("expected 502 with error, got %d %+v", rec.Code, reply)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		h := newTestBackend(BackendOpts{})

		rec, reply := post(t, h, "/chat", `{"prompt": "hello"}`)
		if rec.Code != http.StatusServiceUnavailable || reply.Error != ChatDisabledText {
			t.Errorf("expected 503 disabled, got %d %+v", rec.Code, reply)
		}
	})
}

func TestBackendFiles(t *testing.T) {
	files := &fakeFiles{}
	h := newTestBackend(BackendOpts{Files: files})

	_, reply := post(t, h, "/create-file", `{"filename": "a.txt", "content": "hi"}`)
	if reply.Response != "created a.txt" {
		t.Errorf("unexpected create reply %+v", reply)
	}

	_, reply = post(t, h, "/delete-file", `{"filename": "a.txt"}`)
	if reply.Response != "deleted a.txt" {
		t.Errorf("unexpected delete reply %+v", reply)
	}

	if strings.Join(files.calls, "|") != "create:a.txt:hi|delete:a.txt" {
		t.Errorf("unexpected file calls %v", files.calls)
	}
}

func TestBackendHealth(t *testing.T) {
	tests := []struct {
		name   string
		player Player
		want   bool
	}{
		{"No Player", nil, false},
		{"Logged Out", &fakePlayer{}, false},
		{"Logged In", &fakePlayer{authed: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestBackend(BackendOpts{Player: tt.player})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			var health models.Health
			if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
				t.Fatalf("failed to decode health: %v", err)
			}
			if health.Status != "ok" || health.Authenticated != tt.want {
				t.Errorf("unexpected health %+v", health)
			}
		})
	}
}
