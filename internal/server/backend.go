package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/models"
	"github.com/desertthunder/jarvis/internal/services"
	"github.com/desertthunder/jarvis/internal/shared"
)

// Replies for backend pieces that were not configured.
const (
	SpotifyDisabledText = "Spotify is not configured. Set client_id and client_secret under [credentials.spotify]."
	ChatDisabledText    = "Chat is not configured. Set api_key under [credentials.openai]."
)

// Player plays and queues media for the logged in user.
type Player interface {
	Media(ctx context.Context, action intent.ActionType, kind intent.EntityType, name string) (string, error)
	Authenticated(ctx context.Context) bool
}

// Files creates and deletes files by name.
type Files interface {
	Create(name, content string) string
	Delete(name string) string
}

// BackendHandler serves the media, chat and file endpoints.
//
// A nil Player or ChatCompleter answers with a "not configured" error instead of failing to start.
type BackendHandler struct {
	player Player
	chat   services.ChatCompleter
	files  Files
	logger *log.Logger
}

// BackendOpts collects the services behind [BackendHandler].
type BackendOpts struct {
	Player Player
	Chat   services.ChatCompleter
	Files  Files
	Logger *log.Logger
}

// NewBackendHandler creates a new [BackendHandler].
func NewBackendHandler(opts BackendOpts) *BackendHandler {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &BackendHandler{
		player: opts.Player,
		chat:   opts.Chat,
		files:  opts.Files,
		logger: logger.With("component", "backend"),
	}
}

// Register adds every backend endpoint to router.
func (h *BackendHandler) Register(router Router) {
	for _, action := range []intent.ActionType{intent.Play, intent.Queue} {
		for _, kind := range []intent.EntityType{intent.Song, intent.Album, intent.Podcast} {
			router.Handle(http.MethodPost, services.MediaPath(action, kind), h.media(action, kind))
		}
	}
	router.Handle(http.MethodPost, services.ChatPath, http.HandlerFunc(h.handleChat))
	router.Handle(http.MethodPost, services.DeleteFilePath, http.HandlerFunc(h.deleteFile))
	router.Handle(http.MethodPost, services.CreateFilePath, http.HandlerFunc(h.createFile))
	router.Handle(http.MethodGet, services.HealthPath, http.HandlerFunc(h.health))
}

// authorizeURL points back at this server so the login goes through the state check.
func authorizeURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + services.AuthorizePath
}

func (h *BackendHandler) media(action intent.ActionType, kind intent.EntityType) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.MediaRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorReply(err.Error()))
			return
		}
		name := strings.TrimSpace(req.SongName)
		if name == "" {
			writeJSON(w, http.StatusUnprocessableEntity, models.ErrorReply("song_name is required"))
			return
		}
		if h.player == nil {
			writeJSON(w, http.StatusOK, models.ErrorReply(SpotifyDisabledText))
			return
		}

		logger := h.logger.With("action", action, "kind", kind, "name", name)
		msg, err := h.player.Media(r.Context(), action, kind, name)
		switch {
		case err == nil:
			logger.Info("media request done", "result", msg)
			writeJSON(w, http.StatusOK, models.SuccessReply(msg))
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Info("user not authenticated, returning authorization URL")
			writeJSON(w, http.StatusOK, &models.Reply{Error: services.NotLoggedInText, AuthorizationURL: authorizeURL(r)})
		default:
			if text, ok := services.MediaErrorText(err); ok {
				logger.Warn("media request failed", "reason", text)
				writeJSON(w, http.StatusOK, models.ErrorReply(text))
				return
			}
			logger.Error("spotify API error", "error", err)
			writeJSON(w, http.StatusOK, models.ErrorReply(err.Error()))
		}
	})
}

func (h *BackendHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorReply(err.Error()))
		return
	}
	if h.chat == nil {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorReply(ChatDisabledText))
		return
	}

	resp, err := h.chat.Complete(r.Context(), req.Prompt)
	if err != nil {
		h.logger.Error("chat completion failed", "error", err)
		writeJSON(w, http.StatusBadGateway, models.ErrorReply(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, models.TextReply(resp))
}

func (h *BackendHandler) deleteFile(w http.ResponseWriter, r *http.Request) {
	var req models.FileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorReply(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, models.TextReply(h.files.Delete(req.Filename)))
}

func (h *BackendHandler) createFile(w http.ResponseWriter, r *http.Request) {
	var req models.FileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorReply(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, models.TextReply(h.files.Create(req.Filename, req.Content)))
}

func (h *BackendHandler) health(w http.ResponseWriter, r *http.Request) {
	authenticated := h.player != nil && h.player.Authenticated(r.Context())
	writeJSON(w, http.StatusOK, models.Health{Status: "ok", Authenticated: authenticated})
}

// NewBackend assembles the full backend: OAuth and backend routes behind logging,
// panic recovery and CORS for origin. A nil oauth handler leaves the login routes out.
func NewBackend(backend *BackendHandler, oauth *OAuthHandler, origin string, logger *log.Logger) http.Handler {
	router := NewBasicRouter()
	router.Use(Logging(logger), Recover(logger))

	backend.Register(router)
	if oauth != nil {
		router.Handler(oauth)
	}
	return CORS(origin)(router)
}
