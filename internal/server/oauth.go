package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jarvis/internal/services"
)

// Authorizer runs the provider side of the authorization code flow.
type Authorizer interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) error
}

// StateStore issues and spends OAuth state values.
type StateStore interface {
	Create(ctx context.Context, provider string) (string, error)
	Consume(ctx context.Context, state, provider string) error
}

// callbackPage tells the window that opened the login popup that it worked, then closes.
const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        h1 { color: #1DB954; }
    </style>
</head>
<body>
    <h1>✓ Authorization Successful</h1>
    <p>You can close this window and return to jarvis.</p>
    <script>
        if (window.opener) {
            window.opener.postMessage('spotify-auth-success', '*');
        }
        window.close();
    </script>
</body>
</html>
`

// OAuthHandler serves the Spotify authorize redirect and its callback.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	auth   Authorizer
	states StateStore
	logger *log.Logger
}

// NewOAuthHandler creates a new OAuth handler. State values come from states and are
// single use, which guards the callback against CSRF and replay.
func NewOAuthHandler(auth Authorizer, states StateStore, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{auth: auth, states: states, logger: logger.With("component", "oauth")}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{services.AuthorizePath, services.CallbackPath}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case services.AuthorizePath:
		h.authorize(w, r)
	case services.CallbackPath:
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *OAuthHandler) authorize(w http.ResponseWriter, r *http.Request) {
	state, err := h.states.Create(r.Context(), services.SpotifyProvider)
	if err != nil {
		h.logger.Error("failed to create state", "error", err)
		http.Error(w, "Failed to start authorization", http.StatusInternalServerError)
		return
	}

	h.logger.Info("redirecting to spotify")
	http.Redirect(w, r, h.auth.GetAuthURL(state), http.StatusTemporaryRedirect)
}

// callback validates state, exchanges the authorization code and stores the token.
func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if err := h.states.Consume(r.Context(), q.Get("state"), services.SpotifyProvider); err != nil {
		h.logger.Warn("rejected callback", "error", err)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.logger.Warn("authorization failed", "error", q.Get("error"), "description", q.Get("error_description"))
		http.Error(w, fmt.Sprintf("Authorization failed: %s", q.Get("error")), http.StatusBadRequest)
		return
	}

	if err := h.auth.Exchange(r.Context(), code); err != nil {
		h.logger.Error("token exchange failed", "error", err)
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("spotify authorization complete")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}
