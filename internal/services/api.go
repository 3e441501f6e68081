// API client for the jarvis backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/models"
	"github.com/desertthunder/jarvis/internal/shared"
)

// DefaultBackendURL is where `jarvis serve` listens unless configured otherwise.
const DefaultBackendURL = "http://127.0.0.1:8000"

// Backend endpoint paths.
const (
	ChatPath       = "/chat"
	DeleteFilePath = "/delete-file"
	CreateFilePath = "/create-file"
	AuthorizePath  = "/spotify/authorize"
	CallbackPath   = "/spotify/callback"
	HealthPath     = "/health"
)

// MediaPath is the endpoint for one action and entity type, e.g. /spotify/queue-album.
func MediaPath(action intent.ActionType, kind intent.EntityType) string {
	return "/spotify/" + action.String() + "-" + kind.String()
}

// APIService makes HTTP requests to the jarvis backend. It satisfies dispatch.Backend.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// call posts payload and decodes the answer as a [models.Reply].
//
// Transport failures return a nil reply. A non-2xx status returns whatever
// decoded together with an [shared.ErrAPIRequest]. A 2xx body that is not a
// JSON object decodes to an empty reply.
func (a *APIService) call(ctx context.Context, path string, payload any) (*models.Reply, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", shared.ErrInvalidInput, err)
	}

	resp, err := a.Post(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	reply := &models.Reply{}
	if resp.IsJSON {
		if err := json.Unmarshal(resp.Body, reply); err != nil {
			reply = &models.Reply{}
		}
	}

	if !resp.OK() {
		return reply, fmt.Errorf("%w: %s status %d", shared.ErrAPIRequest, path, resp.StatusCode)
	}
	return reply, nil
}

// Media asks the backend to play or queue a song, album or podcast.
func (a *APIService) Media(ctx context.Context, action intent.ActionType, kind intent.EntityType, name string) (*models.Reply, error) {
	return a.call(ctx, MediaPath(action, kind), models.MediaRequest{SongName: name})
}

// Chat sends a free-text prompt.
func (a *APIService) Chat(ctx context.Context, prompt string) (*models.Reply, error) {
	return a.call(ctx, ChatPath, models.ChatRequest{Prompt: prompt})
}

// DeleteFile asks the backend to find and delete filename.
func (a *APIService) DeleteFile(ctx context.Context, filename string) (*models.Reply, error) {
	return a.call(ctx, DeleteFilePath, models.FileRequest{Filename: filename})
}

// CreateFile asks the backend to write content to filename.
func (a *APIService) CreateFile(ctx context.Context, filename, content string) (*models.Reply, error) {
	return a.call(ctx, CreateFilePath, models.FileRequest{Filename: filename, Content: content})
}

// AuthorizeURL is the page that starts the Spotify login.
func (a *APIService) AuthorizeURL() string {
	return a.baseURL + AuthorizePath
}

// Health fetches the backend status.
func (a *APIService) Health(ctx context.Context) (*models.Health, error) {
	resp, err := a.Get(ctx, HealthPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	var health models.Health
	if err := json.Unmarshal(resp.Body, &health); err != nil {
		return nil, fmt.Errorf("%w: malformed health response: %v", shared.ErrAPIRequest, err)
	}
	return &health, nil
}
