// Spotify Web API player
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// Scopes needed to read and control playback.
var SpotifyScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

// User-facing media failures.
const (
	NotLoggedInText     = "User not logged in. Please authenticate with Spotify."
	NoDeviceText        = "No active Spotify devices found."
	SongNotFoundText    = "Song not found."
	AlbumNotFoundText   = "Album not found."
	PodcastNotFoundText = "Podcast not found."
	NoEpisodesText      = "No episodes found for this podcast."
)

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	URI          string          `json:"uri"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	TotalTracks  int             `json:"total_tracks"`
	URI          string          `json:"uri"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifyShow represents a podcast.
type SpotifyShow struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Publisher    string       `json:"publisher"`
	URI          string       `json:"uri"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// SpotifyEpisode represents a podcast episode.
type SpotifyEpisode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifyDevice is a Spotify Connect playback target.
type SpotifyDevice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

type page[T any] struct {
	Items []T `json:"items"`
}

type searchResult struct {
	Tracks page[SpotifyTrack] `json:"tracks"`
	Albums page[SpotifyAlbum] `json:"albums"`
	Shows  page[SpotifyShow]  `json:"shows"`
}

// SpotifyError is a non-2xx answer from the Web API.
type SpotifyError struct {
	Status  int
	Message string
}

func (e *SpotifyError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify API error: status %d", e.Status)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

func (e *SpotifyError) Unwrap() error { return shared.ErrAPIRequest }

func isNotFound(err error) bool {
	var se *SpotifyError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

// SpotifyService controls Spotify playback for the user whose token is in the store.
type SpotifyService struct {
	config      *oauth2.Config
	store       TokenStore
	httpClient  *http.Client
	baseURL     string
	limiter     *rate.Limiter
	openBrowser shared.BrowserOpener
	logger      *log.Logger
}

// SpotifyOpts tunes [NewSpotifyService]. Zero values pick defaults; a nil OpenBrowser
// leaves the browser alone.
type SpotifyOpts struct {
	HTTPClient        *http.Client
	BaseURL           string
	AuthURL           string
	TokenURL          string
	RequestsPerSecond float64
	OpenBrowser       shared.BrowserOpener
	Logger            *log.Logger
}

// NewSpotifyService creates a new Spotify player with the given OAuth2 credentials.
func NewSpotifyService(creds shared.SpotifyConfig, store TokenStore, opts *SpotifyOpts) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: token store", shared.ErrMissingArgument)
	}
	if opts == nil {
		opts = &SpotifyOpts{}
	}

	s := &SpotifyService{
		store:       store,
		httpClient:  opts.HTTPClient,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		openBrowser: opts.OpenBrowser,
		logger:      opts.Logger,
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.baseURL == "" {
		s.baseURL = spotifyBaseURL
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	s.logger = shared.WithLogger(s.logger, "component", "spotify")

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	s.limiter = rate.NewLimiter(limit, 1)

	authURL, tokenURL := opts.AuthURL, opts.TokenURL
	if authURL == "" {
		authURL = spotifyAuthURL
	}
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	s.config = &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       SpotifyScopes,
		Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and stores it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) error {
	token, err := s.config.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	if err := s.store.SaveToken(ctx, SpotifyProvider, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	s.logger.Info("stored spotify token", "expiry", token.Expiry)
	return nil
}

// Authenticated reports whether a token is stored.
func (s *SpotifyService) Authenticated(ctx context.Context) bool {
	_, err := s.store.Token(ctx, SpotifyProvider)
	return err == nil
}

func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// savingTokenSource writes refreshed tokens back to the store.
type savingTokenSource struct {
	ctx    context.Context
	base   oauth2.TokenSource
	store  TokenStore
	last   string
	logger *log.Logger
}

func (t *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := t.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != t.last {
		t.last = token.AccessToken
		if err := t.store.SaveToken(t.ctx, SpotifyProvider, token); err != nil {
			t.logger.Warn("failed to persist refreshed token", "error", err)
		}
	}
	return token, nil
}

// client builds an authenticated client from the stored token.
func (s *SpotifyService) client(ctx context.Context) (*http.Client, error) {
	token, err := s.store.Token(ctx, SpotifyProvider)
	if err != nil {
		if errors.Is(err, shared.ErrTokenNotFound) {
			return nil, &MediaError{Err: shared.ErrNotAuthenticated, Text: NotLoggedInText}
		}
		return nil, err
	}

	octx := s.oauthContext(ctx)
	ts := &savingTokenSource{
		ctx:    ctx,
		base:   s.config.TokenSource(octx, token),
		store:  s.store,
		last:   token.AccessToken,
		logger: s.logger,
	}
	return oauth2.NewClient(octx, ts), nil
}

// doRequest performs an authenticated, rate limited request to the Spotify API.
//
// A 204 leaves result untouched.
func (s *SpotifyService) doRequest(ctx context.Context, c *http.Client, method, endpoint string, query url.Values, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return &SpotifyError{Status: resp.StatusCode, Message: apiErr.Error.Message}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PickDevice chooses where to play when nothing is currently playing: an active device,
// else a computer, web or browser player, else the first one listed.
func PickDevice(devices []SpotifyDevice) (SpotifyDevice, bool) {
	if len(devices) == 0 {
		return SpotifyDevice{}, false
	}
	for _, d := range devices {
		if d.IsActive {
			return d, true
		}
	}
	for _, d := range devices {
		kind, name := strings.ToLower(d.Type), strings.ToLower(d.Name)
		switch kind {
		case "computer", "web", "browser":
			return d, true
		}
		for _, hint := range []string{"chrome", "spotify", "web player", "browser"} {
			if strings.Contains(name, hint) {
				return d, true
			}
		}
	}
	return devices[0], true
}

// device resolves the playback target.
func (s *SpotifyService) device(ctx context.Context, c *http.Client) (string, error) {
	var playback struct {
		Device *SpotifyDevice `json:"device"`
	}
	if err := s.doRequest(ctx, c, http.MethodGet, "/me/player", nil, nil, &playback); err != nil {
		s.logger.Warn("failed to read current playback", "error", err)
	} else if playback.Device != nil && playback.Device.ID != "" {
		s.logger.Debug("using current device", "name", playback.Device.Name, "type", playback.Device.Type)
		return playback.Device.ID, nil
	}

	var list struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := s.doRequest(ctx, c, http.MethodGet, "/me/player/devices", nil, nil, &list); err != nil {
		s.logger.Error("failed to list devices", "error", err)
		return "", &MediaError{Err: shared.ErrNoDevice, Text: NoDeviceText}
	}

	d, ok := PickDevice(list.Devices)
	if !ok {
		return "", &MediaError{Err: shared.ErrNoDevice, Text: NoDeviceText}
	}
	s.logger.Debug("using device", "name", d.Name, "type", d.Type, "active", d.IsActive)
	return d.ID, nil
}

func (s *SpotifyService) search(ctx context.Context, c *http.Client, q, kind string) (*searchResult, error) {
	query := url.Values{"q": {q}, "type": {kind}, "limit": {"1"}}
	var result searchResult
	if err := s.doRequest(ctx, c, http.MethodGet, "/search", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *SpotifyService) startPlayback(ctx context.Context, c *http.Client, deviceID string, body map[string]any) error {
	return s.doRequest(ctx, c, http.MethodPut, "/me/player/play", url.Values{"device_id": {deviceID}}, body, nil)
}

// addToQueue retries once without the device when Spotify no longer knows it.
func (s *SpotifyService) addToQueue(ctx context.Context, c *http.Client, deviceID, uri string) error {
	err := s.doRequest(ctx, c, http.MethodPost, "/me/player/queue", url.Values{"uri": {uri}, "device_id": {deviceID}}, nil, nil)
	if isNotFound(err) {
		s.logger.Warn("device not found, queueing without device_id", "device", deviceID)
		err = s.doRequest(ctx, c, http.MethodPost, "/me/player/queue", url.Values{"uri": {uri}}, nil, nil)
	}
	return err
}

func (s *SpotifyService) open(u string) {
	if s.openBrowser == nil || u == "" {
		return
	}
	if err := s.openBrowser(u); err != nil {
		s.logger.Warn("failed to open browser", "url", u, "error", err)
	}
}

func artistName(artists []SpotifyArtist) string {
	if len(artists) == 0 {
		return "Unknown Artist"
	}
	return artists[0].Name
}

// Media plays or queues the best match for name and returns the success message.
//
// Failures the user should read are [*MediaError]s.
func (s *SpotifyService) Media(ctx context.Context, action intent.ActionType, kind intent.EntityType, name string) (string, error) {
	c, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	deviceID, err := s.device(ctx, c)
	if err != nil {
		return "", err
	}

	switch kind {
	case intent.Album:
		return s.album(ctx, c, action, deviceID, name)
	case intent.Podcast:
		return s.podcast(ctx, c, action, deviceID, name)
	default:
		return s.song(ctx, c, action, deviceID, name)
	}
}

func (s *SpotifyService) song(ctx context.Context, c *http.Client, action intent.ActionType, deviceID, name string) (string, error) {
	result, err := s.search(ctx, c, name, "track")
	if err != nil {
		return "", err
	}
	if len(result.Tracks.Items) == 0 {
		return "", &MediaError{Err: shared.ErrNotFound, Text: SongNotFoundText}
	}

	track := result.Tracks.Items[0]
	artist := artistName(track.Artists)

	if action == intent.Queue {
		if err := s.addToQueue(ctx, c, deviceID, track.URI); err != nil {
			return "", err
		}
		return fmt.Sprintf("Queued: %s by %s", track.Name, artist), nil
	}

	if err := s.startPlayback(ctx, c, deviceID, map[string]any{"uris": []string{track.URI}}); err != nil {
		return "", err
	}
	s.open(track.ExternalURLs.Spotify)
	return fmt.Sprintf("Playing: %s by %s", track.Name, artist), nil
}

func (s *SpotifyService) album(ctx context.Context, c *http.Client, action intent.ActionType, deviceID, name string) (string, error) {
	result, err := s.search(ctx, c, name, "album")
	if err != nil {
		return "", err
	}
	if len(result.Albums.Items) == 0 {
		return "", &MediaError{Err: shared.ErrNotFound, Text: AlbumNotFoundText}
	}

	album := result.Albums.Items[0]
	artist := artistName(album.Artists)

	if action == intent.Queue {
		var tracks page[SpotifyTrack]
		endpoint := fmt.Sprintf("/albums/%s/tracks", album.ID)
		if err := s.doRequest(ctx, c, http.MethodGet, endpoint, url.Values{"limit": {"50"}}, nil, &tracks); err != nil {
			return "", err
		}
		for _, t := range tracks.Items {
			if err := s.addToQueue(ctx, c, deviceID, t.URI); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("Queued album: %s by %s", album.Name, artist), nil
	}

	if err := s.startPlayback(ctx, c, deviceID, map[string]any{"context_uri": album.URI}); err != nil {
		return "", err
	}
	s.open(album.ExternalURLs.Spotify)
	return fmt.Sprintf("Playing album: %s by %s (%d tracks)", album.Name, artist, album.TotalTracks), nil
}

func (s *SpotifyService) podcast(ctx context.Context, c *http.Client, action intent.ActionType, deviceID, name string) (string, error) {
	result, err := s.search(ctx, c, name, "show")
	if err != nil {
		return "", err
	}
	if len(result.Shows.Items) == 0 {
		return "", &MediaError{Err: shared.ErrNotFound, Text: PodcastNotFoundText}
	}

	show := result.Shows.Items[0]
	var episodes page[SpotifyEpisode]
	endpoint := fmt.Sprintf("/shows/%s/episodes", show.ID)
	if err := s.doRequest(ctx, c, http.MethodGet, endpoint, url.Values{"limit": {"1"}}, nil, &episodes); err != nil {
		return "", err
	}
	if len(episodes.Items) == 0 {
		return "", &MediaError{Err: shared.ErrNotFound, Text: NoEpisodesText}
	}
	episode := episodes.Items[0]

	if action == intent.Queue {
		if err := s.addToQueue(ctx, c, deviceID, episode.URI); err != nil {
			return "", err
		}
		return fmt.Sprintf("Queued podcast: %s - %s", show.Name, episode.Name), nil
	}

	if err := s.startPlayback(ctx, c, deviceID, map[string]any{"uris": []string{episode.URI}}); err != nil {
		return "", err
	}
	s.open(show.ExternalURLs.Spotify)
	return fmt.Sprintf("Playing podcast: %s - %s", show.Name, episode.Name), nil
}
