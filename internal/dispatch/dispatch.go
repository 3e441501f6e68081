package dispatch

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/models"
	"github.com/desertthunder/jarvis/internal/shared"
)

// Fixed texts shown instead of raw backend or transport errors.
const (
	AuthorizeText       = "Please authorize the app in the new window that opened. After authorizing, you'll be redirected back to the app."
	FallbackText        = "Sorry, I couldn't process that request."
	UnreachableText     = "I can't connect to the backend server. Please make sure it is running by executing 'jarvis serve' in your terminal."
	BackendErrorText    = "Sorry, I encountered an error. Please make sure the backend server is running."
	MissingFilenameText = "Please include a file name, e.g. \"create file notes.txt\"."
)

// authMarker is the backend's way of saying the Spotify login is missing.
const authMarker = "user not logged in"

// Backend is the remote side of every route.
//
// A non-nil error together with a non-nil reply means the backend answered
// with a non-2xx status and the body still decoded.
type Backend interface {
	Media(ctx context.Context, action intent.ActionType, kind intent.EntityType, name string) (*models.Reply, error)
	Chat(ctx context.Context, prompt string) (*models.Reply, error)
	DeleteFile(ctx context.Context, filename string) (*models.Reply, error)
	CreateFile(ctx context.Context, filename, content string) (*models.Reply, error)
	AuthorizeURL() string
}

// Dispatcher routes messages to a [Backend]. It holds no conversation state.
type Dispatcher struct {
	backend    Backend
	classifier *intent.Classifier
	logger     *log.Logger
	inflight   atomic.Bool
}

// Opts contains optional collaborators for a [Dispatcher].
type Opts struct {
	Classifier *intent.Classifier
	Logger     *log.Logger
}

// New creates a [Dispatcher] over backend.
func New(backend Backend, opts Opts) *Dispatcher {
	if opts.Classifier == nil {
		opts.Classifier = intent.NewClassifier()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Dispatcher{
		backend:    backend,
		classifier: opts.Classifier,
		logger:     shared.WithLogger(opts.Logger, "component", "dispatch"),
	}
}

// Handle processes one user submission. While a file name is pending, text is
// the file content. Blank input yields an empty [Result] and leaves state alone.
func (d *Dispatcher) Handle(ctx context.Context, text string, state CreateState) Result {
	if state.Awaiting() {
		return d.Submit(ctx, state, text)
	}
	if strings.TrimSpace(text) == "" {
		return Result{State: state}
	}

	decision := Decide(text)
	d.logger.Debug("routing message", "route", decision.Route)

	switch decision.Route {
	case RouteMedia:
		return d.media(ctx, text, state)
	case RouteDeleteFile:
		if decision.Filename == "" {
			return reply(state, MissingFilenameText)
		}
		return d.deleteFile(ctx, decision.Filename, state)
	case RouteCreateFile:
		if decision.Filename == "" {
			return reply(state, MissingFilenameText)
		}
		d.logger.Info("awaiting file content", "filename", decision.Filename)
		return Result{State: CreateState{Filename: decision.Filename}}
	default:
		return d.chat(ctx, text, state)
	}
}

// TryHandle is [Dispatcher.Handle] for shells that cannot serialize input
// themselves. It fails with [shared.ErrBusy] while another call is running.
func (d *Dispatcher) TryHandle(ctx context.Context, text string, state CreateState) (Result, error) {
	if !d.inflight.CompareAndSwap(false, true) {
		d.logger.Warn("rejecting submission, request in flight")
		return Result{State: state}, shared.ErrBusy
	}
	defer d.inflight.Store(false)

	return d.Handle(ctx, text, state), nil
}

// Submit is the second phase of create-file. The backend is called and the
// state returns to Idle whatever happens. Outside Awaiting it is a no-op.
func (d *Dispatcher) Submit(ctx context.Context, state CreateState, content string) Result {
	if !state.Awaiting() {
		return Result{State: state}
	}

	r, err := d.backend.CreateFile(ctx, state.Filename, content)
	if r == nil {
		d.logger.Error("create-file failed", "filename", state.Filename, "error", err)
		return reply(Idle, BackendErrorText)
	}
	if r.Response == "" {
		return reply(Idle, FallbackText)
	}
	return reply(Idle, r.Response)
}

// Cancel abandons a pending create-file without calling the backend.
func (d *Dispatcher) Cancel(state CreateState) Result {
	if state.Awaiting() {
		d.logger.Info("file creation cancelled", "filename", state.Filename)
	}
	return Result{State: Idle}
}

// Classify exposes the dispatcher's classifier and action detection together.
func (d *Dispatcher) Classify(text string) (intent.Parsed, intent.ActionType) {
	return d.classifier.Classify(text), intent.DetectAction(text)
}

func (d *Dispatcher) media(ctx context.Context, text string, state CreateState) Result {
	parsed, action := d.Classify(text)
	d.logger.Info("media request", "action", action, "type", parsed.Type, "name", parsed.Name)

	r, err := d.backend.Media(ctx, action, parsed.Type, parsed.Name)
	if r == nil {
		d.logger.Error("media request failed", "error", err)
		return reply(state, BackendErrorText)
	}

	switch {
	case r.Error != "":
		if IsAuthRequired(r.Error) {
			d.logger.Info("spotify login required")
			res := reply(state, AuthorizeText)
			res.OpenURL = d.backend.AuthorizeURL()
			return res
		}
		return reply(state, r.Error)
	case r.Success != "":
		return reply(state, r.Success)
	default:
		return reply(state, FallbackText)
	}
}

func (d *Dispatcher) chat(ctx context.Context, text string, state CreateState) Result {
	r, err := d.backend.Chat(ctx, text)
	if err != nil {
		d.logger.Warn("backend unreachable", "error", err)
		return reply(state, UnreachableText)
	}
	return reply(state, ReplyText(r))
}

func (d *Dispatcher) deleteFile(ctx context.Context, filename string, state CreateState) Result {
	r, err := d.backend.DeleteFile(ctx, filename)
	if r == nil {
		d.logger.Error("delete-file failed", "filename", filename, "error", err)
		return reply(state, BackendErrorText)
	}
	return reply(state, ReplyText(r))
}

// ReplyText picks error, then success, then response, then [FallbackText].
func ReplyText(r *models.Reply) string {
	switch {
	case r == nil:
		return FallbackText
	case r.Error != "":
		return r.Error
	case r.Success != "":
		return r.Success
	case r.Response != "":
		return r.Response
	default:
		return FallbackText
	}
}

// IsAuthRequired reports whether a backend error means the Spotify login is missing.
func IsAuthRequired(msg string) bool {
	return strings.Contains(strings.ToLower(msg), authMarker)
}
