package dispatch

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/models"
	"github.com/desertthunder/jarvis/internal/shared"
	tu "github.com/desertthunder/jarvis/internal/testing"
)

const authURL = "http://127.0.0.1:8000/spotify/authorize"

func newTestDispatcher(backend Backend) *Dispatcher {
	return New(backend, Opts{Logger: shared.NewLogger(&bytes.Buffer{})})
}

func TestDecide(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  Decision
	}{
		{name: "play is media", input: "play thriller", want: Decision{Route: RouteMedia}},
		{name: "keyword anywhere", input: "Any good MUSIC lately?", want: Decision{Route: RouteMedia}},
		{name: "spotify is media", input: "open spotify", want: Decision{Route: RouteMedia}},
		{name: "delete file", input: "delete file notes.txt", want: Decision{Route: RouteDeleteFile, Filename: "notes.txt"}},
		{name: "delete file mixed case", input: "Delete File  Report.docx  ", want: Decision{Route: RouteDeleteFile, Filename: "Report.docx"}},
		{name: "create file", input: "create file todo.md", want: Decision{Route: RouteCreateFile, Filename: "todo.md"}},
		{name: "media keyword beats file prefix", input: "delete file playlist.txt", want: Decision{Route: RouteMedia}},
		{name: "prefix needs trailing space", input: "delete filenotes.txt", want: Decision{Route: RouteChat}},
		{name: "prefix must lead", input: "please delete file notes.txt", want: Decision{Route: RouteChat}},
		{name: "chat", input: "what is the capital of france", want: Decision{Route: RouteChat}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.input); got != tt.want {
				t.Errorf("Decide(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDispatcherMedia(t *testing.T) {
	t.Run("Scenarios", func(t *testing.T) {
		tc := []struct {
			input      string
			wantName   string
			wantKind   intent.EntityType
			wantAction intent.ActionType
		}{
			{"play shape of you by ed sheeran", "shape of you ed sheeran", intent.Song, intent.Play},
			{"queue the album thriller by michael jackson", "thriller michael jackson", intent.Album, intent.Queue},
			{"play the podcast serial", "serial", intent.Podcast, intent.Play},
			{"add hotel california to queue", "hotel california to queue", intent.Song, intent.Queue},
		}

		for _, tt := range tc {
			t.Run(tt.input, func(t *testing.T) {
				backend := &tu.FakeBackend{Reply: models.SuccessReply("ok")}
				d := newTestDispatcher(backend)

				res := d.Handle(context.Background(), tt.input, Idle)

				call := backend.LastCall(t)
				if call.Op != "media" {
					t.Fatalf("expected media call, got %s", call.Op)
				}
				if call.Arg != tt.wantName || call.Kind != tt.wantKind || call.Action != tt.wantAction {
					t.Errorf("got %s %s %q, want %s %s %q", call.Action, call.Kind, call.Arg, tt.wantAction, tt.wantKind, tt.wantName)
				}
				if len(res.Messages) != 1 || res.Message() != "ok" {
					t.Errorf("expected single message ok, got %v", res.Messages)
				}
			})
		}
	})

	t.Run("Auth Required", func(t *testing.T) {
		backend := &tu.FakeBackend{
			Reply:   &models.Reply{Error: "User not logged in. Please authenticate with Spotify.", AuthorizationURL: "https://accounts.spotify.com/x"},
			AuthURL: authURL,
		}
		d := newTestDispatcher(backend)

		for _, input := range []string{"play thriller", "queue the album thriller", "play the podcast serial"} {
			res := d.Handle(context.Background(), input, Idle)
			if res.Message() != AuthorizeText {
				t.Errorf("%q: expected authorize text, got %q", input, res.Message())
			}
			if res.OpenURL != authURL || !res.AuthRequired() {
				t.Errorf("%q: expected open url %s, got %q", input, authURL, res.OpenURL)
			}
			for _, m := range res.Messages {
				if m == backend.Reply.Error {
					t.Errorf("%q: raw error leaked into transcript", input)
				}
			}
		}
	})

	t.Run("Backend Error Is Literal", func(t *testing.T) {
		d := newTestDispatcher(&tu.FakeBackend{Reply: models.ErrorReply("Song not found.")})
		res := d.Handle(context.Background(), "play zzzz", Idle)
		if res.Message() != "Song not found." || res.AuthRequired() {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("Neither Error Nor Success", func(t *testing.T) {
		d := newTestDispatcher(&tu.FakeBackend{Reply: &models.Reply{}})
		if res := d.Handle(context.Background(), "play thriller", Idle); res.Message() != FallbackText {
			t.Errorf("expected fallback, got %q", res.Message())
		}
	})

	t.Run("Non 2xx With Body", func(t *testing.T) {
		d := newTestDispatcher(&tu.FakeBackend{Reply: &models.Reply{}, Err: errors.New("status 500")})
		if res := d.Handle(context.Background(), "play thriller", Idle); res.Message() != FallbackText {
			t.Errorf("expected fallback, got %q", res.Message())
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		d := newTestDispatcher(&tu.FakeBackend{Err: errors.New("connection refused")})
		res := d.Handle(context.Background(), "play thriller", Idle)
		if res.Message() != BackendErrorText {
			t.Errorf("expected backend error text, got %q", res.Message())
		}
	})
}

func TestDispatcherChat(t *testing.T) {
	tc := []struct {
		name  string
		reply *models.Reply
		err   error
		want  string
	}{
		{name: "response", reply: models.TextReply("Paris."), want: "Paris."},
		{name: "error wins", reply: &models.Reply{Error: "quota", Success: "s", Response: "r"}, want: "quota"},
		{name: "success beats response", reply: &models.Reply{Success: "s", Response: "r"}, want: "s"},
		{name: "empty body", reply: &models.Reply{}, want: FallbackText},
		{name: "transport failure", err: errors.New("dial tcp: connection refused"), want: UnreachableText},
		{name: "non 2xx", reply: &models.Reply{Response: "r"}, err: errors.New("status 502"), want: UnreachableText},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			backend := &tu.FakeBackend{Reply: tt.reply, Err: tt.err}
			d := newTestDispatcher(backend)

			res := d.Handle(context.Background(), "what is the capital of france", Idle)

			if call := backend.LastCall(t); call.Op != "chat" || call.Arg != "what is the capital of france" {
				t.Errorf("unexpected call %+v", call)
			}
			if len(res.Messages) != 1 || res.Message() != tt.want {
				t.Errorf("got %v, want [%s]", res.Messages, tt.want)
			}
		})
	}
}

func TestDispatcherFiles(t *testing.T) {
	t.Run("Delete", func(t *testing.T) {
		backend := &tu.FakeBackend{Reply: models.TextReply("✅ File 'notes.txt' deleted")}
		d := newTestDispatcher(backend)

		res := d.Handle(context.Background(), "delete file notes.txt", Idle)

		call := backend.LastCall(t)
		if call.Op != "delete-file" || call.Arg != "notes.txt" {
			t.Errorf("unexpected call %+v", call)
		}
		if res.Message() != "✅ File 'notes.txt' deleted" {
			t.Errorf("unexpected message %q", res.Message())
		}
	})

	t.Run("Delete Transport Failure", func(t *testing.T) {
		d := newTestDispatcher(&tu.FakeBackend{Err: errors.New("boom")})
		if res := d.Handle(context.Background(), "delete file notes.txt", Idle); res.Message() != BackendErrorText {
			t.Errorf("unexpected message %q", res.Message())
		}
	})

	t.Run("Missing Filename", func(t *testing.T) {
		backend := &tu.FakeBackend{}
		d := newTestDispatcher(backend)
		for _, input := range []string{"delete file   ", "create file "} {
			res := d.Handle(context.Background(), input, Idle)
			if res.Message() != MissingFilenameText || res.State.Awaiting() {
				t.Errorf("%q: unexpected result %+v", input, res)
			}
		}
		if len(backend.Calls()) != 0 {
			t.Errorf("expected no backend calls, got %v", backend.Calls())
		}
	})

	t.Run("Create Two Phases", func(t *testing.T) {
		backend := &tu.FakeBackend{Reply: models.TextReply("✅ File 'todo.md' created")}
		d := newTestDispatcher(backend)

		first := d.Handle(context.Background(), "create file todo.md", Idle)
		if len(first.Messages) != 0 {
			t.Errorf("suspension step should produce no messages, got %v", first.Messages)
		}
		if first.State != (CreateState{Filename: "todo.md"}) {
			t.Fatalf("expected awaiting todo.md, got %+v", first.State)
		}
		if len(backend.Calls()) != 0 {
			t.Fatal("first phase must not call the backend")
		}

		second := d.Handle(context.Background(), "- buy milk", first.State)
		call := backend.LastCall(t)
		if call.Op != "create-file" || call.Arg != "todo.md" || call.Content != "- buy milk" {
			t.Errorf("unexpected call %+v", call)
		}
		if second.State.Awaiting() {
			t.Error("expected Idle after submission")
		}
		if second.Message() != "✅ File 'todo.md' created" {
			t.Errorf("unexpected message %q", second.Message())
		}
	})

	t.Run("Create Content Looks Like Media", func(t *testing.T) {
		backend := &tu.FakeBackend{Reply: models.TextReply("done")}
		d := newTestDispatcher(backend)

		d.Handle(context.Background(), "play thriller", CreateState{Filename: "x.txt"})
		if call := backend.LastCall(t); call.Op != "create-file" || call.Content != "play thriller" {
			t.Errorf("content must not be routed, got %+v", call)
		}
	})

	t.Run("Create Failure Still Returns To Idle", func(t *testing.T) {
		d := newTestDispatcher(&tu.FakeBackend{Err: errors.New("boom")})
		res := d.Submit(context.Background(), CreateState{Filename: "x.txt"}, "hello")
		if res.State.Awaiting() || res.Message() != BackendErrorText {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("Create Without Response Field", func(t *testing.T) {
		d := newTestDispatcher(&tu.FakeBackend{Reply: &models.Reply{Error: "nope"}})
		res := d.Submit(context.Background(), CreateState{Filename: "x.txt"}, "hello")
		if res.Message() != FallbackText {
			t.Errorf("expected fallback, got %q", res.Message())
		}
	})

	t.Run("Submit While Idle Is A No-op", func(t *testing.T) {
		backend := &tu.FakeBackend{}
		d := newTestDispatcher(backend)
		res := d.Submit(context.Background(), Idle, "hello")
		if len(res.Messages) != 0 || len(backend.Calls()) != 0 {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		backend := &tu.FakeBackend{}
		d := newTestDispatcher(backend)
		state := CreateState{Filename: "x.txt"}

		res := d.Cancel(state)
		if res.State != Idle || len(res.Messages) != 0 {
			t.Errorf("unexpected result %+v", res)
		}
		if state.Filename != "x.txt" {
			t.Error("Cancel must not mutate its input")
		}
		if len(backend.Calls()) != 0 {
			t.Error("Cancel must not call the backend")
		}
	})
}

func TestDispatcherBlankInput(t *testing.T) {
	backend := &tu.FakeBackend{}
	d := newTestDispatcher(backend)

	res := d.Handle(context.Background(), "   ", Idle)
	if len(res.Messages) != 0 || res.State != Idle {
		t.Errorf("unexpected result %+v", res)
	}
	if len(backend.Calls()) != 0 {
		t.Error("blank input must not reach the backend")
	}
}

// blockingBackend parks the first Chat until released so TryHandle can be
// observed mid-flight. Later calls go straight to the embedded fake.
type blockingBackend struct {
	tu.FakeBackend
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingBackend) Chat(ctx context.Context, prompt string) (*models.Reply, error) {
	first := false
	b.once.Do(func() { first = true })
	if !first {
		return b.FakeBackend.Chat(ctx, prompt)
	}

	close(b.entered)
	<-b.release
	return models.TextReply("late"), nil
}

func TestDispatcherTryHandle(t *testing.T) {
	backend := &blockingBackend{entered: make(chan struct{}), release: make(chan struct{})}
	d := newTestDispatcher(backend)

	done := make(chan Result)
	go func() {
		res, err := d.TryHandle(context.Background(), "hello there", Idle)
		if err != nil {
			t.Errorf("first submission should run: %v", err)
		}
		done <- res
	}()

	<-backend.entered
	if _, err := d.TryHandle(context.Background(), "hello again", Idle); !errors.Is(err, shared.ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(backend.release)
	if res := <-done; res.Message() != "late" {
		t.Errorf("unexpected first result %q", res.Message())
	}

	backend.Reply = models.TextReply("next")
	res, err := d.TryHandle(context.Background(), "what now", Idle)
	if err != nil {
		t.Errorf("expected slot to be free again, got %v", err)
	}
	if res.Message() != "next" {
		t.Errorf("unexpected second result %q", res.Message())
	}
	if call := backend.LastCall(t); call.Op != "chat" || call.Arg != "what now" {
		t.Errorf("unexpected call %+v", call)
	}
}

func TestIsAuthRequired(t *testing.T) {
	if !IsAuthRequired("User not logged in. Please authenticate with Spotify.") {
		t.Error("expected auth marker to match")
	}
	if !IsAuthRequired("user NOT logged in") {
		t.Error("expected case-insensitive match")
	}
	if IsAuthRequired("No active Spotify devices found.") {
		t.Error("unexpected match")
	}
}

func TestDispatcherLogsRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := shared.NewLogger(&buf)
	shared.SetLogLevel(logger, log.DebugLevel)
	d := New(&tu.FakeBackend{Reply: models.TextReply("hi")}, Opts{Logger: logger})

	d.Handle(context.Background(), "hello", Idle)
	if !bytes.Contains(buf.Bytes(), []byte("route=chat")) {
		t.Errorf("expected route in logs, got %s", buf.String())
	}
}
