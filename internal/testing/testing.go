// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/jarvis/internal/intent"
	"github.com/desertthunder/jarvis/internal/models"
)

// Call records one invocation of [FakeBackend].
type Call struct {
	Op      string // media, chat, delete-file, create-file
	Action  intent.ActionType
	Kind    intent.EntityType
	Arg     string // entity name, prompt or filename
	Content string
}

// FakeBackend is a scripted test double for dispatch.Backend.
//
// Every operation answers with Reply and Err; calls are recorded in order.
type FakeBackend struct {
	Reply   *models.Reply
	Err     error
	AuthURL string

	mu    sync.Mutex
	calls []Call
}

func (f *FakeBackend) record(c Call) (*models.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.Reply, f.Err
}

func (f *FakeBackend) Media(ctx context.Context, action intent.ActionType, kind intent.EntityType, name string) (*models.Reply, error) {
	return f.record(Call{Op: "media", Action: action, Kind: kind, Arg: name})
}

func (f *FakeBackend) Chat(ctx context.Context, prompt string) (*models.Reply, error) {
	return f.record(Call{Op: "chat", Arg: prompt})
}

func (f *FakeBackend) DeleteFile(ctx context.Context, filename string) (*models.Reply, error) {
	return f.record(Call{Op: "delete-file", Arg: filename})
}

func (f *FakeBackend) CreateFile(ctx context.Context, filename, content string) (*models.Reply, error) {
	return f.record(Call{Op: "create-file", Arg: filename, Content: content})
}

func (f *FakeBackend) AuthorizeURL() string { return f.AuthURL }

// Calls returns a copy of the recorded calls.
func (f *FakeBackend) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// LastCall returns the most recent call, failing the test if there was none.
func (f *FakeBackend) LastCall(t *testing.T) Call {
	t.Helper()
	calls := f.Calls()
	if len(calls) == 0 {
		t.Fatal("expected at least one backend call")
	}
	return calls[len(calls)-1]
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
