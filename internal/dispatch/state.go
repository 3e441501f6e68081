package dispatch

// CreateState is the pending create-file slot owned by the shell.
// The zero value is Idle.
type CreateState struct {
	Filename string
}

// Idle is the state with no pending file.
var Idle = CreateState{}

// Awaiting reports whether the shell should collect file content next.
func (s CreateState) Awaiting() bool {
	return s.Filename != ""
}

// Result is everything the shell needs to render one turn.
type Result struct {
	Messages []string    // bot messages to append, in order
	State    CreateState // next create-file state
	OpenURL  string      // non-empty when an authorization flow should be opened
}

// Message returns the first message, or "" when the turn produced none.
func (r Result) Message() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0]
}

// AuthRequired reports whether the shell was asked to open an authorization flow.
func (r Result) AuthRequired() bool {
	return r.OpenURL != ""
}

func reply(state CreateState, msg string) Result {
	return Result{Messages: []string{msg}, State: state}
}
