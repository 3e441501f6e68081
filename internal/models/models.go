// package models defines the wire format for the jarvis backend
package models

// MediaRequest is the body of every /spotify/{action}-{kind} call.
//
// The field keeps its historical name even for albums and podcasts.
type MediaRequest struct {
	SongName string `json:"song_name"`
}

// ChatRequest is the body of /chat.
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// FileRequest is the body of /create-file and /delete-file.
type FileRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content,omitempty"`
}

// Reply is the union of every backend response shape.
type Reply struct {
	Error            string `json:"error,omitempty"`
	Success          string `json:"success,omitempty"`
	Response         string `json:"response,omitempty"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
}

// Health is the body of /health.
type Health struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
}

// ErrorReply builds a [Reply] carrying an application error.
func ErrorReply(msg string) *Reply { return &Reply{Error: msg} }

// SuccessReply builds a [Reply] carrying a success message.
func SuccessReply(msg string) *Reply { return &Reply{Success: msg} }

// TextReply builds a [Reply] carrying a plain response.
func TextReply(msg string) *Reply { return &Reply{Response: msg} }
