// Package services implements the backend side of jarvis and the client the chat shell
// uses to reach it.
//
// # Backend client
//
// [APIService] speaks the backend wire format and satisfies dispatch.Backend. Non-2xx
// answers are returned together with the decoded body so callers can still show it.
//
// # Spotify
//
// [SpotifyService] plays and queues songs, albums and podcast episodes through the
// Web API. Tokens come from a [TokenStore]; the [oauth2] client refreshes them and
// refreshed tokens are written back. Requests are paced by a [rate.Limiter].
//
// # Chat and files
//
// [OpenAIService] forwards prompts to OpenAI chat completions. [FileManager] creates
// files in one directory and deletes them from a list of search roots, answering in
// sentences meant for the user.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no Spotify token stored
//   - [shared.ErrNoDevice] : no playback device available
//   - [shared.ErrNotFound] : search returned nothing
//   - [shared.ErrAPIRequest] : HTTP request failed
//
// Failures meant for the user are [*MediaError]s; their text is shown verbatim.
package services
