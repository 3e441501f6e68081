// Package server is the jarvis backend: HTTP routing, middleware and the handlers behind
// the chat shell.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with per-method dispatch.
//
// # Endpoints
//
// [BackendHandler] serves /spotify/{play,queue}-{song,album,podcast}, /chat, /delete-file,
// /create-file and /health. Replies are JSON objects with error, success, response and
// authorization_url keys.
//
// # OAuth
//
// [OAuthHandler] redirects /spotify/authorize to Spotify with a single-use state and
// handles /spotify/callback: it validates the state, exchanges the code, stores the token
// and answers with a page that notifies the opener window and closes itself.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
