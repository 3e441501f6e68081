// Package models defines the JSON bodies exchanged between the chat shell and the backend.
//
// Requests:
//   - [MediaRequest] : entity name for the six play/queue endpoints
//   - [ChatRequest] : free-text prompt
//   - [FileRequest] : filename plus optional content
//
// Every endpoint answers with a [Reply]. Which fields are set depends on the
// endpoint: media endpoints set Error or Success, chat sets Response, file
// endpoints set Response. A missing Spotify login also sets AuthorizationURL.
package models
