// Package ui implements the interactive chat shell using bubbletea's Elm architecture.
//
// The [Model] keeps the transcript in a viewport above a single-line input. Each
// submission is handed to the dispatcher in a command; while it runs the input is
// locked and a spinner is shown, so only one request is ever in flight.
//
// After "create file <name>" the input switches to a multi-line textarea for the file
// content; ctrl+s saves it and esc abandons it. When the dispatcher asks for the Spotify
// login, the authorization page is opened in the system browser.
package ui
