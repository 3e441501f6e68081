package dispatch

import (
	"strings"
)

// Route is where a message is sent.
type Route int

const (
	RouteChat Route = iota
	RouteMedia
	RouteDeleteFile
	RouteCreateFile
)

func (r Route) String() string {
	switch r {
	case RouteMedia:
		return "media"
	case RouteDeleteFile:
		return "delete-file"
	case RouteCreateFile:
		return "create-file"
	default:
		return "chat"
	}
}

const (
	deletePrefix = "delete file "
	createPrefix = "create file "
)

var mediaKeywords = []string{"play", "queue", "song", "music", "spotify", "album", "podcast"}

// Decision is the outcome of [Decide].
type Decision struct {
	Route    Route
	Filename string // set for the two file routes
}

// Decide picks a [Route] for text. Media keywords are checked first, so
// "delete file playlist.txt" is a media request.
func Decide(text string) Decision {
	lower := strings.ToLower(text)
	for _, kw := range mediaKeywords {
		if strings.Contains(lower, kw) {
			return Decision{Route: RouteMedia}
		}
	}

	if name, ok := cutPrefixFold(text, deletePrefix); ok {
		return Decision{Route: RouteDeleteFile, Filename: name}
	}
	if name, ok := cutPrefixFold(text, createPrefix); ok {
		return Decision{Route: RouteCreateFile, Filename: name}
	}

	return Decision{Route: RouteChat}
}

// cutPrefixFold strips an ASCII prefix case-insensitively and trims the rest.
func cutPrefixFold(text, prefix string) (string, bool) {
	if len(text) < len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(text[len(prefix):]), true
}
