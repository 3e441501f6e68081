package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EntityType is the kind of media the user asked for.
type EntityType int

const (
	Song EntityType = iota
	Album
	Podcast
)

func (t EntityType) String() string {
	switch t {
	case Album:
		return "album"
	case Podcast:
		return "podcast"
	default:
		return "song"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (t EntityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseEntityType is the inverse of [EntityType.String].
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "song":
		return Song, nil
	case "album":
		return Album, nil
	case "podcast":
		return Podcast, nil
	}
	return Song, fmt.Errorf("unknown entity type %q", s)
}

// ActionType says whether media should start now or go to the end of the queue.
type ActionType int

const (
	Play ActionType = iota
	Queue
)

func (a ActionType) String() string {
	if a == Queue {
		return "queue"
	}
	return "play"
}

// MarshalText implements [encoding.TextMarshaler].
func (a ActionType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ParseActionType is the inverse of [ActionType.String].
func ParseActionType(s string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "play":
		return Play, nil
	case "queue":
		return Queue, nil
	}
	return Play, fmt.Errorf("unknown action %q", s)
}

// Parsed is the result of classifying one message.
type Parsed struct {
	Name string     `json:"name"`
	Type EntityType `json:"type"`
}

func (p Parsed) String() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// DetectAction reports [Queue] when the message mentions "queue" anywhere, in
// any case, and [Play] otherwise.
func DetectAction(text string) ActionType {
	if strings.Contains(strings.ToLower(text), "queue") {
		return Queue
	}
	return Play
}

var defaultClassifier = NewClassifier()

// Classify runs the default [Classifier] over text.
func Classify(text string) Parsed {
	return defaultClassifier.Classify(text)
}
