// Package intent turns a free-form chat message into a media request.
//
// Classification is an ordered cascade of categories. A category is gated by a
// trigger keyword ("podcast", then "album"); the song category has no trigger and
// catches everything else. Inside a category the first matching pattern wins,
// most specific first. When nothing matches, the whole trimmed message becomes
// the entity name and the type is [Song].
//
// Whether a request plays or queues is a separate question answered by
// [DetectAction], which only looks for the word "queue". The two are kept apart
// on purpose: callers compose them, see package dispatch.
package intent
