// Package dispatch decides what to do with one chat message and turns the
// backend's answer into exactly one line for the transcript.
//
// # Routing
//
// [Decide] inspects the raw message, in this order:
//  1. any of play, queue, song, music, spotify, album, podcast: media request
//  2. "delete file <name>": file deletion
//  3. "create file <name>": file creation, first phase
//  4. anything else: chat
//
// Media requests are classified with package intent. The verb (play or queue)
// comes from [intent.DetectAction] and not from the pattern that matched, so
// "add x to queue" hits a queue endpoint even though the song pattern used "add".
//
// # Reducer
//
// [Dispatcher.Handle] is a reducer: it takes the message and the current
// [CreateState] and returns a [Result] holding the messages to append, the next
// state and an optional URL the shell should open. It never mutates the state it
// was given. The create-file flow has two states:
//
//	Idle --"create file X"--> Awaiting(X)
//	Awaiting(X) --content--> Idle   (backend called, whatever the outcome)
//	Awaiting(X) --cancel--> Idle    (no call)
//
// # Normalization
//
// The backend never gets to leave the user without an answer. Transport
// failures, non-2xx answers and unexpected shapes all map to one of the fixed
// texts in this package. A media error mentioning "User not logged in" is
// replaced by [AuthorizeText] and the backend's authorization URL is returned
// in [Result.OpenURL].
package dispatch
