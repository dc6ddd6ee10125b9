// Package player implements the playback controller: the single owner of queue,
// cursor and transport state for the engine.
package player

import "errors"

// Core playback failures surfaced to the UI as user-visible state.
var (
	// ErrNoPlayableSource indicates the track resolved to no usable audio
	// candidate. Fatal for that play attempt only; prior state is untouched.
	ErrNoPlayableSource = errors.New("track has no playable audio source")

	// ErrEmptyQueue indicates a queue replacement was attempted with no
	// structurally valid tracks.
	ErrEmptyQueue = errors.New("no playable tracks in queue")

	// ErrNotAllowed indicates the platform rejected playback without a user
	// gesture. Surfaced, never auto-retried.
	ErrNotAllowed = errors.New("playback not allowed without user gesture")
)

// Platform transport failures delivered through EventError. Handles wrap these
// so the controller can classify without knowing platform error shapes.
var (
	ErrUnsupportedFormat = errors.New("unsupported media format")
	ErrNetwork           = errors.New("network failure during media transport")
	ErrDecode            = errors.New("media decode failure")
)
