package player

// EventType enumerates the transport events a platform media handle emits.
type EventType int

const (
	// EventStarted fires when the platform can play and playback has begun.
	EventStarted EventType = iota
	// EventTime fires on transport position updates.
	EventTime
	// EventEnded fires on natural completion of the current source.
	EventEnded
	// EventError fires on an unrecoverable transport error.
	EventError
)

// Event is one transport notification from the platform media handle.
//
// Token echoes the load token the event belongs to, so the controller can
// discard notifications from a superseded load. The platform offers no
// cancellation of in-flight play attempts; staleness suppression is the
// only defense against a slow older load finishing after a newer one.
type Event struct {
	Type     EventType
	Token    uint64
	Position float64
	Duration float64
	Err      error
}

// MediaHandle is the host platform's media decoder surface.
//
// The engine never decodes audio itself; it assigns sources to the handle and
// reacts to the events the handle emits. Exactly one handle is active at a
// time and it is owned exclusively by the controller.
type MediaHandle interface {
	// Load stops any current source, resets the transport and assigns a new
	// source URL. The token is echoed back in every event for that source.
	Load(url string, token uint64)

	// Play requests playback to start. The actual start is signalled
	// asynchronously via EventStarted; a synchronous ErrNotAllowed reports a
	// missing user-gesture permission.
	Play() error

	Pause()

	// Stop halts playback and resets the transport position.
	Stop()

	Seek(seconds float64)
	SetVolume(v float64)

	Position() float64
	Duration() float64

	// Paused reports the platform's actual transport state, not any cached
	// flag. The toggle path depends on this distinction.
	Paused() bool

	// Subscribe registers the single event sink for transport notifications.
	Subscribe(fn func(Event))
}
