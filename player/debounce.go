package player

import "time"

// debounceState models the toggle debouncer as a small explicit state machine
// rather than ad hoc timer bookkeeping.
type debounceState int

const (
	debounceIdle debounceState = iota
	debouncePending
)

// toggleDebouncer collapses a burst of play/pause toggles into the state
// implied by the last one. Each touch restarts the timer; when it fires, the
// apply callback is posted to the controller's command loop.
type toggleDebouncer struct {
	state debounceState
	timer *time.Timer
	delay time.Duration
	apply func()
}

func newToggleDebouncer(delay time.Duration, apply func()) *toggleDebouncer {
	return &toggleDebouncer{delay: delay, apply: apply}
}

// touch registers one toggle, restarting the pending timer if necessary.
func (d *toggleDebouncer) touch() {
	if d.state == debouncePending && d.timer != nil {
		d.timer.Stop()
	}

	d.state = debouncePending
	d.timer = time.AfterFunc(d.delay, d.apply)
}

// applied transitions back to idle once the pending toggle has been applied.
func (d *toggleDebouncer) applied() {
	d.state = debounceIdle
}

// cancel aborts any pending toggle.
func (d *toggleDebouncer) cancel() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.state = debounceIdle
}
