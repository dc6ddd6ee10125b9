package player

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sangeet-cli/sangeet/analytics"
	"github.com/sangeet-cli/sangeet/catalog"
	"github.com/sangeet-cli/sangeet/effects"
	"github.com/sangeet-cli/sangeet/history"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/log"
	"github.com/sangeet-cli/sangeet/quality"
	"github.com/sangeet-cli/sangeet/util"
	"github.com/spf13/viper"
)

// Enricher opportunistically upgrades a track's artwork or stream candidates.
// Implementations must be best-effort; the controller never observes their
// failures.
type Enricher interface {
	Upgrade(ctx context.Context, track *catalog.Track)
}

// Options configures optional collaborators of the controller.
type Options struct {
	// Chain is the optional processing graph. The controller owns it for the
	// session and disposes it on Close.
	Chain *effects.Chain

	// Enricher is the optional catalog-metadata collaborator.
	Enricher Enricher

	// Rand overrides the shuffle randomness source, used by tests.
	Rand *rand.Rand
}

// Controller owns the complete "now playing" state: current track, queue,
// active playlist, shuffle/repeat mode and transport position.
//
// It is an actor: public methods post commands onto a single loop goroutine
// that is the sole writer of all playback state. Transport events from the
// media handle and the debounce timer feed the same loop, so no state is ever
// read from a value captured at callback-registration time.
type Controller struct {
	handle   MediaHandle
	chain    *effects.Chain
	enricher Enricher
	rng      *rand.Rand

	cmds      chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Everything below is owned by the command loop.
	queue     Queue
	playlist  *ActivePlaylist
	current   *catalog.Track
	status    Status
	isPlaying bool
	shuffle   bool
	repeat    RepeatMode
	volume    float64
	position  float64
	duration  float64
	lastError error
	decision  quality.Decision
	loadToken uint64
	attached  bool
	debouncer *toggleDebouncer
}

// NewController constructs the controller around a platform media handle and
// starts its command loop.
func NewController(handle MediaHandle, opts Options) *Controller {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := &Controller{
		handle:   handle,
		chain:    opts.Chain,
		enricher: opts.Enricher,
		rng:      rng,
		cmds:     make(chan func(), 64),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
		volume:   util.Clamp(viper.GetFloat64(key.PlayerVolume), 0, 1),
	}

	debounce := time.Duration(viper.GetInt(key.PlayerToggleDebounceMs)) * time.Millisecond
	c.debouncer = newToggleDebouncer(debounce, func() {
		c.post(c.applyToggle)
	})

	handle.SetVolume(c.volume)
	handle.Subscribe(func(ev Event) {
		c.post(func() { c.handleEvent(ev) })
	})

	go c.run()
	return c
}

func (c *Controller) run() {
	defer close(c.stopped)

	for {
		select {
		case <-c.quit:
			return
		case fn := <-c.cmds:
			fn()
		}
	}
}

// post schedules a command without waiting for it.
func (c *Controller) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.quit:
	}
}

// do runs a command on the loop and waits for its completion.
func (c *Controller) do(fn func()) {
	done := make(chan struct{})

	select {
	case c.cmds <- func() { fn(); close(done) }:
	case <-c.quit:
		return
	}

	select {
	case <-done:
	case <-c.quit:
	}
}

// cursor returns the authoritative cursor position: the active playlist's when
// present, the queue's otherwise.
func (c *Controller) cursor() int {
	if c.playlist != nil {
		return c.playlist.index
	}
	return c.queue.index
}

// moveCursor repositions queue and playlist cursors together.
func (c *Controller) moveCursor(index int) {
	c.queue.moveTo(index)
	if c.playlist != nil {
		c.playlist.index = index
	}
}

// Play resolves the track's best audio source and starts playback.
//
// Fails with ErrNoPlayableSource, leaving all prior state untouched, when the
// track has no usable audio candidate.
func (c *Controller) Play(track *catalog.Track) error {
	var err error
	c.do(func() {
		decision := quality.Select(track.Audio)
		if decision.Empty() {
			err = ErrNoPlayableSource
			return
		}

		// Align the cursor when the track is already queued.
		for i, queued := range c.queue.tracks {
			if queued.ID == track.ID {
				c.moveCursor(i)
				break
			}
		}

		err = c.startWith(track, decision)
	})
	return err
}

// SetQueueAndPlay replaces the whole queue and starts playback at index.
//
// Structurally invalid tracks are filtered out before committing; an index
// made out of range by filtering clamps to 0. An empty filtered list fails
// with ErrEmptyQueue and does not alter existing playback. Any active
// playlist is cleared.
func (c *Controller) SetQueueAndPlay(tracks []*catalog.Track, index int) error {
	var err error
	c.do(func() {
		err = c.commitQueue(tracks, index, nil)
	})
	return err
}

// PlayPlaylist replaces the queue with a playlist's tracks and starts playback
// at index. The playlist's language tag biases shuffle selection.
func (c *Controller) PlayPlaylist(name, language string, tracks []*catalog.Track, index int) error {
	var err error
	c.do(func() {
		err = c.commitQueue(tracks, index, func(valid []*catalog.Track) *ActivePlaylist {
			return NewActivePlaylist(name, language, valid)
		})
	})
	return err
}

func (c *Controller) commitQueue(tracks []*catalog.Track, index int, playlist func([]*catalog.Track) *ActivePlaylist) error {
	valid := lo.Filter(tracks, func(t *catalog.Track, _ int) bool {
		return t.Valid()
	})
	if len(valid) == 0 {
		return ErrEmptyQueue
	}

	if index < 0 || index >= len(valid) {
		index = 0
	}

	// Queue and playlist are replaced together; both cursors move atomically
	// on every later transition.
	c.queue.replace(valid, index)
	c.playlist = nil
	if playlist != nil {
		c.playlist = playlist(valid)
		c.playlist.index = index
	}

	return c.playAt(index)
}

// playAt resolves the track at index and starts it, moving both cursors only
// once a playable source is known.
func (c *Controller) playAt(index int) error {
	track := c.queue.At(index)
	if track == nil {
		return nil
	}

	decision := quality.Select(track.Audio)
	if decision.Empty() {
		return ErrNoPlayableSource
	}

	c.moveCursor(index)
	return c.startWith(track, decision)
}

// startWith stops the current source and starts the given track. The load
// token makes any still-resolving older attempt stale.
func (c *Controller) startWith(track *catalog.Track, decision quality.Decision) error {
	c.loadToken++

	c.handle.Stop()
	c.handle.Load(decision.URL, c.loadToken)

	c.current = track
	c.decision = decision
	c.lastError = nil
	c.position = 0
	c.duration = track.Duration
	c.status = StatusLoading
	c.isPlaying = true

	if c.chain != nil && !c.attached {
		// Every attach outcome is non-fatal; at worst audio plays unprocessed.
		result := c.chain.Attach(c.handle)
		c.attached = true
		log.Debugf("processing chain: %s", result)
	}

	if err := c.handle.Play(); err != nil {
		c.isPlaying = false
		c.status = StatusErrored
		if errors.Is(err, ErrNotAllowed) {
			err = ErrNotAllowed
		}
		c.lastError = err
		return err
	}

	c.afterPlay(track)
	return nil
}

// afterPlay fires the best-effort side effects of a successful play. Each
// runs on its own goroutine; failures are logged and never reach playback.
func (c *Controller) afterPlay(track *catalog.Track) {
	snapshot := *track

	if viper.GetBool(key.HistorySaveOnPlay) {
		go func() {
			if err := history.Push(&snapshot); err != nil {
				log.Warnf("recently-played registry: %v", err)
			}
		}()
	}

	analytics.EmitAsync(analytics.PlayEvent{
		TrackID:         track.ID,
		Title:           track.Name,
		Artist:          track.Artist,
		DurationSeconds: track.Duration,
	})

	if c.enricher != nil {
		go c.enricher.Upgrade(context.Background(), &snapshot)
	}
}

// handleEvent consumes one transport notification from the media handle.
func (c *Controller) handleEvent(ev Event) {
	if ev.Token != c.loadToken {
		// A superseded load finished after a newer one; expected control flow.
		log.Debugf("discarding stale transport event (token %d, current %d)", ev.Token, c.loadToken)
		return
	}

	switch ev.Type {
	case EventStarted:
		c.status = StatusPlaying
		c.isPlaying = true
		if ev.Duration > 0 {
			c.duration = ev.Duration
		}

	case EventTime:
		c.position = ev.Position
		if ev.Duration > 0 {
			c.duration = ev.Duration
		}

	case EventEnded:
		// Repeat-one is enforced here, on natural completion, never in Next.
		if c.repeat == RepeatOne && c.current != nil {
			if decision := quality.Select(c.current.Audio); !decision.Empty() {
				if err := c.startWith(c.current, decision); err != nil {
					log.Warnf("repeat-one replay: %v", err)
				}
				return
			}
		}
		c.advance()

	case EventError:
		err := ev.Err
		if err == nil {
			err = ErrDecode
		}
		c.lastError = err
		c.isPlaying = false
		c.status = StatusErrored
	}
}

// Next advances to the next track per the shuffle/repeat rules.
func (c *Controller) Next() {
	c.do(c.advance)
}

func (c *Controller) advance() {
	if c.queue.Len() == 0 {
		return
	}

	index, ok := c.nextIndex()
	if !ok {
		// Past the end without repeat-all: stop cleanly, keep the cursor.
		c.handle.Stop()
		c.isPlaying = false
		c.position = 0
		c.status = StatusEnded
		return
	}

	if err := c.playAt(index); err != nil {
		c.lastError = err
		c.isPlaying = false
		c.status = StatusErrored
	}
}

// Previous retreats to the previous track, or restarts the current one when
// the transport position is past the restart threshold.
func (c *Controller) Previous() {
	c.do(func() {
		if c.queue.Len() == 0 {
			return
		}

		threshold := viper.GetFloat64(key.PlayerPreviousRestartThreshold)
		if c.handle.Position() > threshold {
			c.handle.Seek(0)
			c.position = 0
			return
		}

		index, ok := c.previousIndex()
		if !ok {
			return
		}

		if err := c.playAt(index); err != nil {
			c.lastError = err
			c.isPlaying = false
			c.status = StatusErrored
		}
	})
}

// nextIndex resolves the next cursor position. ok is false when playback
// should stop instead of advancing.
func (c *Controller) nextIndex() (index int, ok bool) {
	n := c.queue.Len()

	if c.shuffle {
		if target, ok := c.shuffleIndex(); ok {
			return target, true
		}
		// Singleton pool: sequential advance.
	}

	next := c.cursor() + 1
	if next >= n {
		if c.repeat == RepeatAll {
			return 0, true
		}
		return 0, false
	}
	return next, true
}

// previousIndex resolves the previous cursor position.
func (c *Controller) previousIndex() (index int, ok bool) {
	if c.shuffle {
		if target, ok := c.shuffleIndex(); ok {
			return target, true
		}
	}

	prev := c.cursor() - 1
	if prev < 0 {
		if c.repeat == RepeatAll {
			return c.queue.Len() - 1, true
		}
		return 0, true
	}
	return prev, true
}

// shuffleIndex picks a random target index. ok is false when the candidate
// pool degenerates to a single member and sequential advance should apply.
//
// With a language-tagged active playlist the pool is restricted to tracks
// sharing the current track's language; an empty restricted pool falls back
// to the unconstrained pick.
func (c *Controller) shuffleIndex() (index int, ok bool) {
	n := c.queue.Len()
	if n <= 1 {
		return 0, false
	}

	if c.playlist != nil && c.playlist.Language != "" && c.current != nil {
		var pool []int
		for i, track := range c.queue.tracks {
			if track.Language == c.current.Language {
				pool = append(pool, i)
			}
		}

		if len(pool) == 1 {
			return 0, false
		}

		if len(pool) > 1 {
			pool = lo.Filter(pool, func(i int, _ int) bool {
				return i != c.cursor()
			})
			return pool[c.rng.Intn(len(pool))], true
		}
	}

	// Uniform pick excluding the current index.
	target := c.rng.Intn(n - 1)
	if target >= c.cursor() {
		target++
	}
	return target, true
}

// TogglePlayPause flips the optimistic playing flag immediately and debounces
// the actual transport transition, so a burst of clicks collapses to the
// state implied by the last one.
func (c *Controller) TogglePlayPause() {
	c.do(func() {
		if c.current == nil {
			return
		}

		c.isPlaying = !c.isPlaying
		c.debouncer.touch()
	})
}

// applyToggle performs the debounced transport transition. It reads the
// platform's actual paused state at decision time; the cached flag can race
// with a still-pending platform play promise.
func (c *Controller) applyToggle() {
	c.debouncer.applied()

	desired := c.isPlaying
	paused := c.handle.Paused()

	switch {
	case desired && paused:
		if err := c.handle.Play(); err != nil {
			c.isPlaying = false
			c.status = StatusErrored
			if errors.Is(err, ErrNotAllowed) {
				err = ErrNotAllowed
			}
			c.lastError = err
			return
		}
		c.status = StatusPlaying

	case !desired && !paused:
		c.handle.Pause()
		c.status = StatusPaused
	}
}

// SeekTo moves the transport position. Out-of-range and NaN input no-ops
// rather than erroring.
func (c *Controller) SeekTo(seconds float64) {
	c.do(func() {
		if math.IsNaN(seconds) || seconds < 0 {
			return
		}
		if c.duration > 0 && seconds > c.duration {
			return
		}

		c.handle.Seek(seconds)
		c.position = seconds
	})
}

// SetVolume adjusts the output volume, clamped to [0, 1].
func (c *Controller) SetVolume(v float64) {
	c.do(func() {
		c.volume = util.Clamp(v, 0, 1)
		c.handle.SetVolume(c.volume)
	})
}

// AttachEffects hands the controller a processing graph to route playback
// through. The controller owns it from this point and disposes it on Close; a
// graph attached mid-session takes effect on the next load. Replacing an
// existing graph leaves the old one to the caller.
func (c *Controller) AttachEffects(chain *effects.Chain) {
	c.do(func() {
		c.chain = chain
		c.attached = false
	})
}

// SetShuffle toggles random track selection. Orthogonal to repeat.
func (c *Controller) SetShuffle(on bool) {
	c.do(func() { c.shuffle = on })
}

// SetRepeat selects the repeat mode.
func (c *Controller) SetRepeat(mode RepeatMode) {
	c.do(func() { c.repeat = mode })
}

// Snapshot returns a consistent copy of the full playback state for rendering.
func (c *Controller) Snapshot() State {
	var s State
	c.do(func() {
		s = State{
			Current:     c.current,
			Status:      c.status,
			IsPlaying:   c.isPlaying,
			QueueIndex:  c.cursor(),
			QueueLength: c.queue.Len(),
			Shuffle:     c.shuffle,
			Repeat:      c.repeat,
			Volume:      c.volume,
			Position:    c.position,
			Duration:    c.duration,
			LastError:   c.lastError,
			Decision:    c.decision,
			Playlist:    mo.None[PlaylistInfo](),
		}
		if c.playlist != nil {
			s.Playlist = mo.Some(PlaylistInfo{
				Name:     c.playlist.Name,
				Language: c.playlist.Language,
				Index:    c.playlist.index,
			})
		}
	})
	return s
}

// Close stops the command loop and releases the processing graph. The graph
// must be disposed before the session ends or a host audio context leaks.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.do(func() {
			c.debouncer.cancel()
			c.handle.Stop()
			if c.chain != nil {
				c.chain.Dispose()
			}
		})
		close(c.quit)
		<-c.stopped
	})
}
