package player

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/sangeet-cli/sangeet/catalog"
	"github.com/sangeet-cli/sangeet/filesystem"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/quality"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	viper.SetDefault(key.PlayerVolume, 1.0)
	viper.SetDefault(key.PlayerPreviousRestartThreshold, 3.0)
	viper.SetDefault(key.PlayerToggleDebounceMs, 20)
}

type loadRecord struct {
	url   string
	token uint64
}

// fakeHandle is a scripted platform media handle.
type fakeHandle struct {
	mu sync.Mutex

	sink  func(Event)
	loads []loadRecord

	playCalls  int
	pauseCalls int
	stopCalls  int
	seeks      []float64

	playErr  error
	paused   bool
	position float64
	volume   float64
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{paused: true}
}

func (h *fakeHandle) Load(url string, token uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loads = append(h.loads, loadRecord{url: url, token: token})
	h.paused = true
	h.position = 0
}

func (h *fakeHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playCalls++
	if h.playErr != nil {
		return h.playErr
	}
	h.paused = false
	return nil
}

func (h *fakeHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pauseCalls++
	h.paused = true
}

func (h *fakeHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopCalls++
	h.paused = true
	h.position = 0
}

func (h *fakeHandle) Seek(seconds float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seeks = append(h.seeks, seconds)
	h.position = seconds
}

func (h *fakeHandle) SetVolume(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volume = v
}

func (h *fakeHandle) Position() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

func (h *fakeHandle) Duration() float64 { return 0 }

func (h *fakeHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *fakeHandle) Subscribe(fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sink = fn
}

func (h *fakeHandle) lastLoad() loadRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.loads) == 0 {
		return loadRecord{}
	}
	return h.loads[len(h.loads)-1]
}

func (h *fakeHandle) loadCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.loads)
}

func (h *fakeHandle) setPosition(seconds float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.position = seconds
}

func (h *fakeHandle) emit(ev Event) {
	h.mu.Lock()
	sink := h.sink
	h.mu.Unlock()
	sink(ev)
}

// finish emits natural completion for the most recent load.
func (h *fakeHandle) finish() {
	h.emit(Event{Type: EventEnded, Token: h.lastLoad().token})
}

func sampleTrack(id, language string) *catalog.Track {
	return &catalog.Track{
		ID:       id,
		Name:     "Track " + id,
		Artist:   "Artist",
		Duration: 180,
		Language: language,
		Audio: []catalog.AudioCandidate{
			{Quality: "320kbps", URL: "https://cdn.test/" + id + "/320.mp3"},
			{Quality: "96kbps", URL: "https://cdn.test/" + id + "/96.mp3"},
		},
	}
}

func sampleQueue(language string, ids ...string) []*catalog.Track {
	tracks := make([]*catalog.Track, 0, len(ids))
	for _, id := range ids {
		tracks = append(tracks, sampleTrack(id, language))
	}
	return tracks
}

func newTestController(handle *fakeHandle) *Controller {
	return NewController(handle, Options{
		Rand: rand.New(rand.NewSource(1)),
	})
}

func TestSetQueueAndPlay(t *testing.T) {
	Convey("Given a fresh controller", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		Convey("When setting a queue and playing at an index", func() {
			err := c.SetQueueAndPlay(sampleQueue("", "a", "b", "c"), 1)

			Convey("Then playback starts on the selected track with the best source", func() {
				So(err, ShouldBeNil)

				s := c.Snapshot()
				So(s.Current.ID, ShouldEqual, "b")
				So(s.QueueIndex, ShouldEqual, 1)
				So(s.QueueLength, ShouldEqual, 3)
				So(s.Status, ShouldEqual, StatusLoading)
				So(s.IsPlaying, ShouldBeTrue)
				So(s.Decision.Tier, ShouldEqual, quality.TierHigh)
				So(handle.lastLoad().url, ShouldEqual, "https://cdn.test/b/320.mp3")
			})
		})

		Convey("When the requested index is out of range", func() {
			err := c.SetQueueAndPlay(sampleQueue("", "a", "b"), 7)

			Convey("Then the index clamps to the first track", func() {
				So(err, ShouldBeNil)
				So(c.Snapshot().Current.ID, ShouldEqual, "a")
			})
		})

		Convey("When structurally invalid tracks are included", func() {
			tracks := sampleQueue("", "a", "b")
			tracks = append(tracks, &catalog.Track{ID: "nameless"})

			err := c.SetQueueAndPlay(tracks, 0)

			Convey("Then they are filtered out before committing", func() {
				So(err, ShouldBeNil)
				So(c.Snapshot().QueueLength, ShouldEqual, 2)
			})
		})

		Convey("When every track is invalid", func() {
			err := c.SetQueueAndPlay([]*catalog.Track{{ID: "nameless"}}, 0)

			Convey("Then it fails with the empty-queue error", func() {
				So(err, ShouldEqual, ErrEmptyQueue)
				So(c.Snapshot().Current, ShouldBeNil)
			})
		})
	})
}

func TestPlay(t *testing.T) {
	Convey("Given a controller with a playing track", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		So(c.SetQueueAndPlay(sampleQueue("", "a", "b"), 0), ShouldBeNil)

		Convey("When playing a track with no audio candidates", func() {
			err := c.Play(&catalog.Track{ID: "broken", Name: "Broken"})

			Convey("Then it fails without mutating playback state", func() {
				So(err, ShouldEqual, ErrNoPlayableSource)

				s := c.Snapshot()
				So(s.Current.ID, ShouldEqual, "a")
				So(s.IsPlaying, ShouldBeTrue)
				So(s.LastError, ShouldBeNil)
			})
		})

		Convey("When playing a queued track directly", func() {
			err := c.Play(sampleTrack("b", ""))

			Convey("Then the cursor aligns to its queue position", func() {
				So(err, ShouldBeNil)
				So(c.Snapshot().QueueIndex, ShouldEqual, 1)
			})
		})

		Convey("When the platform rejects the play request", func() {
			handle.playErr = ErrNotAllowed

			err := c.Play(sampleTrack("b", ""))

			Convey("Then the permission error surfaces in the state", func() {
				So(err, ShouldEqual, ErrNotAllowed)

				s := c.Snapshot()
				So(s.IsPlaying, ShouldBeFalse)
				So(s.Status, ShouldEqual, StatusErrored)
				So(s.LastError, ShouldEqual, ErrNotAllowed)
			})
		})
	})
}

func TestTransportEvents(t *testing.T) {
	Convey("Given a controller with a playing track", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		So(c.SetQueueAndPlay(sampleQueue("", "a", "b"), 0), ShouldBeNil)

		Convey("When the transport reports start and progress", func() {
			token := handle.lastLoad().token
			handle.emit(Event{Type: EventStarted, Token: token, Duration: 180})
			handle.emit(Event{Type: EventTime, Token: token, Position: 42, Duration: 180})

			Convey("Then the snapshot reflects them", func() {
				s := c.Snapshot()
				So(s.Status, ShouldEqual, StatusPlaying)
				So(s.Position, ShouldEqual, 42)
				So(s.Duration, ShouldEqual, 180)
			})
		})

		Convey("When an event arrives from a superseded load", func() {
			stale := handle.lastLoad().token
			So(c.Play(sampleTrack("b", "")), ShouldBeNil)

			handle.emit(Event{Type: EventEnded, Token: stale})

			Convey("Then it is discarded", func() {
				s := c.Snapshot()
				So(s.Current.ID, ShouldEqual, "b")
				So(s.IsPlaying, ShouldBeTrue)
			})
		})

		Convey("When the transport reports a decode failure", func() {
			handle.emit(Event{Type: EventError, Token: handle.lastLoad().token, Err: ErrDecode})

			Convey("Then playback stops with the error recorded", func() {
				s := c.Snapshot()
				So(s.Status, ShouldEqual, StatusErrored)
				So(s.IsPlaying, ShouldBeFalse)
				So(s.LastError, ShouldEqual, ErrDecode)
			})
		})
	})
}

func TestAdvance(t *testing.T) {
	Convey("Given a controller with a three-track queue", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		So(c.SetQueueAndPlay(sampleQueue("", "a", "b", "c"), 0), ShouldBeNil)

		Convey("When the current track completes naturally", func() {
			handle.finish()

			Convey("Then playback advances to the next track", func() {
				s := c.Snapshot()
				So(s.Current.ID, ShouldEqual, "b")
				So(s.QueueIndex, ShouldEqual, 1)
			})
		})

		Convey("When the last track completes without repeat", func() {
			c.Next()
			c.Next()
			handle.finish()

			Convey("Then playback stops cleanly at the end", func() {
				s := c.Snapshot()
				So(s.Status, ShouldEqual, StatusEnded)
				So(s.IsPlaying, ShouldBeFalse)
				So(s.QueueIndex, ShouldEqual, 2)
			})
		})

		Convey("When repeat-all is active at the end of the queue", func() {
			c.SetRepeat(RepeatAll)
			c.Next()
			c.Next()
			handle.finish()

			Convey("Then the queue wraps to the first track", func() {
				s := c.Snapshot()
				So(s.Current.ID, ShouldEqual, "a")
				So(s.QueueIndex, ShouldEqual, 0)
				So(s.IsPlaying, ShouldBeTrue)
			})
		})

		Convey("When repeat-one is active on natural completion", func() {
			c.SetRepeat(RepeatOne)
			loads := handle.loadCount()
			handle.finish()

			Convey("Then the same track restarts without moving the cursor", func() {
				s := c.Snapshot()
				So(s.Current.ID, ShouldEqual, "a")
				So(s.QueueIndex, ShouldEqual, 0)
				So(handle.loadCount(), ShouldEqual, loads+1)
			})
		})

		Convey("When repeat-one is active and next is requested explicitly", func() {
			c.SetRepeat(RepeatOne)
			c.Next()

			Convey("Then the queue still advances", func() {
				So(c.Snapshot().Current.ID, ShouldEqual, "b")
			})
		})
	})

	Convey("Given a single-track queue with shuffle enabled", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		So(c.SetQueueAndPlay(sampleQueue("", "only"), 0), ShouldBeNil)
		c.SetShuffle(true)
		c.SetRepeat(RepeatAll)

		Convey("When the track completes", func() {
			handle.finish()

			Convey("Then sequential advance replays it instead of shuffling", func() {
				s := c.Snapshot()
				So(s.Current.ID, ShouldEqual, "only")
				So(s.IsPlaying, ShouldBeTrue)
			})
		})
	})
}

func TestShuffle(t *testing.T) {
	Convey("Given a shuffling controller", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		So(c.SetQueueAndPlay(sampleQueue("", "a", "b", "c", "d"), 0), ShouldBeNil)
		c.SetShuffle(true)

		Convey("When advancing repeatedly", func() {
			seen := make(map[string]bool)
			for i := 0; i < 12; i++ {
				before := c.Snapshot().Current.ID
				c.Next()
				after := c.Snapshot().Current.ID

				So(after, ShouldNotEqual, before)
				seen[after] = true
			}

			Convey("Then the pick never repeats the current track", func() {
				So(len(seen), ShouldBeGreaterThan, 1)
			})
		})
	})

	Convey("Given a language-tagged playlist", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		tracks := []*catalog.Track{
			sampleTrack("h1", "hindi"),
			sampleTrack("t1", "tamil"),
			sampleTrack("h2", "hindi"),
			sampleTrack("h3", "hindi"),
		}
		So(c.PlayPlaylist("monsoon", "hindi", tracks, 0), ShouldBeNil)
		c.SetShuffle(true)

		Convey("When advancing with shuffle", func() {
			for i := 0; i < 10; i++ {
				c.Next()
				So(c.Snapshot().Current.Language, ShouldEqual, "hindi")
			}
		})
	})
}

func TestPrevious(t *testing.T) {
	Convey("Given a controller past the first track", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		So(c.SetQueueAndPlay(sampleQueue("", "a", "b", "c"), 1), ShouldBeNil)

		Convey("When previous is requested early in the track", func() {
			handle.setPosition(1.5)
			c.Previous()

			Convey("Then the queue retreats", func() {
				So(c.Snapshot().Current.ID, ShouldEqual, "a")
			})
		})

		Convey("When previous is requested past the restart threshold", func() {
			handle.setPosition(12)
			c.Previous()

			Convey("Then the current track restarts instead", func() {
				s := c.Snapshot()
				So(s.Current.ID, ShouldEqual, "b")
				So(s.Position, ShouldEqual, 0)
				So(handle.seeks, ShouldResemble, []float64{0})
			})
		})

		Convey("When previous is requested at the first track", func() {
			handle.setPosition(0)
			c.Previous()
			c.Previous()

			Convey("Then the cursor clamps to the start", func() {
				So(c.Snapshot().QueueIndex, ShouldEqual, 0)
			})
		})
	})
}

func TestTogglePlayPause(t *testing.T) {
	Convey("Given a playing controller", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		So(c.SetQueueAndPlay(sampleQueue("", "a"), 0), ShouldBeNil)
		playsBefore := func() int {
			handle.mu.Lock()
			defer handle.mu.Unlock()
			return handle.playCalls
		}()

		Convey("When toggled once", func() {
			c.TogglePlayPause()

			Convey("Then the playing flag flips immediately", func() {
				So(c.Snapshot().IsPlaying, ShouldBeFalse)
			})

			Convey("Then the transport pauses after the debounce window", func() {
				time.Sleep(60 * time.Millisecond)

				s := c.Snapshot()
				So(s.Status, ShouldEqual, StatusPaused)
				So(handle.Paused(), ShouldBeTrue)
			})
		})

		Convey("When toggled rapidly an even number of times", func() {
			c.TogglePlayPause()
			c.TogglePlayPause()
			c.TogglePlayPause()
			c.TogglePlayPause()
			time.Sleep(60 * time.Millisecond)

			Convey("Then the burst collapses to no transport transition", func() {
				s := c.Snapshot()
				So(s.IsPlaying, ShouldBeTrue)
				So(handle.Paused(), ShouldBeFalse)

				handle.mu.Lock()
				plays := handle.playCalls
				pauses := handle.pauseCalls
				handle.mu.Unlock()
				So(plays, ShouldEqual, playsBefore)
				So(pauses, ShouldEqual, 0)
			})
		})

		Convey("When toggled with no current track", func() {
			empty := newFakeHandle()
			c2 := newTestController(empty)
			Reset(c2.Close)

			c2.TogglePlayPause()

			Convey("Then nothing happens", func() {
				So(c2.Snapshot().IsPlaying, ShouldBeFalse)
			})
		})
	})
}

func TestSeekAndVolume(t *testing.T) {
	Convey("Given a playing controller", t, func() {
		handle := newFakeHandle()
		c := newTestController(handle)
		Reset(c.Close)

		So(c.SetQueueAndPlay(sampleQueue("", "a"), 0), ShouldBeNil)
		handle.emit(Event{Type: EventStarted, Token: handle.lastLoad().token, Duration: 180})

		Convey("When seeking within the track", func() {
			c.SeekTo(30)

			Convey("Then the transport and snapshot move", func() {
				So(c.Snapshot().Position, ShouldEqual, 30)
				So(handle.seeks, ShouldResemble, []float64{30})
			})
		})

		Convey("When seeking out of range", func() {
			c.SeekTo(-5)
			c.SeekTo(500)

			Convey("Then the request is ignored", func() {
				So(handle.seeks, ShouldBeEmpty)
			})
		})

		Convey("When setting the volume out of range", func() {
			c.SetVolume(1.8)

			Convey("Then it clamps to the valid range", func() {
				So(c.Snapshot().Volume, ShouldEqual, 1.0)
				So(handle.volume, ShouldEqual, 1.0)
			})
		})
	})
}
