package player

import (
	"github.com/samber/mo"
	"github.com/sangeet-cli/sangeet/catalog"
	"github.com/sangeet-cli/sangeet/quality"
)

// Status is the controller's coarse playback state.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusEnded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	case StatusErrored:
		return "errored"
	default:
		return "empty"
	}
}

// RepeatMode governs queue wrap-around and track replay behavior.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// PlaylistInfo is the read-only surface of the active playlist.
type PlaylistInfo struct {
	Name     string
	Language string
	Index    int
}

// State is a consistent snapshot of the full playback state for rendering.
//
// "Current" and "playing" are orthogonal: a current-but-paused track is valid.
type State struct {
	Current     *catalog.Track
	Status      Status
	IsPlaying   bool
	QueueIndex  int
	QueueLength int
	Shuffle     bool
	Repeat      RepeatMode
	Volume      float64
	Position    float64
	Duration    float64
	LastError   error
	Decision    quality.Decision
	Playlist    mo.Option[PlaylistInfo]
}
