// Package effects implements the optional signal-processing chain inserted between
// the platform's decoded audio output and the output sink.
package effects

import (
	"errors"
	"time"
)

// Host platform attachment failures surfaced by Backend.SourceFor.
var (
	// ErrAlreadyAttached indicates the decode source already feeds a processing
	// graph; the platform allows exactly one graph per source.
	ErrAlreadyAttached = errors.New("decode source is already attached to a processing graph")

	// ErrUnsupported indicates the platform offers no processing capability for
	// this handle.
	ErrUnsupported = errors.New("processing graph is not supported for this handle")
)

// DynamicsParams parameterizes a compressor or limiter stage.
type DynamicsParams struct {
	// Threshold in dB.
	Threshold float64
	// Ratio as n:1.
	Ratio float64
	// Knee width in dB.
	Knee float64
	// Attack in seconds.
	Attack float64
	// Release in seconds.
	Release float64
}

// Node is one processing stage in the host audio graph.
type Node interface {
	// Connect routes this node's output into dst.
	Connect(dst Node) error
	// Disconnect severs all outgoing connections of this node.
	Disconnect()
}

// Band is an equalizer stage with a rampable gain.
type Band interface {
	Node
	// SetGain ramps the band gain to db over the given duration. Ramping is
	// mandatory; instantaneous jumps cause audible clicks.
	SetGain(db float64, ramp time.Duration)
}

// Dynamics is a compressor or limiter stage with rampable parameters.
type Dynamics interface {
	Node
	SetParams(p DynamicsParams, ramp time.Duration)
}

// Gain is the master gain stage.
type Gain interface {
	Node
	SetLevel(level float64, ramp time.Duration)
}

// Tap is an analysis node for UI metering. It hangs off the signal path and
// must never delay or drop audio.
type Tap interface {
	Node
	// Levels returns the current frequency magnitudes bucketed into bins.
	Levels(bins int) []float64
}

// Backend abstracts the host platform's audio processing engine.
//
// The playback controller never talks to a Backend directly; it owns a single
// Chain built on top of one.
type Backend interface {
	LowShelf(freq float64) (Band, error)
	Peak(freq, q float64) (Band, error)
	HighShelf(freq float64) (Band, error)
	Compressor(p DynamicsParams) (Dynamics, error)
	Limiter(p DynamicsParams) (Dynamics, error)
	Gain(level float64) (Gain, error)
	Analyser() (Tap, error)

	// Destination returns the output sink node.
	Destination() Node

	// SourceFor resolves the decode source node of a platform media handle.
	// Returns ErrAlreadyAttached when the source already feeds a graph, or
	// ErrUnsupported when the platform cannot expose it.
	SourceFor(handle any) (Node, error)

	// Close releases the underlying processing context. Failing to close leaks
	// a host-level audio context.
	Close() error
}
