package effects

import (
	"fmt"
	"sync"
	"time"

	"github.com/sangeet-cli/sangeet/log"
)

// paramRamp is the smoothing duration applied to every parameter change.
const paramRamp = 50 * time.Millisecond

// AttachResult reports the outcome of attaching the chain to a media handle.
//
// All three outcomes are non-fatal to playback; at worst the signal plays
// unprocessed.
type AttachResult int

const (
	Attached AttachResult = iota
	AlreadyAttached
	Unsupported
)

func (r AttachResult) String() string {
	switch r {
	case Attached:
		return "attached"
	case AlreadyAttached:
		return "already attached"
	default:
		return "unsupported"
	}
}

// Chain is the processing graph: three cascaded equalizer stages feeding a
// gentle compressor, a hard limiter and a master gain node into the output
// sink, with an analysis tap off the gain stage for UI metering.
type Chain struct {
	mu sync.Mutex

	backend Backend
	cfg     Config

	low, mid, high Band
	comp, lim      Dynamics
	gain           Gain
	tap            Tap

	source   Node
	attached bool
	bypassed bool
	disposed bool
}

// NewChain builds the graph on the given backend with the given persisted
// configuration. Construction failures release every node created so far.
func NewChain(backend Backend, cfg Config) (*Chain, error) {
	c := &Chain{backend: backend, cfg: cfg}

	if err := c.build(); err != nil {
		c.Dispose()
		return nil, fmt.Errorf("build processing chain: %w", err)
	}

	return c, nil
}

func (c *Chain) build() (err error) {
	if c.low, err = c.backend.LowShelf(lowShelfHz); err != nil {
		return err
	}
	if c.mid, err = c.backend.Peak(midPeakHz, midPeakQ); err != nil {
		return err
	}
	if c.high, err = c.backend.HighShelf(highShelfHz); err != nil {
		return err
	}
	if c.comp, err = c.backend.Compressor(c.cfg.Compressor); err != nil {
		return err
	}
	if c.lim, err = c.backend.Limiter(c.limiterParams()); err != nil {
		return err
	}
	if c.gain, err = c.backend.Gain(1.0); err != nil {
		return err
	}
	if c.tap, err = c.backend.Analyser(); err != nil {
		return err
	}

	for _, link := range []struct{ from, to Node }{
		{c.low, c.mid},
		{c.mid, c.high},
		{c.high, c.comp},
		{c.comp, c.lim},
		{c.lim, c.gain},
		{c.gain, c.backend.Destination()},
		// The tap hangs off the gain stage, outside the signal path.
		{c.gain, c.tap},
	} {
		if err = link.from.Connect(link.to); err != nil {
			return err
		}
	}

	c.applyEqualizer()
	return nil
}

// limiterParams returns the limiter parameters honoring the enable flag; a
// disabled limiter runs at unity ratio instead of being rewired out.
func (c *Chain) limiterParams() DynamicsParams {
	p := c.cfg.Limiter
	if !c.cfg.LimiterEnabled {
		p.Ratio = 1
	}
	return p
}

// applyEqualizer ramps the band gains to the configured values, or to flat
// when the equalizer section is disabled.
func (c *Chain) applyEqualizer() {
	eq := c.cfg.Equalizer
	if !eq.Enabled {
		eq = EqualizerConfig{}
	}

	c.low.SetGain(eq.Low, paramRamp)
	c.mid.SetGain(eq.Mid, paramRamp)
	c.high.SetGain(eq.High, paramRamp)
}

// entry returns the first node of the signal path.
func (c *Chain) entry() Node {
	return c.low
}

// Attach routes a platform media handle's decoded output through the chain.
//
// Attaching twice to the same handle is detected and reported as
// AlreadyAttached rather than surfacing a platform exception; the platform
// allows one graph per decode source.
func (c *Chain) Attach(handle any) AttachResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return Unsupported
	}
	if c.attached {
		return AlreadyAttached
	}

	source, err := c.backend.SourceFor(handle)
	switch {
	case err == nil:
	case err == ErrAlreadyAttached:
		log.Warnf("processing chain attach: %v", err)
		return AlreadyAttached
	default:
		log.Warnf("processing chain attach: %v", err)
		return Unsupported
	}

	target := c.entry()
	if c.bypassed {
		target = c.backend.Destination()
	}
	if err := source.Connect(target); err != nil {
		log.Warnf("processing chain attach: %v", err)
		return Unsupported
	}

	c.source = source
	c.attached = true
	return Attached
}

// SetBypass reversibly routes the source directly to the output sink (on) or
// back through the chain (off). Toggling is idempotent.
func (c *Chain) SetBypass(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || on == c.bypassed {
		c.bypassed = on
		return nil
	}

	c.bypassed = on
	if !c.attached {
		return nil
	}

	c.source.Disconnect()
	if on {
		return c.source.Connect(c.backend.Destination())
	}
	return c.source.Connect(c.entry())
}

// SetEQGains ramps the equalizer band gains and persists the mutation.
func (c *Chain) SetEQGains(low, mid, high float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return nil
	}

	c.cfg.Equalizer.Low = low
	c.cfg.Equalizer.Mid = mid
	c.cfg.Equalizer.High = high
	c.applyEqualizer()

	return c.cfg.Save()
}

// SetEqualizerEnabled toggles the equalizer section and persists the mutation.
// Disabling ramps the bands flat rather than rewiring the graph.
func (c *Chain) SetEqualizerEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return nil
	}

	c.cfg.Equalizer.Enabled = enabled
	c.applyEqualizer()

	return c.cfg.Save()
}

// SetLimiterEnabled toggles the limiter stage and persists the mutation.
// A disabled limiter ramps to unity ratio.
func (c *Chain) SetLimiterEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return nil
	}

	c.cfg.LimiterEnabled = enabled
	c.lim.SetParams(c.limiterParams(), paramRamp)

	return c.cfg.Save()
}

// SetCompressor ramps the compressor parameters and persists the mutation.
func (c *Chain) SetCompressor(p DynamicsParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return nil
	}

	p.Knee = compressorKnee
	c.cfg.Compressor = p
	c.comp.SetParams(p, paramRamp)

	return c.cfg.Save()
}

// Levels returns the analysis tap's current frequency magnitudes for UI
// visualization.
func (c *Chain) Levels(bins int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || c.tap == nil {
		return nil
	}
	return c.tap.Levels(bins)
}

// Config returns the chain's current processing configuration.
func (c *Chain) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Dispose releases every node and closes the processing context.
//
// Safe to call multiple times and on a partially constructed chain.
func (c *Chain) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true

	for _, node := range []Node{c.source, c.low, c.mid, c.high, c.comp, c.lim, c.gain, c.tap} {
		if node != nil {
			node.Disconnect()
		}
	}

	c.source = nil
	c.attached = false

	if err := c.backend.Close(); err != nil {
		log.Warnf("processing context close: %v", err)
	}
}
