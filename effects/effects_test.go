package effects

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/sangeet-cli/sangeet/config"
	"github.com/sangeet-cli/sangeet/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
	lo.Must0(config.Setup())
}

// fakeNode records its outgoing connections and parameter ramps.
type fakeNode struct {
	name     string
	targets  []*fakeNode
	gain     float64
	lastRamp time.Duration
	params   DynamicsParams
	level    float64
}

func (n *fakeNode) Connect(dst Node) error {
	n.targets = append(n.targets, dst.(*fakeNode))
	return nil
}

func (n *fakeNode) Disconnect() {
	n.targets = nil
}

func (n *fakeNode) SetGain(db float64, ramp time.Duration) {
	n.gain = db
	n.lastRamp = ramp
}

func (n *fakeNode) SetParams(p DynamicsParams, ramp time.Duration) {
	n.params = p
	n.lastRamp = ramp
}

func (n *fakeNode) SetLevel(level float64, ramp time.Duration) {
	n.level = level
	n.lastRamp = ramp
}

func (n *fakeNode) Levels(bins int) []float64 {
	return make([]float64, bins)
}

func (n *fakeNode) connectedTo(dst *fakeNode) bool {
	for _, t := range n.targets {
		if t == dst {
			return true
		}
	}
	return false
}

// fakeBackend builds fake nodes and records lifecycle calls.
type fakeBackend struct {
	nodes       map[string]*fakeNode
	destination *fakeNode
	sourceErr   error
	source      *fakeNode
	closed      int
	failStage   string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nodes:       make(map[string]*fakeNode),
		destination: &fakeNode{name: "destination"},
		source:      &fakeNode{name: "source"},
	}
}

func (b *fakeBackend) node(name string) (*fakeNode, error) {
	if b.failStage == name {
		return nil, errors.New(name + " construction failed")
	}
	n := &fakeNode{name: name}
	b.nodes[name] = n
	return n, nil
}

func (b *fakeBackend) LowShelf(float64) (Band, error)          { return b.node("low") }
func (b *fakeBackend) Peak(float64, float64) (Band, error)     { return b.node("mid") }
func (b *fakeBackend) HighShelf(float64) (Band, error)         { return b.node("high") }
func (b *fakeBackend) Compressor(DynamicsParams) (Dynamics, error) { return b.node("comp") }
func (b *fakeBackend) Limiter(DynamicsParams) (Dynamics, error)    { return b.node("lim") }
func (b *fakeBackend) Gain(float64) (Gain, error)              { return b.node("gain") }
func (b *fakeBackend) Analyser() (Tap, error)                  { return b.node("tap") }
func (b *fakeBackend) Destination() Node                       { return b.destination }
func (b *fakeBackend) Close() error                            { b.closed++; return nil }

func (b *fakeBackend) SourceFor(any) (Node, error) {
	if b.sourceErr != nil {
		return nil, b.sourceErr
	}
	return b.source, nil
}

func defaultTestConfig() Config {
	cfg := LoadConfig()
	cfg.Equalizer.Enabled = true
	cfg.Equalizer.Low = 2
	cfg.Equalizer.Mid = -1
	cfg.Equalizer.High = 3
	return cfg
}

func TestChainConstruction(t *testing.T) {
	Convey("Given a healthy backend", t, func() {
		backend := newFakeBackend()
		chain, err := NewChain(backend, defaultTestConfig())
		So(err, ShouldBeNil)

		Convey("The signal path should be connected end-to-end", func() {
			So(backend.nodes["low"].connectedTo(backend.nodes["mid"]), ShouldBeTrue)
			So(backend.nodes["mid"].connectedTo(backend.nodes["high"]), ShouldBeTrue)
			So(backend.nodes["high"].connectedTo(backend.nodes["comp"]), ShouldBeTrue)
			So(backend.nodes["comp"].connectedTo(backend.nodes["lim"]), ShouldBeTrue)
			So(backend.nodes["lim"].connectedTo(backend.nodes["gain"]), ShouldBeTrue)
			So(backend.nodes["gain"].connectedTo(backend.destination), ShouldBeTrue)
		})

		Convey("The analysis tap should hang off the gain stage", func() {
			So(backend.nodes["gain"].connectedTo(backend.nodes["tap"]), ShouldBeTrue)
			So(backend.nodes["tap"].targets, ShouldBeEmpty)
		})

		Convey("Equalizer gains should be applied with a ramp", func() {
			So(backend.nodes["low"].gain, ShouldEqual, 2)
			So(backend.nodes["low"].lastRamp, ShouldBeGreaterThan, 0)
		})

		Reset(chain.Dispose)
	})

	Convey("Given a backend that fails mid-construction", t, func() {
		backend := newFakeBackend()
		backend.failStage = "lim"

		_, err := NewChain(backend, defaultTestConfig())

		Convey("Construction should fail and release the partial graph", func() {
			So(err, ShouldNotBeNil)
			So(backend.closed, ShouldEqual, 1)
		})
	})
}

func TestAttach(t *testing.T) {
	Convey("Given a built chain", t, func() {
		backend := newFakeBackend()
		chain := lo.Must(NewChain(backend, defaultTestConfig()))
		Reset(chain.Dispose)

		Convey("Attach should route the source into the first band", func() {
			So(chain.Attach("handle"), ShouldEqual, Attached)
			So(backend.source.connectedTo(backend.nodes["low"]), ShouldBeTrue)

			Convey("And a second attach should be detected, not fatal", func() {
				So(chain.Attach("handle"), ShouldEqual, AlreadyAttached)
			})
		})

		Convey("A platform-side double attach should map to AlreadyAttached", func() {
			backend.sourceErr = ErrAlreadyAttached
			So(chain.Attach("handle"), ShouldEqual, AlreadyAttached)
		})

		Convey("An incapable platform should map to Unsupported", func() {
			backend.sourceErr = ErrUnsupported
			So(chain.Attach("handle"), ShouldEqual, Unsupported)
		})
	})
}

func TestBypass(t *testing.T) {
	Convey("Given an attached chain", t, func() {
		backend := newFakeBackend()
		chain := lo.Must(NewChain(backend, defaultTestConfig()))
		Reset(chain.Dispose)
		So(chain.Attach("handle"), ShouldEqual, Attached)

		Convey("Bypass on should route the source straight to the sink", func() {
			So(chain.SetBypass(true), ShouldBeNil)
			So(backend.source.connectedTo(backend.destination), ShouldBeTrue)
			So(backend.source.connectedTo(backend.nodes["low"]), ShouldBeFalse)

			Convey("And bypass off should restore the processed path", func() {
				So(chain.SetBypass(false), ShouldBeNil)
				So(backend.source.connectedTo(backend.nodes["low"]), ShouldBeTrue)
				So(backend.source.connectedTo(backend.destination), ShouldBeFalse)
			})
		})

		Convey("Toggling to the current state should be a no-op", func() {
			So(chain.SetBypass(false), ShouldBeNil)
			So(backend.source.connectedTo(backend.nodes["low"]), ShouldBeTrue)
		})
	})
}

func TestParameterMutations(t *testing.T) {
	Convey("Given a built chain", t, func() {
		backend := newFakeBackend()
		chain := lo.Must(NewChain(backend, defaultTestConfig()))
		Reset(chain.Dispose)

		Convey("SetEQGains should ramp and persist", func() {
			So(chain.SetEQGains(4, 0, -2), ShouldBeNil)
			So(backend.nodes["low"].gain, ShouldEqual, 4)
			So(backend.nodes["high"].gain, ShouldEqual, -2)
			So(backend.nodes["high"].lastRamp, ShouldBeGreaterThan, 0)
			So(chain.Config().Equalizer.Low, ShouldEqual, 4)
		})

		Convey("Disabling the equalizer should ramp the bands flat", func() {
			So(chain.SetEqualizerEnabled(false), ShouldBeNil)
			So(backend.nodes["low"].gain, ShouldEqual, 0)
			So(backend.nodes["mid"].gain, ShouldEqual, 0)
		})

		Convey("Disabling the limiter should ramp it to unity ratio", func() {
			So(chain.SetLimiterEnabled(false), ShouldBeNil)
			So(backend.nodes["lim"].params.Ratio, ShouldEqual, 1)

			Convey("And re-enabling should restore the configured ratio", func() {
				So(chain.SetLimiterEnabled(true), ShouldBeNil)
				So(backend.nodes["lim"].params.Ratio, ShouldEqual, chain.Config().Limiter.Ratio)
			})
		})
	})
}

func TestDispose(t *testing.T) {
	Convey("Given an attached chain", t, func() {
		backend := newFakeBackend()
		chain := lo.Must(NewChain(backend, defaultTestConfig()))
		So(chain.Attach("handle"), ShouldEqual, Attached)

		Convey("Dispose should disconnect every node and close the context", func() {
			chain.Dispose()
			So(backend.closed, ShouldEqual, 1)
			So(backend.source.targets, ShouldBeEmpty)
			So(backend.nodes["gain"].targets, ShouldBeEmpty)

			Convey("And calling it twice should not panic or double-close", func() {
				So(chain.Dispose, ShouldNotPanic)
				So(backend.closed, ShouldEqual, 1)
			})
		})

		Convey("Operations after dispose should be inert", func() {
			chain.Dispose()
			So(chain.Attach("handle"), ShouldEqual, Unsupported)
			So(chain.SetBypass(true), ShouldBeNil)
			So(chain.Levels(8), ShouldBeNil)
		})
	})
}
