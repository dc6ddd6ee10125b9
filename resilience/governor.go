// Package resilience implements the per-endpoint call governor and the retry policy
// applied to every outbound catalog call.
package resilience

import (
	"sync"
	"time"

	"github.com/sangeet-cli/sangeet/key"
	"github.com/spf13/viper"
)

// endpointState tracks call pressure against a single logical endpoint.
type endpointState struct {
	count       int
	windowStart time.Time
	windowLen   time.Duration
	lastCall    time.Time
	saturated   bool
}

// Governor recommends inter-call delays per logical endpoint over a sliding window.
//
// Collaborators invoke it from their own goroutines, so state is mutex-guarded.
type Governor struct {
	mu        sync.Mutex
	endpoints map[string]*endpointState

	window     time.Duration
	maxCalls   int
	minSpacing time.Duration

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewGovernor constructs a Governor configured from the global settings.
func NewGovernor() *Governor {
	return &Governor{
		endpoints:  make(map[string]*endpointState),
		window:     time.Duration(viper.GetInt(key.ResilienceWindowSeconds)) * time.Second,
		maxCalls:   viper.GetInt(key.ResilienceMaxCalls),
		minSpacing: time.Duration(viper.GetInt(key.ResilienceMinSpacingMs)) * time.Millisecond,
		now:        time.Now,
	}
}

// state returns the tracked state for an endpoint, rolling the window over when it has elapsed.
// Callers must hold the mutex.
func (g *Governor) state(endpoint string) *endpointState {
	s, ok := g.endpoints[endpoint]
	if !ok {
		s = &endpointState{windowStart: g.now(), windowLen: g.window}
		g.endpoints[endpoint] = s
	}

	if g.now().Sub(s.windowStart) >= s.windowLen {
		s.count = 0
		s.windowStart = g.now()
		s.windowLen = g.window
		s.saturated = false
	}

	return s
}

// ShouldDelay returns the recommended delay before the next call to the endpoint may fire.
//
// Zero means the call is under both the spacing threshold and the window cap. A
// capped or saturated endpoint yields the remaining window time; otherwise the
// shortfall versus the minimum spacing is returned.
func (g *Governor) ShouldDelay(endpoint string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state(endpoint)
	now := g.now()

	if s.saturated || s.count >= g.maxCalls {
		remaining := s.windowLen - now.Sub(s.windowStart)
		if remaining < 0 {
			remaining = 0
		}
		return remaining
	}

	if !s.lastCall.IsZero() {
		if since := now.Sub(s.lastCall); since < g.minSpacing {
			return g.minSpacing - since
		}
	}

	return 0
}

// RecordCall registers one outbound call against the endpoint's window.
func (g *Governor) RecordCall(endpoint string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state(endpoint)
	s.count++
	s.lastCall = g.now()
}

// RecordFailure registers a failed call. A rate-limit status extends the
// endpoint's window to double the configured length and marks it saturated
// immediately, so subsequent ShouldDelay calls back off harder without waiting
// for organic counter growth.
func (g *Governor) RecordFailure(endpoint string, status int) {
	if !IsRateLimitStatus(status) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state(endpoint)
	s.windowStart = g.now()
	s.windowLen = 2 * g.window
	s.saturated = true
}
