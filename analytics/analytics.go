// Package analytics reports play events to the remote collector.
//
// Emission is strictly best-effort: playback never waits on it and never
// observes its failures.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sangeet-cli/sangeet/constant"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/log"
	"github.com/sangeet-cli/sangeet/network"
	"github.com/spf13/viper"
)

const emitTimeout = 10 * time.Second

// PlayEvent is one reported track start.
type PlayEvent struct {
	TrackID         string  `json:"track_id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type payload struct {
	PlayEvent

	Identity  string `json:"identity,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
	PlayedAt  string `json:"played_at"`
}

// Emit posts a single play event to the configured collector endpoint.
//
// Returns nil without doing anything when analytics are disabled or no
// endpoint is configured. The identity token is resolved from the system
// keyring per emission; without one the event is sent anonymously.
func Emit(ctx context.Context, event PlayEvent) error {
	if !viper.GetBool(key.AnalyticsEnabled) {
		return nil
	}

	endpoint := viper.GetString(key.AnalyticsEndpoint)
	if endpoint == "" {
		return nil
	}

	body := payload{
		PlayEvent: event,
		PlayedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if token, ok := identity().Get(); ok {
		body.Identity = token
	} else {
		body.Anonymous = true
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", constant.UserAgent)

	response, err := network.Client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("analytics collector responded with %s", response.Status)
	}

	return nil
}

// EmitAsync emits on its own goroutine, logging and swallowing any failure.
func EmitAsync(event PlayEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()

		if err := Emit(ctx, event); err != nil {
			log.Warnf("play event emission: %v", err)
		}
	}()
}
