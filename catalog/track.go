// Package catalog defines the domain models and the client for the upstream catalog service.
package catalog

import (
	"github.com/samber/mo"
)

// AudioCandidate represents one streamable rendition of a track.
type AudioCandidate struct {
	// Quality label as reported upstream (e.g. "320kbps", "high").
	Quality string `json:"quality"`
	// Direct URL to the stream. Candidate URLs may expire, so they are
	// re-ranked on every play request and never cached per track.
	URL string `json:"url"`
	// Declared bitrate in kbps, when the service reports one.
	Bitrate mo.Option[int] `json:"bitrate"`
}

// ImageCandidate represents one artwork rendition of a track.
type ImageCandidate struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// Track represents a playable catalog item.
//
// A track may arrive with zero audio candidates; it stays representable but is
// rejected at play time rather than silently substituted.
type Track struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Artist   string           `json:"artist"`
	Duration float64          `json:"duration"`
	Language string           `json:"language"`
	Images   []ImageCandidate `json:"images"`
	Audio    []AudioCandidate `json:"audio"`
}

// Valid reports whether the track is structurally usable for queueing.
// Playability of the audio candidates is a separate, play-time concern.
func (t *Track) Valid() bool {
	return t != nil && t.ID != "" && t.Name != ""
}

// String returns the display form of the track.
func (t *Track) String() string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Artist + " - " + t.Name
}

// BestImage returns the last image candidate, which upstream orders from
// smallest to largest rendition.
func (t *Track) BestImage() mo.Option[ImageCandidate] {
	if len(t.Images) == 0 {
		return mo.None[ImageCandidate]()
	}
	return mo.Some(t.Images[len(t.Images)-1])
}
