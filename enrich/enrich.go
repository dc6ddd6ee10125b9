// Package enrich opportunistically refreshes a playing track's metadata.
//
// It sits beside the playback path, never on it: every failure is logged and
// swallowed, and the controller never waits on an upgrade.
package enrich

import (
	"context"
	"strconv"
	"strings"

	"github.com/samber/mo"
	"github.com/sangeet-cli/sangeet/catalog"
	"github.com/sangeet-cli/sangeet/history"
	"github.com/sangeet-cli/sangeet/log"
	"github.com/sangeet-cli/sangeet/quality"
)

// artworkThreshold is the smallest rendition edge, in pixels, considered
// already good enough to skip a refresh.
const artworkThreshold = 500

// Enricher refreshes track metadata through the catalog client.
type Enricher struct {
	Catalog *catalog.Client
}

func New(client *catalog.Client) *Enricher {
	return &Enricher{Catalog: client}
}

// Refresh looks the track up in the catalog when its stored metadata looks
// degraded and returns the refreshed record. None means nothing better was
// found or the track needed no refresh.
func (e *Enricher) Refresh(ctx context.Context, track *catalog.Track) mo.Option[*catalog.Track] {
	if e == nil || e.Catalog == nil || !track.Valid() {
		return mo.None[*catalog.Track]()
	}

	if !needsRefresh(track) {
		return mo.None[*catalog.Track]()
	}

	fresh, err := e.Catalog.Lookup(ctx, track.ID)
	if err != nil {
		log.Debugf("metadata refresh for %q: %v", track.ID, err)
		return mo.None[*catalog.Track]()
	}

	if !fresh.Valid() || fresh.ID != track.ID {
		return mo.None[*catalog.Track]()
	}

	return mo.Some(fresh)
}

// Upgrade refreshes the track and propagates any better artwork into the
// recently-played registry.
func (e *Enricher) Upgrade(ctx context.Context, track *catalog.Track) {
	fresh, ok := e.Refresh(ctx, track).Get()
	if !ok {
		return
	}

	image, ok := fresh.BestImage().Get()
	if !ok {
		return
	}

	if imageEdge(image) <= currentEdge(track) {
		return
	}

	if err := history.UpgradeArtwork(track.ID, image.URL); err != nil {
		log.Warnf("artwork upgrade for %q: %v", track.ID, err)
	}
}

// needsRefresh judges whether the stored metadata is worth a catalog round
// trip: small or missing artwork, or audio candidates with no recognizable
// quality signal.
func needsRefresh(track *catalog.Track) bool {
	if currentEdge(track) < artworkThreshold {
		return true
	}
	return quality.Select(track.Audio).Tier == quality.TierUnknown
}

// currentEdge returns the pixel edge of the track's best artwork, 0 when none.
func currentEdge(track *catalog.Track) int {
	image, ok := track.BestImage().Get()
	if !ok {
		return 0
	}
	return imageEdge(image)
}

// imageEdge parses the leading dimension out of a "500x500" style quality
// label. Unlabelled artwork counts as edge 0.
func imageEdge(image catalog.ImageCandidate) int {
	edge, _, found := strings.Cut(strings.ToLower(image.Quality), "x")
	if !found {
		return 0
	}

	n, err := strconv.Atoi(strings.TrimSpace(edge))
	if err != nil {
		return 0
	}
	return n
}
