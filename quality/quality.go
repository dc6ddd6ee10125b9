// Package quality ranks a track's audio candidates and selects the best stream source.
//
// Upstream services report quality inconsistently: sometimes a tag, sometimes a
// bitrate buried in the URL, sometimes nothing. The heuristic ladder here never
// trusts a single signal.
package quality

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/mo"
	"github.com/sangeet-cli/sangeet/catalog"
	"github.com/sangeet-cli/sangeet/util"
)

// Tier is a coarse quality classification derived from a candidate's tag or URL.
type Tier int

const (
	TierUnknown Tier = iota
	TierLow
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Candidate is one ranked audio source.
type Candidate struct {
	URL       string
	Tier      Tier
	Bitrate   mo.Option[int]
	Container string
}

// Decision is the outcome of ranking a track's audio candidates.
//
// It is recomputed on every play request; candidate URLs may expire, so
// decisions are never cached per track.
type Decision struct {
	URL       string
	Tier      Tier
	Bitrate   mo.Option[int]
	Container string
	// Ranked retains the full sorted candidate list for diagnostics.
	Ranked []Candidate
}

// Empty reports whether the decision carries no playable source.
func (d Decision) Empty() bool {
	return d.URL == ""
}

// bitratePattern extracts a numeric bitrate with a unit suffix from a tag or URL.
var bitratePattern = regexp.MustCompile(`(?i)(?P<rate>\d+(?:\.\d+)?)\s*(?P<unit>k|kb|kbps|kbit|m|mb|mbps|mbit)(?:/?s)?\b`)

// namedTiers is the fixed vocabulary of tier names that upstream tags are
// fuzzily matched against. Matching tolerates the usual misspellings and
// hyphenation drift ("hi-res", "hires", "loseless").
var namedTiers = []struct {
	name string
	tier Tier
}{
	{"low", TierLow},
	{"poor", TierLow},
	{"normal", TierMedium},
	{"medium", TierMedium},
	{"standard", TierMedium},
	{"good", TierMedium},
	{"high", TierHigh},
	{"extreme", TierHigh},
	{"best", TierHigh},
	{"lossless", TierHigh},
	{"hires", TierHigh},
	{"master", TierHigh},
}

// containerHints maps URL extension/keyword markers to a container label.
var containerHints = []struct {
	marker    string
	container string
}{
	{".m3u8", "hls"},
	{".mp3", "mp3"},
	{".m4a", "m4a"},
	{".aac", "aac"},
	{".flac", "flac"},
	{".ogg", "ogg"},
	{".opus", "opus"},
	{".wav", "wav"},
	{"/hls/", "hls"},
}

// parseBitrate extracts a bitrate in kbps from arbitrary text.
func parseBitrate(text string) mo.Option[int] {
	groups := util.ReGroups(bitratePattern, strings.ToLower(text))
	if len(groups) == 0 {
		return mo.None[int]()
	}

	rate, err := strconv.ParseFloat(groups["rate"], 64)
	if err != nil {
		return mo.None[int]()
	}

	if strings.HasPrefix(groups["unit"], "m") {
		rate *= 1000
	}

	return mo.Some(int(rate))
}

// parseNamedTier fuzzily matches a tag against the named tier vocabulary.
func parseNamedTier(tag string) Tier {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(tag))
	if normalized == "" {
		return TierUnknown
	}

	best := TierUnknown
	bestDistance := 3
	for _, entry := range namedTiers {
		if len(normalized) < len(entry.name)-2 {
			continue
		}
		if d := levenshtein.Distance(normalized, entry.name); d < bestDistance {
			best = entry.tier
			bestDistance = d
		}
	}

	return best
}

// tierOf maps a bitrate to its coarse tier.
func tierOf(bitrate int) Tier {
	switch {
	case bitrate < 160:
		return TierLow
	case bitrate < 320:
		return TierMedium
	default:
		return TierHigh
	}
}

// classify resolves a single candidate into a ranked Candidate.
func classify(c catalog.AudioCandidate) Candidate {
	out := Candidate{URL: c.URL, Bitrate: c.Bitrate, Container: containerOf(c.URL)}

	// First signal: a parseable bitrate in the quality tag.
	if rate, ok := parseBitrate(c.Quality).Get(); ok {
		out.Bitrate = mo.Some(rate)
		out.Tier = tierOf(rate)
		return out
	}

	// Second signal: a named tier in the tag.
	if tier := parseNamedTier(c.Quality); tier != TierUnknown {
		out.Tier = tier
		if rate, ok := out.Bitrate.Get(); ok {
			out.Tier = tierOf(rate)
		}
		return out
	}

	// Fallback: scan the URL for the same bitrate markers.
	if rate, ok := parseBitrate(c.URL).Get(); ok {
		out.Bitrate = mo.Some(rate)
		out.Tier = tierOf(rate)
		return out
	}

	// Last resort: a declared bitrate with no recognizable tag.
	if rate, ok := out.Bitrate.Get(); ok {
		out.Tier = tierOf(rate)
	}

	return out
}

// containerOf classifies the container format by extension/keyword heuristics on the URL.
func containerOf(url string) string {
	lowered := strings.ToLower(url)
	for _, hint := range containerHints {
		if strings.Contains(lowered, hint.marker) {
			return hint.container
		}
	}
	return "unknown"
}

// Select ranks the candidates and returns the best available stream source.
//
// Sort order: tier descending, bitrate descending, then candidates carrying a
// bitrate before those without one. An empty input yields an empty decision,
// which callers must treat as "no playable source".
func Select(candidates []catalog.AudioCandidate) Decision {
	if len(candidates) == 0 {
		return Decision{Ranked: []Candidate{}}
	}

	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, classify(c))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Tier != ranked[j].Tier {
			return ranked[i].Tier > ranked[j].Tier
		}

		ri, iOK := ranked[i].Bitrate.Get()
		rj, jOK := ranked[j].Bitrate.Get()
		if iOK && jOK && ri != rj {
			return ri > rj
		}

		return iOK && !jOK
	})

	best := ranked[0]
	return Decision{
		URL:       best.URL,
		Tier:      best.Tier,
		Bitrate:   best.Bitrate,
		Container: best.Container,
		Ranked:    ranked,
	}
}
