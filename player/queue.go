package player

import (
	"github.com/sangeet-cli/sangeet/catalog"
)

// Queue is the ordered list of tracks available for playback, with a cursor.
//
// It is owned exclusively by the controller and mutated only on its command
// loop: replace-whole-queue, advance, retreat.
type Queue struct {
	tracks []*catalog.Track
	index  int
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Index returns the cursor position. Meaningful only when Len() > 0.
func (q *Queue) Index() int {
	return q.index
}

// Current returns the track under the cursor, or nil for an empty queue.
func (q *Queue) Current() *catalog.Track {
	if len(q.tracks) == 0 || q.index < 0 || q.index >= len(q.tracks) {
		return nil
	}
	return q.tracks[q.index]
}

// At returns the track at position i, or nil when out of range.
func (q *Queue) At(i int) *catalog.Track {
	if i < 0 || i >= len(q.tracks) {
		return nil
	}
	return q.tracks[i]
}

// Tracks returns a copy of the track list for read-only consumers.
func (q *Queue) Tracks() []*catalog.Track {
	out := make([]*catalog.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// replace swaps the whole track list and cursor.
func (q *Queue) replace(tracks []*catalog.Track, index int) {
	q.tracks = tracks
	q.index = index
}

// moveTo repositions the cursor. The caller guarantees range validity.
func (q *Queue) moveTo(index int) {
	q.index = index
}

// ActivePlaylist is a named, language-tagged wrapper around the queue's track
// list. When present, its cursor is authoritative over the queue's and its
// track list is kept identical to the queue's; the controller updates both
// atomically on every transition.
type ActivePlaylist struct {
	Name     string
	Language string

	tracks []*catalog.Track
	index  int
}

// NewActivePlaylist constructs a playlist wrapper around a track list.
func NewActivePlaylist(name, language string, tracks []*catalog.Track) *ActivePlaylist {
	return &ActivePlaylist{Name: name, Language: language, tracks: tracks}
}

// Index returns the playlist's authoritative cursor position.
func (p *ActivePlaylist) Index() int {
	return p.index
}

// Tracks returns a copy of the playlist's track list.
func (p *ActivePlaylist) Tracks() []*catalog.Track {
	out := make([]*catalog.Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}
