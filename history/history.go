// Package history maintains the recently-played registry.
package history

import (
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/sangeet-cli/sangeet/catalog"
	"github.com/sangeet-cli/sangeet/filesystem"
	"github.com/sangeet-cli/sangeet/key"
	"github.com/sangeet-cli/sangeet/where"
	"github.com/spf13/viper"
)

// cacher is the disk-backed registry of recently-played entries, newest first.
var cacher = gache.New[[]*SavedTrack](
	&gache.Options{
		Path:       where.Recent(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the recently-played entries, newest first.
func Get() ([]*SavedTrack, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return []*SavedTrack{}, nil
	}
	return cached, nil
}

// Push records a play at the head of the registry.
//
// A track already present moves to the head instead of duplicating; the
// registry is capped at the configured size, evicting the oldest entries.
func Push(track *catalog.Track) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	record := newSavedTrack(track)

	saved = lo.Reject(saved, func(s *SavedTrack, _ int) bool {
		return s.ID == record.ID
	})
	saved = append([]*SavedTrack{record}, saved...)

	if size := viper.GetInt(key.HistorySize); size > 0 && len(saved) > size {
		saved = saved[:size]
	}

	return cacher.Set(saved)
}

// Remove deletes the entry with the given track ID.
func Remove(id string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	saved = lo.Reject(saved, func(s *SavedTrack, _ int) bool {
		return s.ID == id
	})

	return cacher.Set(saved)
}

// UpgradeArtwork rewrites the stored artwork URL of an entry in place, used
// when a better rendition becomes known after the play was recorded.
func UpgradeArtwork(id, url string) error {
	if url == "" {
		return nil
	}

	saved, err := Get()
	if err != nil {
		return err
	}

	changed := false
	for _, s := range saved {
		if s.ID == id && s.ArtworkURL != url {
			s.ArtworkURL = url
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return cacher.Set(saved)
}
