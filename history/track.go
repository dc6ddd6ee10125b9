package history

import (
	"fmt"
	"time"

	"github.com/sangeet-cli/sangeet/catalog"
)

// SavedTrack is a single recently-played entry. It is a snapshot of the track
// at play time, not a live reference into the catalog.
type SavedTrack struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Artist     string    `json:"artist"`
	Duration   float64   `json:"duration"`
	ArtworkURL string    `json:"artwork_url"`
	Language   string    `json:"language"`
	PlayedAt   time.Time `json:"played_at"`
}

func (s *SavedTrack) String() string {
	return fmt.Sprintf("%s - %s", s.Name, s.Artist)
}

func newSavedTrack(track *catalog.Track) *SavedTrack {
	saved := &SavedTrack{
		ID:       track.ID,
		Name:     track.Name,
		Artist:   track.Artist,
		Duration: track.Duration,
		Language: track.Language,
		PlayedAt: time.Now(),
	}

	if image, ok := track.BestImage().Get(); ok {
		saved.ArtworkURL = image.URL
	}

	return saved
}
