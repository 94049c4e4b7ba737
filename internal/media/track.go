// Package media defines the track metadata records stored in the library.
package media

import (
	"fmt"
	"strings"
	"time"
)

// Track is one library entry: the metadata groove keeps for a single song.
//
// The JSON field set matches the shape produced by the metadata resolver, so
// stored lines stay readable by it. Optional fields are omitted when empty;
// the remaining fields are always serialized.
type Track struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Channel     string   `json:"channel"`
	ViewCount   uint64   `json:"view_count,omitempty"`
	Thumbnail   string   `json:"thumbnail"`
	Album       string   `json:"album,omitempty"`
	WebpageURL  string   `json:"webpage_url"`
	Duration    float64  `json:"duration"`
	Artists     []string `json:"artists,omitempty"`
	Tags        []string `json:"tags"`
}

// Key returns the stable identity used by the stores and caches.
func (t Track) Key() string { return t.ID }

// Runtime returns the track duration as a time.Duration.
func (t Track) Runtime() time.Duration {
	return time.Duration(t.Duration * float64(time.Second))
}

// ArtistLine renders the artist list for display, falling back to the channel.
func (t Track) ArtistLine() string {
	if len(t.Artists) == 0 {
		return t.Channel
	}
	return strings.Join(t.Artists, ", ")
}

// DurationString renders the duration as m:ss, or h:mm:ss past the hour mark.
func (t Track) DurationString() string {
	total := int(t.Duration)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
