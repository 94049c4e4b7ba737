package testsupport

import (
	"fmt"

	"groove/internal/media"
)

// Track returns a deterministic track derived from id, suitable for
// comparing round trips through the stores.
func Track(id string) media.Track {
	return media.Track{
		ID:         id,
		Title:      "Title " + id,
		Channel:    "Channel " + id,
		ViewCount:  uint64(len(id)),
		Thumbnail:  fmt.Sprintf("https://example.com/%s.jpg", id),
		WebpageURL: fmt.Sprintf("https://example.com/watch?v=%s", id),
		Duration:   180,
		Artists:    []string{"Artist " + id},
		Tags:       []string{"tag-" + id},
	}
}

// Tracks returns one deterministic track per id, in order.
func Tracks(ids ...string) []media.Track {
	out := make([]media.Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, Track(id))
	}
	return out
}
