package media

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTrackJSONOmitsEmptyOptionals(t *testing.T) {
	track := Track{
		ID:         "dQw4w9WgXcQ",
		Title:      "Test Song",
		Channel:    "Test Channel",
		Thumbnail:  "https://example.com/t.jpg",
		WebpageURL: "https://example.com/watch",
		Duration:   212.5,
		Tags:       []string{},
	}

	data, err := json.Marshal(track)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	line := string(data)
	for _, absent := range []string{"description", "view_count", "album", "artists"} {
		if strings.Contains(line, `"`+absent+`"`) {
			t.Fatalf("expected %q to be omitted: %s", absent, line)
		}
	}
	for _, present := range []string{`"id"`, `"title"`, `"channel"`, `"thumbnail"`, `"webpage_url"`, `"duration"`, `"tags"`} {
		if !strings.Contains(line, present) {
			t.Fatalf("expected %s in output: %s", present, line)
		}
	}

	var back Track
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Key() != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected key: %q", back.Key())
	}
}

func TestArtistLineFallsBackToChannel(t *testing.T) {
	track := Track{Channel: "Some Channel"}
	if got := track.ArtistLine(); got != "Some Channel" {
		t.Fatalf("ArtistLine fallback = %q", got)
	}
	track.Artists = []string{"Miles Davis", "Bill Evans"}
	if got := track.ArtistLine(); got != "Miles Davis, Bill Evans" {
		t.Fatalf("ArtistLine = %q", got)
	}
}

func TestDurationString(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{59.9, "0:59"},
		{212, "3:32"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tc := range cases {
		track := Track{Duration: tc.seconds}
		if got := track.DurationString(); got != tc.want {
			t.Fatalf("DurationString(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
