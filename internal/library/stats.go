package library

import (
	"context"
	"fmt"

	"groove/internal/blobdir"
	"groove/internal/fileutil"
)

// BlobStats summarizes one blob store.
type BlobStats struct {
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
	Orphans int   `json:"orphans"`
}

// Stats summarizes the library for status reporting.
type Stats struct {
	TrackCount     int       `json:"track_count"`
	ResidentTracks int       `json:"resident_tracks"`
	HandleCount    int       `json:"handle_count"`
	Thumbs         BlobStats `json:"thumbnails"`
	Audio          BlobStats `json:"audio"`
	MediaFiles     int       `json:"media_files"`
	MediaBytes     int64     `json:"media_bytes"`
	DiskTotal      uint64    `json:"disk_total"`
	DiskFree       uint64    `json:"disk_free"`
}

// Stats gathers store counts, disk usage per artifact area, and free space
// on the cache filesystem.
func (l *Library) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	tracks, err := l.AllTracks(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count tracks: %w", err)
	}
	stats.TrackCount = len(tracks)
	stats.ResidentTracks = l.tracks.Len()
	stats.HandleCount = l.handles.Len()

	stats.Thumbs, err = l.blobStats(ctx, l.thumbStore)
	if err != nil {
		return Stats{}, fmt.Errorf("thumbnail stats: %w", err)
	}
	stats.Audio, err = l.blobStats(ctx, l.audioStore)
	if err != nil {
		return Stats{}, fmt.Errorf("audio stats: %w", err)
	}

	stats.MediaBytes, stats.MediaFiles, err = fileutil.DirSize(l.cfg.MediaDir())
	if err != nil {
		return Stats{}, fmt.Errorf("media usage: %w", err)
	}

	stats.DiskTotal, stats.DiskFree, err = fileutil.DiskUsage(l.cfg.Paths.CacheDir)
	if err != nil {
		return Stats{}, fmt.Errorf("cache disk usage: %w", err)
	}
	return stats, nil
}

func (l *Library) blobStats(ctx context.Context, store *blobdir.Store) (BlobStats, error) {
	entries, err := store.Len(ctx)
	if err != nil {
		return BlobStats{}, err
	}
	orphans, err := store.Orphans(ctx)
	if err != nil {
		return BlobStats{}, err
	}
	size, _, err := fileutil.DirSize(store.Dir())
	if err != nil {
		return BlobStats{}, err
	}
	return BlobStats{Entries: entries, Bytes: size, Orphans: len(orphans)}, nil
}
