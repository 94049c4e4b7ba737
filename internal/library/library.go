package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"groove/internal/blobdir"
	"groove/internal/config"
	"groove/internal/handles"
	"groove/internal/hotcache"
	"groove/internal/logging"
	"groove/internal/media"
	"groove/internal/ndjson"
	"groove/internal/trackcache"
)

// KeySource supplies the track ids a collaborator currently needs, for
// example the visible playlist window or the playback queue.
type KeySource interface {
	UsedKeys() []string
}

// Library is the facade over every store in the on-disk layout.
type Library struct {
	cfg    *config.Config
	logger *slog.Logger

	trackStore *ndjson.Store[media.Track]
	tracks     *trackcache.Cache
	search     *hotcache.Cache[media.Track]

	thumbStore *blobdir.Store
	audioStore *blobdir.Store
	thumbs     *hotcache.Cache[blobdir.Blob]
	audio      *hotcache.Cache[blobdir.Blob]

	handles *handles.Store
}

// Open prepares the directory layout and loads the handle store. Track and
// blob stores are opened lazily on first access.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Library, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare library directories: %w", err)
	}

	trackStore := ndjson.NewStore[media.Track](cfg.LibraryFile(), logger)
	thumbStore := blobdir.NewStore(cfg.ThumbsDir(), logger)
	thumbStore.SetReadConcurrency(cfg.Cache.ReadConcurrency)
	audioStore := blobdir.NewStore(cfg.AudioDir(), logger)
	audioStore.SetReadConcurrency(cfg.Cache.ReadConcurrency)

	handleStore, err := handles.Open(ctx, cfg.HandlesFile(), cfg.MediaDir(), logger)
	if err != nil {
		return nil, fmt.Errorf("open handle store: %w", err)
	}

	log := logging.NewComponentLogger(logger, "library")
	log.Debug("opened library", logging.Store(cfg.LibraryFile()))
	return &Library{
		cfg:        cfg,
		logger:     log,
		trackStore: trackStore,
		tracks:     trackcache.New(trackStore, logger),
		search:     hotcache.New[media.Track](trackStore, logger),
		thumbStore: thumbStore,
		audioStore: audioStore,
		thumbs:     hotcache.New[blobdir.Blob](thumbStore, logger),
		audio:      hotcache.New[blobdir.Blob](audioStore, logger),
		handles:    handleStore,
	}, nil
}

// Fetch checks out tracks from the lease cache; the checkout must be
// released when the caller is done with the records.
func (l *Library) Fetch(ctx context.Context, keys ...string) (*trackcache.Checkout, error) {
	return l.tracks.Fetch(ctx, keys...)
}

// Window returns the records for a visible key window through the buffered
// cache: residents come from memory, the rest load from the log and are
// folded back in. Unknown keys are silently absent.
func (l *Library) Window(ctx context.Context, keys ...string) (map[string]media.Track, error) {
	out := make(map[string]media.Track, len(keys))
	for key, cell := range l.search.FetchExisting(keys...) {
		out[key] = cell.Get()
	}

	loaded, err := l.search.ReadMissing(ctx, keys...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	l.search.Push(loaded)
	for key, cell := range loaded {
		out[key] = cell.Get()
	}
	return out, nil
}

// Extend merges tracks into the log under the overwrite policy. Written
// records become resident in the lease cache; the buffered cache forgets
// the touched keys so its next read observes the file.
func (l *Library) Extend(ctx context.Context, tracks []media.Track, overwrite bool) error {
	if err := l.tracks.ExtendFile(ctx, tracks, overwrite); err != nil {
		return fmt.Errorf("extend track store: %w", err)
	}
	keys := make([]string, 0, len(tracks))
	for _, track := range tracks {
		keys = append(keys, track.Key())
	}
	l.search.DropFromCache(keys...)
	l.logger.Debug("extended library",
		logging.Int("count", len(tracks)),
		logging.Bool("overwrite", overwrite),
	)
	return nil
}

// AllTracks scans the whole log. A missing file yields an empty library.
func (l *Library) AllTracks(ctx context.Context) ([]media.Track, error) {
	lines, err := l.trackStore.Read(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]media.Track, 0, len(lines))
	for _, line := range lines {
		out = append(out, line.Item)
	}
	return out, nil
}

// UnusedKeys reports resident tracks with no outstanding checkout.
func (l *Library) UnusedKeys() []string {
	return l.tracks.UnusedKeys()
}

// SweepUnused evicts every resident track with no outstanding checkout and
// returns the evicted keys.
func (l *Library) SweepUnused() []string {
	dropped := l.tracks.DropUnused()
	if len(dropped) > 0 {
		l.logger.Debug("swept unused tracks", logging.Int("count", len(dropped)))
	}
	return dropped
}

// DropFromCache forgets keys in both in-memory track views. Files are
// untouched.
func (l *Library) DropFromCache(keys ...string) {
	l.tracks.DropFromCache(keys...)
	l.search.DropFromCache(keys...)
}

// Precache warms the lease cache with the supplier's keys. The records stay
// resident but unleased, so a later sweep may evict them again.
func (l *Library) Precache(ctx context.Context, src KeySource) error {
	co, err := l.tracks.Fetch(ctx, src.UsedKeys()...)
	if err != nil {
		return fmt.Errorf("precache tracks: %w", err)
	}
	co.Release()
	return nil
}

// Handle returns the artifact handle for a track id.
func (l *Library) Handle(key string) *handles.Handle {
	return l.handles.Handle(key)
}

// Verify sweeps the handle store for blob ids whose files are gone. With
// fix set, the dangling ids are cleared and the repaired store is saved.
func (l *Library) Verify(ctx context.Context, fix bool) ([]handles.Finding, error) {
	findings := l.handles.Verify(fix)
	if fix && len(findings) > 0 {
		if err := l.handles.Save(ctx); err != nil {
			return findings, fmt.Errorf("save repaired handles: %w", err)
		}
	}
	return findings, nil
}

// Close sweeps unused residents when configured to and saves the handle
// store.
func (l *Library) Close(ctx context.Context) error {
	if l.cfg.Library.SweepOnClose {
		l.SweepUnused()
	}
	if err := l.handles.Save(ctx); err != nil {
		return fmt.Errorf("save handles: %w", err)
	}
	l.logger.Debug("closed library")
	return nil
}
