package library

import (
	"context"
	"fmt"

	"groove/internal/blobdir"
	"groove/internal/hotcache"
)

// ThumbnailData returns the cached thumbnail bytes for a track, if any
// were stored.
func (l *Library) ThumbnailData(ctx context.Context, trackID string) ([]byte, bool, error) {
	return l.blobData(ctx, l.thumbs, trackID)
}

// StoreThumbnail writes thumbnail bytes for a track. With overwrite unset
// an existing thumbnail wins and the new bytes are discarded.
func (l *Library) StoreThumbnail(ctx context.Context, trackID string, data []byte, overwrite bool) error {
	if err := l.storeBlob(ctx, l.thumbStore, l.thumbs, trackID, data, overwrite); err != nil {
		return fmt.Errorf("store thumbnail for %s: %w", trackID, err)
	}
	return nil
}

// AudioData returns the cached audio bytes for a track, if any were stored.
func (l *Library) AudioData(ctx context.Context, trackID string) ([]byte, bool, error) {
	return l.blobData(ctx, l.audio, trackID)
}

// StoreAudio writes audio bytes for a track. With overwrite unset an
// existing blob wins and the new bytes are discarded.
func (l *Library) StoreAudio(ctx context.Context, trackID string, data []byte, overwrite bool) error {
	if err := l.storeBlob(ctx, l.audioStore, l.audio, trackID, data, overwrite); err != nil {
		return fmt.Errorf("store audio for %s: %w", trackID, err)
	}
	return nil
}

// blobData serves one blob through its buffered cache, folding a cold read
// back in. Absent blobs report ok=false without error.
func (l *Library) blobData(ctx context.Context, cache *hotcache.Cache[blobdir.Blob], id string) ([]byte, bool, error) {
	if resident := cache.FetchExisting(id); len(resident) > 0 {
		return resident[id].Get().Data, true, nil
	}

	loaded, err := cache.ReadMissing(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if len(loaded) == 0 {
		return nil, false, nil
	}
	cache.Push(loaded)
	return loaded[id].Get().Data, true, nil
}

// storeBlob extends a blob store and drops the key from its buffered cache
// so the next read observes the on-disk outcome of the overwrite policy.
func (l *Library) storeBlob(ctx context.Context, store *blobdir.Store, cache *hotcache.Cache[blobdir.Blob], id string, data []byte, overwrite bool) error {
	blob := blobdir.Blob{ID: id, Data: data}
	if err := store.Extend(ctx, []blobdir.Blob{blob}, overwrite); err != nil {
		return err
	}
	cache.DropFromCache(id)
	return nil
}
