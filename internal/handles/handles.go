package handles

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"groove/internal/logging"
	"groove/internal/ndjson"
)

const (
	thumbExt = ".jpg"
	audioExt = ".mp3"
)

// Item is one track's persisted handle record. Blob ids are bare UUIDs;
// the kind-specific extension is applied at path resolution time.
type Item struct {
	TrackID string `json:"id"`
	ThumbID string `json:"thumbnail,omitempty"`
	AudioID string `json:"audio,omitempty"`
	Color   string `json:"primary_color,omitempty"`
}

// Key implements ndjson.Record.
func (i Item) Key() string { return i.TrackID }

// Store holds every handle record and persists them as an ndjson log.
type Store struct {
	mu       sync.RWMutex
	items    map[string]*Item
	store    *ndjson.Store[Item]
	mediaDir string
	logger   *slog.Logger
}

// Open loads the handle log at path. A missing file yields an empty store.
// Blob files resolve under mediaDir.
func Open(ctx context.Context, path, mediaDir string, logger *slog.Logger) (*Store, error) {
	log := logging.NewComponentLogger(logger, "handles")
	store := ndjson.NewStore[Item](path, logger)

	items := make(map[string]*Item)
	lines, err := store.Read(ctx)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for _, line := range lines {
		item := line.Item
		items[item.TrackID] = &item
	}

	log.Debug("loaded handle records", logging.Int("count", len(items)))
	return &Store{
		items:    items,
		store:    store,
		mediaDir: mediaDir,
		logger:   log,
	}, nil
}

// Handle returns the handle for key, creating its record on first access.
func (s *Store) Handle(key string) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		item = &Item{TrackID: key}
		s.items[key] = item
	}
	return &Handle{store: s, item: item}
}

// Save rewrites the whole log from the in-memory records, sorted by track
// id for stable output.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item)
	}
	s.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool { return items[i].TrackID < items[j].TrackID })

	if err := s.store.Extend(ctx, items, true); err != nil {
		return err
	}
	s.logger.Debug("saved handle records", logging.Int("count", len(items)))
	return nil
}

// Len returns the number of handle records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a snapshot of every record, sorted by track id.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].TrackID < items[j].TrackID })
	return items
}

// Path returns the location of the backing log.
func (s *Store) Path() string {
	return s.store.Path()
}

// MediaDir returns the directory blob files resolve under.
func (s *Store) MediaDir() string {
	return s.mediaDir
}

func (s *Store) thumbPath(id string) string {
	return filepath.Join(s.mediaDir, id+thumbExt)
}

func (s *Store) audioPath(id string) string {
	return filepath.Join(s.mediaDir, id+audioExt)
}

// Handle is a view over one track's record, bound to its store.
type Handle struct {
	store *Store
	item  *Item
}

// TrackID returns the owning track id.
func (h *Handle) TrackID() string {
	return h.item.TrackID
}

// ThumbID returns the thumbnail blob id, if one was generated.
func (h *Handle) ThumbID() (string, bool) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.item.ThumbID, h.item.ThumbID != ""
}

// AudioID returns the audio blob id, if one was generated.
func (h *Handle) AudioID() (string, bool) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.item.AudioID, h.item.AudioID != ""
}

// EnsureThumbID returns the thumbnail blob id, generating it on first use.
func (h *Handle) EnsureThumbID() string {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.item.ThumbID == "" {
		h.item.ThumbID = uuid.NewString()
	}
	return h.item.ThumbID
}

// EnsureAudioID returns the audio blob id, generating it on first use.
func (h *Handle) EnsureAudioID() string {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.item.AudioID == "" {
		h.item.AudioID = uuid.NewString()
	}
	return h.item.AudioID
}

// ThumbPath resolves the thumbnail file path, if an id exists.
func (h *Handle) ThumbPath() (string, bool) {
	id, ok := h.ThumbID()
	if !ok {
		return "", false
	}
	return h.store.thumbPath(id), true
}

// AudioPath resolves the audio file path, if an id exists.
func (h *Handle) AudioPath() (string, bool) {
	id, ok := h.AudioID()
	if !ok {
		return "", false
	}
	return h.store.audioPath(id), true
}

// EnsureThumbPath resolves the thumbnail file path, generating the id on
// first use.
func (h *Handle) EnsureThumbPath() string {
	return h.store.thumbPath(h.EnsureThumbID())
}

// EnsureAudioPath resolves the audio file path, generating the id on
// first use.
func (h *Handle) EnsureAudioPath() string {
	return h.store.audioPath(h.EnsureAudioID())
}

// Color returns the cached accent color, if one was stored.
func (h *Handle) Color() (string, bool) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.item.Color, h.item.Color != ""
}

// SetColor stores the accent color, replacing any previous value.
func (h *Handle) SetColor(color string) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.item.Color = color
}
