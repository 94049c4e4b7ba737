package hotcache

import (
	"context"
	"log/slog"
	"sync"

	"groove/internal/logging"
	"groove/internal/ndjson"
)

// ColdStore is the read side of a persistent backing store. Both the ndjson
// log and the blob directory satisfy it.
type ColdStore[T ndjson.Record] interface {
	ReadRecords(ctx context.Context, keys []string) ([]T, error)
}

// Cache is an in-memory map of key to shared record in front of a ColdStore.
type Cache[T ndjson.Record] struct {
	mu     sync.RWMutex
	items  map[string]*Shared[T]
	cold   ColdStore[T]
	logger *slog.Logger
}

// New returns an empty cache over cold.
func New[T ndjson.Record](cold ColdStore[T], logger *slog.Logger) *Cache[T] {
	return &Cache[T]{
		items:  make(map[string]*Shared[T]),
		cold:   cold,
		logger: logging.NewComponentLogger(logger, "hotcache"),
	}
}

// Items returns a snapshot of every cached entry. The map is a copy; the
// cells are shared.
func (c *Cache[T]) Items() map[string]*Shared[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*Shared[T], len(c.items))
	for key, cell := range c.items {
		out[key] = cell
	}
	return out
}

// FetchExisting returns the resident entries among keys. It never touches
// the cold store, so overlapping callers cannot trigger duplicate loads.
func (c *Cache[T]) FetchExisting(keys ...string) map[string]*Shared[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*Shared[T])
	for _, key := range keys {
		if cell, ok := c.items[key]; ok {
			out[key] = cell
		}
	}
	return out
}

// Push inserts or replaces entries wholesale. Last write wins.
func (c *Cache[T]) Push(entries map[string]*Shared[T]) {
	if len(entries) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, cell := range entries {
		c.items[key] = cell
	}
}

// PushRecords wraps each record in a fresh cell and pushes it.
func (c *Cache[T]) PushRecords(records ...T) {
	if len(records) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, record := range records {
		c.items[record.Key()] = NewShared(record)
	}
}

// DropFromCache removes keys from memory. The cold store is untouched, and
// external holders of the dropped cells keep their references.
func (c *Cache[T]) DropFromCache(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.items, key)
	}
}

// ReadMissing loads the records among keys that are not resident. The result
// is not inserted; fold it back with Push once the caller is ready. Keys the
// cold store has no record for are simply absent from the result.
func (c *Cache[T]) ReadMissing(ctx context.Context, keys ...string) (map[string]*Shared[T], error) {
	c.mu.RLock()
	seen := make(map[string]struct{}, len(keys))
	missing := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := c.items[key]; !ok {
			missing = append(missing, key)
		}
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return map[string]*Shared[T]{}, nil
	}

	records, err := c.cold.ReadRecords(ctx, missing)
	if err != nil {
		return nil, err
	}
	loaded := make(map[string]*Shared[T], len(records))
	for _, record := range records {
		loaded[record.Key()] = NewShared(record)
	}

	c.logger.Debug("loaded missing records",
		logging.Int("requested", len(missing)),
		logging.Int("loaded", len(loaded)),
	)
	return loaded, nil
}

// Len returns the number of resident entries.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns the resident keys in no particular order.
func (c *Cache[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	return keys
}

// WrapAll wraps a record slice into the map shape Push expects.
func WrapAll[T ndjson.Record](records []T) map[string]*Shared[T] {
	out := make(map[string]*Shared[T], len(records))
	for _, record := range records {
		out[record.Key()] = NewShared(record)
	}
	return out
}
