package trackcache

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sort"
	"sync"

	"groove/internal/hotcache"
	"groove/internal/logging"
	"groove/internal/media"
	"groove/internal/ndjson"
)

// entry is one resident track plus its outstanding lease count.
type entry struct {
	cell   *hotcache.Shared[media.Track]
	leases int
}

// Cache keys resident tracks by id and loads misses from the backing log.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	// fileMu serializes whole-file scans against rewrites.
	fileMu sync.Mutex
	store  *ndjson.Store[media.Track]

	logger *slog.Logger
}

// New returns an empty cache over store.
func New(store *ndjson.Store[media.Track], logger *slog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		store:   store,
		logger:  logging.NewComponentLogger(logger, "trackcache"),
	}
}

// Fetch returns a checkout over the requested keys. Resident tracks are
// served from memory; the rest are loaded from the log in one scan. Keys
// known to neither are silently absent from the checkout. Every returned
// track holds one lease until the checkout is released.
func (c *Cache) Fetch(ctx context.Context, keys ...string) (*Checkout, error) {
	found := make(map[string]*hotcache.Shared[media.Track])
	var missing []string

	c.mu.Lock()
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if e, ok := c.entries[key]; ok {
			e.leases++
			found[key] = e.cell
		} else {
			missing = append(missing, key)
		}
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		c.fileMu.Lock()
		records, err := c.store.ReadRecords(ctx, missing)
		c.fileMu.Unlock()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.release(found)
			return nil, err
		}

		c.mu.Lock()
		for _, track := range records {
			key := track.Key()
			e, ok := c.entries[key]
			if !ok {
				e = &entry{cell: hotcache.NewShared(track)}
				c.entries[key] = e
			}
			e.leases++
			found[key] = e.cell
		}
		c.mu.Unlock()
	}

	c.logger.Debug("checked out tracks",
		logging.Int("requested", len(keys)),
		logging.Int("loaded", len(missing)),
		logging.Int("returned", len(found)),
	)
	return &Checkout{cache: c, cells: found}, nil
}

// UnusedKeys returns the resident keys with no outstanding leases, sorted.
func (c *Cache) UnusedKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for key, e := range c.entries {
		if e.leases == 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// DropFromCache forgets keys in memory. Outstanding checkouts and holders
// keep their cells; the log file is untouched.
func (c *Cache) DropFromCache(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

// DropUnused forgets every key with no outstanding leases and returns them.
func (c *Cache) DropUnused() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dropped []string
	for key, e := range c.entries {
		if e.leases == 0 {
			delete(c.entries, key)
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// Extend merges tracks into the log under the overwrite policy without
// touching residency. Tracks already resident keep their current value
// until dropped and refetched.
func (c *Cache) Extend(ctx context.Context, tracks []media.Track, overwrite bool) error {
	c.fileMu.Lock()
	defer c.fileMu.Unlock()
	return c.store.Extend(ctx, tracks, overwrite)
}

// ExtendFile merges tracks into the log under the overwrite policy, then
// makes the records the rewrite actually wrote resident so immediate fetches
// stay in memory. A record discarded in favor of a stored line never enters
// the map; a resident record replaced on disk is refreshed in place so
// holders observe the same value a reader of the log would.
func (c *Cache) ExtendFile(ctx context.Context, tracks []media.Track, overwrite bool) error {
	c.fileMu.Lock()
	written, err := c.store.ExtendWritten(ctx, tracks, overwrite)
	c.fileMu.Unlock()
	if err != nil {
		return err
	}

	wrote := make(map[string]struct{}, len(written))
	for _, key := range written {
		wrote[key] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, track := range tracks {
		key := track.Key()
		if _, ok := wrote[key]; !ok {
			continue
		}
		if e, ok := c.entries[key]; ok {
			e.cell.Set(track)
			continue
		}
		c.entries[key] = &entry{cell: hotcache.NewShared(track)}
	}
	return nil
}

// Len returns the number of resident tracks.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the resident keys, sorted.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// StorePath returns the location of the backing log.
func (c *Cache) StorePath() string {
	return c.store.Path()
}

// release returns one lease per cell. The pointer comparison skips entries
// that were dropped and re-loaded since the checkout was taken; their leases
// belong to a different generation of the key.
func (c *Cache) release(cells map[string]*hotcache.Shared[media.Track]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, cell := range cells {
		if e, ok := c.entries[key]; ok && e.cell == cell && e.leases > 0 {
			e.leases--
		}
	}
}

// Checkout is a leased view over fetched tracks.
type Checkout struct {
	cache *Cache
	cells map[string]*hotcache.Shared[media.Track]
	once  sync.Once
}

// Tracks returns the checked-out cells keyed by track id. The map is a
// copy; the cells are shared.
func (co *Checkout) Tracks() map[string]*hotcache.Shared[media.Track] {
	out := make(map[string]*hotcache.Shared[media.Track], len(co.cells))
	for key, cell := range co.cells {
		out[key] = cell
	}
	return out
}

// Get returns the cell for key, if it was part of the checkout.
func (co *Checkout) Get(key string) (*hotcache.Shared[media.Track], bool) {
	cell, ok := co.cells[key]
	return cell, ok
}

// Keys returns the checked-out keys, sorted.
func (co *Checkout) Keys() []string {
	keys := make([]string, 0, len(co.cells))
	for key := range co.cells {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of checked-out tracks.
func (co *Checkout) Len() int {
	return len(co.cells)
}

// Release returns every lease held by the checkout. Further calls are no-ops.
func (co *Checkout) Release() {
	co.once.Do(func() {
		co.cache.release(co.cells)
	})
}
