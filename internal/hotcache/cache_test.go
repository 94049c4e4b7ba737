package hotcache_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"groove/internal/hotcache"
	"groove/internal/logging"
)

type rec struct {
	ID string
	N  int
}

func (r rec) Key() string { return r.ID }

type fakeCold struct {
	mu       sync.Mutex
	records  map[string]rec
	calls    int
	lastKeys []string
	err      error
}

func (f *fakeCold) ReadRecords(_ context.Context, keys []string) ([]rec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastKeys = append([]string(nil), keys...)
	if f.err != nil {
		return nil, f.err
	}
	var out []rec
	for _, key := range keys {
		if record, ok := f.records[key]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func TestFetchExistingNeverTouchesColdStore(t *testing.T) {
	cold := &fakeCold{records: map[string]rec{"b": {ID: "b"}}}
	cache := hotcache.New[rec](cold, logging.NewNop())
	cache.PushRecords(rec{ID: "a", N: 1})

	got := cache.FetchExisting("a", "b")
	if len(got) != 1 {
		t.Fatalf("expected only resident entries, got %d", len(got))
	}
	if _, ok := got["a"]; !ok {
		t.Fatal("resident entry missing from result")
	}
	if cold.calls != 0 {
		t.Fatalf("cold store should not be consulted, saw %d calls", cold.calls)
	}
}

func TestReadMissingLoadsOnlyAbsentKeys(t *testing.T) {
	cold := &fakeCold{records: map[string]rec{"b": {ID: "b", N: 2}}}
	cache := hotcache.New[rec](cold, logging.NewNop())
	cache.PushRecords(rec{ID: "a", N: 1})

	loaded, err := cache.ReadMissing(context.Background(), "a", "b", "c", "b")
	if err != nil {
		t.Fatalf("ReadMissing: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 loaded record, got %d", len(loaded))
	}
	if cell, ok := loaded["b"]; !ok || cell.Get().N != 2 {
		t.Fatalf("unexpected loaded records: %v", loaded)
	}

	sort.Strings(cold.lastKeys)
	if len(cold.lastKeys) != 2 || cold.lastKeys[0] != "b" || cold.lastKeys[1] != "c" {
		t.Fatalf("cold store should see only absent deduplicated keys, got %v", cold.lastKeys)
	}

	// Loads are not inserted until the caller pushes them.
	if cache.Len() != 1 {
		t.Fatalf("cache should be untouched before Push, len=%d", cache.Len())
	}
	cache.Push(loaded)
	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries after Push, len=%d", cache.Len())
	}
}

func TestReadMissingWithAllResidentSkipsColdStore(t *testing.T) {
	cold := &fakeCold{}
	cache := hotcache.New[rec](cold, logging.NewNop())
	cache.PushRecords(rec{ID: "a"})

	loaded, err := cache.ReadMissing(context.Background(), "a")
	if err != nil {
		t.Fatalf("ReadMissing: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected no loads, got %d", len(loaded))
	}
	if cold.calls != 0 {
		t.Fatalf("cold store should not be consulted, saw %d calls", cold.calls)
	}
}

func TestReadMissingPropagatesColdStoreError(t *testing.T) {
	wantErr := errors.New("disk gone")
	cache := hotcache.New[rec](&fakeCold{err: wantErr}, logging.NewNop())

	if _, err := cache.ReadMissing(context.Background(), "a"); !errors.Is(err, wantErr) {
		t.Fatalf("expected cold store error, got %v", err)
	}
}

func TestPushLastWriteWins(t *testing.T) {
	cache := hotcache.New[rec](&fakeCold{}, logging.NewNop())
	cache.PushRecords(rec{ID: "a", N: 1})
	cache.PushRecords(rec{ID: "a", N: 2})

	items := cache.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
	if got := items["a"].Get().N; got != 2 {
		t.Fatalf("expected last pushed value, got %d", got)
	}
}

func TestDropFromCacheLeavesHoldersAlive(t *testing.T) {
	cache := hotcache.New[rec](&fakeCold{}, logging.NewNop())
	cache.PushRecords(rec{ID: "a", N: 7})

	holder := cache.FetchExisting("a")["a"]
	cache.DropFromCache("a")

	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, len=%d", cache.Len())
	}
	if holder.Get().N != 7 {
		t.Fatalf("external holder should keep its record, got %d", holder.Get().N)
	}
}

func TestItemsReturnsSnapshotMap(t *testing.T) {
	cache := hotcache.New[rec](&fakeCold{}, logging.NewNop())
	cache.PushRecords(rec{ID: "a"})

	items := cache.Items()
	delete(items, "a")
	if cache.Len() != 1 {
		t.Fatal("mutating the snapshot must not affect the cache")
	}
}

func TestSharedCellIsVisibleThroughCache(t *testing.T) {
	cache := hotcache.New[rec](&fakeCold{}, logging.NewNop())
	cache.PushRecords(rec{ID: "a", N: 0})

	holder := cache.FetchExisting("a")["a"]
	holder.Update(func(r *rec) { r.N = 42 })

	if got := cache.Items()["a"].Get().N; got != 42 {
		t.Fatalf("mutation through holder should be visible in cache, got %d", got)
	}
}

func TestSharedConcurrentUpdates(t *testing.T) {
	cell := hotcache.NewShared(rec{ID: "a"})

	var wg sync.WaitGroup
	const workers = 16
	const perWorker = 100
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				cell.Update(func(r *rec) { r.N++ })
			}
		}()
	}
	wg.Wait()

	if got := cell.Get().N; got != workers*perWorker {
		t.Fatalf("expected %d increments, got %d", workers*perWorker, got)
	}
}

func TestWrapAll(t *testing.T) {
	wrapped := hotcache.WrapAll([]rec{{ID: "a", N: 1}, {ID: "b", N: 2}})
	if len(wrapped) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(wrapped))
	}
	if wrapped["b"].Get().N != 2 {
		t.Fatalf("unexpected cell value: %v", wrapped["b"].Get())
	}
}
