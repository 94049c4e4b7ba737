// Package blobdir stores opaque payloads (thumbnails, audio) as individual
// files in a directory, indexed by an ndjson log mapping key to filename.
//
// Blob files carry fresh random names with no extension; the index is the
// only source of truth for which file belongs to which key. Index entries
// whose file has gone missing are skipped on read rather than failing the
// whole load.
package blobdir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"groove/internal/fileutil"
	"groove/internal/logging"
	"groove/internal/ndjson"
)

const indexFilename = "index.ndjson"

// DefaultReadConcurrency bounds parallel blob file reads unless overridden.
const DefaultReadConcurrency = 8

// Blob is one stored payload.
type Blob struct {
	ID   string
	Data []byte
}

// Key returns the blob's owning key.
func (b Blob) Key() string { return b.ID }

// indexEntry maps a blob key to its generated filename.
type indexEntry struct {
	ID   string `json:"id"`
	File string `json:"file"`
}

func (e indexEntry) Key() string { return e.ID }

// Store reads and extends one blob directory.
type Store struct {
	dir         string
	index       *ndjson.Store[indexEntry]
	logger      *slog.Logger
	concurrency int
}

// NewStore returns a store over dir. The directory and its index file are
// created lazily by the first read or extend.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:         dir,
		index:       ndjson.NewStore[indexEntry](filepath.Join(dir, indexFilename), logger),
		logger:      logging.NewComponentLogger(logger, "blobdir"),
		concurrency: DefaultReadConcurrency,
	}
}

// SetReadConcurrency overrides the parallel read limit. Values below one are
// ignored.
func (s *Store) SetReadConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// Dir returns the blob directory.
func (s *Store) Dir() string {
	return s.dir
}

// IndexPath returns the location of the index file.
func (s *Store) IndexPath() string {
	return s.index.Path()
}

// Read loads every indexed blob.
func (s *Store) Read(ctx context.Context) ([]Blob, error) {
	entries, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, entries)
}

// ReadRecords loads the blobs whose key is in keys.
func (s *Store) ReadRecords(ctx context.Context, keys []string) ([]Blob, error) {
	entries, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		wanted[key] = struct{}{}
	}
	filtered := entries[:0]
	for _, entry := range entries {
		if _, ok := wanted[entry.ID]; ok {
			filtered = append(filtered, entry)
		}
	}
	return s.load(ctx, filtered)
}

// Extend writes each blob under a fresh random filename and records it in
// the index under the same overwrite policy as the ndjson store. The file
// write and the index write evaluate the policy independently.
func (s *Store) Extend(ctx context.Context, blobs []Blob, overwrite bool) error {
	if len(blobs) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	// Last value per key wins before any file is written, so a batch with
	// duplicate keys leaves a single blob file behind.
	pending := make(map[string]Blob, len(blobs))
	order := make([]string, 0, len(blobs))
	for _, blob := range blobs {
		if _, ok := pending[blob.ID]; !ok {
			order = append(order, blob.ID)
		}
		pending[blob.ID] = blob
	}

	entries := make([]indexEntry, 0, len(order))
	written := 0
	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		blob := pending[id]
		name := uuid.NewString()
		dest := filepath.Join(s.dir, name)
		// A fresh name never collides in practice; the existence check keeps
		// the file write under the same policy as the index write.
		if overwrite || !fileutil.Exists(dest) {
			if err := os.WriteFile(dest, blob.Data, 0o644); err != nil {
				return fmt.Errorf("write blob %q: %w", id, err)
			}
			written++
		}
		entries = append(entries, indexEntry{ID: id, File: name})
	}

	if err := s.index.Extend(ctx, entries, overwrite); err != nil {
		return err
	}

	s.logger.Debug("extended blob store",
		logging.String("dir", s.dir),
		logging.Int("files_written", written),
		logging.Int("index_entries", len(entries)),
		logging.Bool("overwrite", overwrite),
	)
	return nil
}

// Orphans lists blob files present in the directory but referenced by no
// index entry. Displaced entries accumulate here until a caller cleans up.
func (s *Store) Orphans(ctx context.Context) ([]string, error) {
	entries, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		referenced[entry.File] = struct{}{}
	}

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list blob directory: %w", err)
	}

	var orphans []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if name == indexFilename || strings.HasSuffix(name, ".tmp") || strings.HasSuffix(name, ".lock") {
			continue
		}
		if _, ok := referenced[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

// Len returns the number of indexed blobs.
func (s *Store) Len(ctx context.Context) (int, error) {
	entries, err := s.readIndex(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *Store) readIndex(ctx context.Context) ([]indexEntry, error) {
	lines, err := s.index.Read(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := s.index.Touch(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}
	entries := make([]indexEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, line.Item)
	}
	return entries, nil
}

func (s *Store) load(ctx context.Context, entries []indexEntry) ([]Blob, error) {
	results := make([]*Blob, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(s.dir, entry.File))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					s.logger.Debug("skipping missing blob file",
						logging.String(logging.FieldBlobID, entry.ID),
						logging.String("file", entry.File),
					)
					return nil
				}
				return fmt.Errorf("read blob %q: %w", entry.ID, err)
			}
			results[i] = &Blob{ID: entry.ID, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	blobs := make([]Blob, 0, len(results))
	for _, blob := range results {
		if blob != nil {
			blobs = append(blobs, *blob)
		}
	}
	return blobs, nil
}
