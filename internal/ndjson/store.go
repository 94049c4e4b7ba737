package ndjson

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"groove/internal/logging"
)

// maxLineBytes bounds a single record line. Metadata records run well under
// this; the limit only guards against scanning a non-ndjson file.
const maxLineBytes = 4 << 20

// Record is any value with a stable string identity.
type Record interface {
	Key() string
}

// Line pairs a decoded record with the exact file line it came from.
type Line[T Record] struct {
	// Raw holds the source line without its trailing newline. Rewrites copy
	// it untouched, so unchanged records never churn serialization-wise.
	Raw  string
	Item T
}

// Store reads and extends one ndjson log file.
type Store[T Record] struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a store for the log file at path. The file itself is
// created lazily by the first Extend or Touch.
func NewStore[T Record](path string, logger *slog.Logger) *Store[T] {
	return &Store[T]{
		path:   path,
		logger: logging.NewComponentLogger(logger, "ndjson"),
	}
}

// Path returns the location of the backing file.
func (s *Store[T]) Path() string {
	return s.path
}

// Touch creates the backing file (and its parent directory) if absent.
func (s *Store[T]) Touch() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("touch %s: %w", s.path, err)
	}
	return file.Close()
}

// Read scans the whole file, returning every line that decodes. A missing
// file surfaces as an error wrapping fs.ErrNotExist.
func (s *Store[T]) Read(ctx context.Context) ([]Line[T], error) {
	lock := flock.New(s.lockPath())
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer lock.Unlock()

	return s.scan(ctx)
}

// ReadFilter scans the whole file and keeps only lines whose record key is
// in keys. An empty key set yields an empty result.
func (s *Store[T]) ReadFilter(ctx context.Context, keys []string) ([]Line[T], error) {
	lines, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	wanted := newKeySet(keys)
	filtered := lines[:0]
	for _, line := range lines {
		if _, ok := wanted[line.Item.Key()]; ok {
			filtered = append(filtered, line)
		}
	}
	return filtered, nil
}

// ReadRecords is ReadFilter without the raw lines.
func (s *Store[T]) ReadRecords(ctx context.Context, keys []string) ([]T, error) {
	lines, err := s.ReadFilter(ctx, keys)
	if err != nil {
		return nil, err
	}
	records := make([]T, 0, len(lines))
	for _, line := range lines {
		records = append(records, line.Item)
	}
	return records, nil
}

// Extend merges items into the file under the overwrite policy and publishes
// the result atomically.
//
// With overwrite=true a colliding stored line is dropped and the new record
// written; with overwrite=false the stored line wins and the new record is
// discarded. Records with unseen keys are always appended, in first-seen
// batch order. Within one batch the last record per key wins.
func (s *Store[T]) Extend(ctx context.Context, items []T, overwrite bool) error {
	_, err := s.ExtendWritten(ctx, items, overwrite)
	return err
}

// ExtendWritten is Extend reporting the keys it actually wrote, in batch
// order: fresh keys plus, under overwrite, keys whose stored line was
// replaced. Keys discarded in favor of a stored line are absent, so callers
// keeping records resident can mirror exactly what the file accepted.
func (s *Store[T]) ExtendWritten(ctx context.Context, items []T, overwrite bool) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	pending := make(map[string]T, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		key := item.Key()
		if _, ok := pending[key]; !ok {
			order = append(order, key)
		}
		pending[key] = item
	}

	lock := flock.New(s.lockPath())
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer lock.Unlock()

	existing, err := s.scan(ctx)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create temp store: %w", err)
	}

	writer := bufio.NewWriter(tmp)
	kept := 0
	for _, line := range existing {
		key := line.Item.Key()
		if _, clash := pending[key]; clash {
			if overwrite {
				continue
			}
			// Existing wins: the batch entry is consumed without being written.
			delete(pending, key)
		}
		writer.WriteString(line.Raw)
		writer.WriteByte('\n')
		kept++
	}

	written := make([]string, 0, len(pending))
	for _, key := range order {
		item, ok := pending[key]
		if !ok {
			continue
		}
		data, err := json.Marshal(item)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return nil, fmt.Errorf("encode record %q: %w", key, err)
		}
		writer.Write(data)
		writer.WriteByte('\n')
		written = append(written, key)
	}

	if err := writer.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("replace store: %w", err)
	}

	s.logger.Debug("extended store",
		logging.Store(s.path),
		logging.Int("kept", kept),
		logging.Int("appended", len(written)),
		logging.Bool("overwrite", overwrite),
	)
	return written, nil
}

// scan reads the file without taking the lock; callers hold it.
func (s *Store[T]) scan(ctx context.Context) ([]Line[T], error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer file.Close()

	var lines []Line[T]
	skipped := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			skipped++
			continue
		}
		lines = append(lines, Line[T]{Raw: raw, Item: item})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.path, err)
	}

	if skipped > 0 {
		s.logger.Warn("skipped unparseable store lines",
			logging.Store(s.path),
			logging.Int("skipped", skipped),
			logging.String(logging.FieldErrorHint, "lines are dropped permanently on the next extend"),
		)
	}
	return lines, nil
}

func (s *Store[T]) lockPath() string {
	return s.path + ".lock"
}

func newKeySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}
