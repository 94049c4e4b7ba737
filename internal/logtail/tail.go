package logtail

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

const (
	maxLineBytes    = 1 << 20
	defaultInterval = 250 * time.Millisecond
)

// Tail returns the last n lines of the file at path. A missing file yields
// no lines rather than an error.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ring := make([]string, n)
	count := 0
	next := 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, 0, count)
	if count == n {
		for i := 0; i < count; i++ {
			lines = append(lines, ring[(next+i)%n])
		}
	} else {
		lines = append(lines, ring[:count]...)
	}
	return lines, nil
}

// Follow invokes fn for each line appended to path until ctx is cancelled.
// It starts at the current end of the file, so only lines written after the
// call are reported. A file that does not exist yet is watched until it
// appears. interval controls the poll cadence; zero selects a default.
func Follow(ctx context.Context, path string, interval time.Duration, fn func(string)) error {
	if interval <= 0 {
		interval = defaultInterval
	}

	var offset int64
	if info, err := os.Stat(path); err == nil {
		offset = info.Size()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		lines, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fn(line)
		}
		offset = next
	}
}

// readFrom reads the complete lines between offset and the last newline in
// the file and reports the offset to resume from. Bytes past the last
// newline belong to a line still being written; they stay unconsumed so a
// later poll reports the whole line at once. A file smaller than offset was
// rotated or truncated, so reading restarts at the top.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return nil, offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, offset, fmt.Errorf("read log file: %w", err)
	}
	last := bytes.LastIndexByte(data, '\n')
	if last < 0 {
		return nil, offset, nil
	}
	return strings.Split(string(data[:last]), "\n"), offset + int64(last) + 1, nil
}
