package logtail_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"groove/internal/logtail"
)

func TestTailReturnsLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groove.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, err := logtail.Tail(path, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groove.log")
	if err := os.WriteFile(path, []byte("only\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, err := logtail.Tail(path, 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 1 || lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groove.log")

	lines, err := logtail.Tail(path, 5)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %#v", lines)
	}
}

func TestFollowHoldsBackUnterminatedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groove.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- logtail.Follow(ctx, path, 10*time.Millisecond, func(line string) {
			received <- line
		})
	}()

	// Give the follower a moment to record the starting offset.
	time.Sleep(50 * time.Millisecond)

	appendToLog(t, path, "split ")
	time.Sleep(100 * time.Millisecond)
	select {
	case line := <-received:
		t.Fatalf("fragment reported before its newline arrived: %q", line)
	default:
	}

	appendToLog(t, path, "across polls\n")
	select {
	case line := <-received:
		if line != "split across polls" {
			t.Fatalf("expected the whole line, got %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for completed line")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for follow to stop")
	}
}

func appendToLog(t *testing.T, path, s string) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log for append: %v", err)
	}
	if _, err := file.WriteString(s); err != nil {
		t.Fatalf("append log line: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}
}

func TestFollowStreamsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groove.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- logtail.Follow(ctx, path, 10*time.Millisecond, func(line string) {
			received <- line
		})
	}()

	// Give the follower a moment to record the starting offset.
	time.Sleep(50 * time.Millisecond)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log for append: %v", err)
	}
	if _, err := file.WriteString("later\n"); err != nil {
		t.Fatalf("append log line: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	select {
	case line := <-received:
		if line != "later" {
			t.Fatalf("expected appended line, got %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for appended line")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for follow to stop")
	}
}
