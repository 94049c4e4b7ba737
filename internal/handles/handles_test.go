package handles_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"groove/internal/handles"
	"groove/internal/logging"
	"groove/internal/testsupport"
)

func newTestStore(t *testing.T) (*handles.Store, string, string) {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "handles.ndjson")
	mediaDir := filepath.Join(base, "media")
	store, err := handles.Open(context.Background(), path, mediaDir, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store, path, mediaDir
}

func TestEnsureIDsAreIdempotentAndIndependent(t *testing.T) {
	store, _, _ := newTestStore(t)

	handle := store.Handle("t1")
	thumb := handle.EnsureThumbID()
	if len(thumb) != 36 {
		t.Fatalf("thumb id %q is not a uuid", thumb)
	}
	if strings.Contains(thumb, ".") {
		t.Fatalf("blob id %q carries an extension", thumb)
	}
	if again := handle.EnsureThumbID(); again != thumb {
		t.Fatalf("second ensure returned %q, want %q", again, thumb)
	}

	audio := handle.EnsureAudioID()
	if audio == thumb {
		t.Fatalf("audio id reused the thumb id")
	}
	if store.Len() != 1 {
		t.Fatalf("store length = %d, want 1", store.Len())
	}
}

func TestPathsCarryKindExtensions(t *testing.T) {
	store, _, mediaDir := newTestStore(t)

	handle := store.Handle("t1")
	if _, ok := handle.ThumbPath(); ok {
		t.Fatalf("thumb path resolved before an id exists")
	}

	thumbPath := handle.EnsureThumbPath()
	if filepath.Dir(thumbPath) != mediaDir {
		t.Fatalf("thumb path %q not under media dir", thumbPath)
	}
	if !strings.HasSuffix(thumbPath, ".jpg") {
		t.Fatalf("thumb path %q missing .jpg", thumbPath)
	}
	if !strings.HasSuffix(handle.EnsureAudioPath(), ".mp3") {
		t.Fatalf("audio path missing .mp3")
	}

	resolved, ok := handle.ThumbPath()
	if !ok || resolved != thumbPath {
		t.Fatalf("ThumbPath = %q, %v; want %q", resolved, ok, thumbPath)
	}
}

func TestSaveAndReload(t *testing.T) {
	store, path, mediaDir := newTestStore(t)
	ctx := context.Background()

	handle := store.Handle("t1")
	thumb := handle.EnsureThumbID()
	handle.SetColor("1f2e3d")
	store.Handle("t2").EnsureAudioID()

	if err := store.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := handles.Open(ctx, path, mediaDir, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("reloaded length = %d, want 2", reloaded.Len())
	}
	again := reloaded.Handle("t1")
	if id, ok := again.ThumbID(); !ok || id != thumb {
		t.Fatalf("thumb id after reload = %q, %v; want %q", id, ok, thumb)
	}
	if color, ok := again.Color(); !ok || color != "1f2e3d" {
		t.Fatalf("color after reload = %q, %v", color, ok)
	}
	if _, ok := again.AudioID(); ok {
		t.Fatalf("t1 grew an audio id across reload")
	}
}

func TestColorOverwrites(t *testing.T) {
	store, _, _ := newTestStore(t)

	handle := store.Handle("t1")
	if _, ok := handle.Color(); ok {
		t.Fatalf("color present before set")
	}
	handle.SetColor("aaaaaa")
	handle.SetColor("bbbbbb")
	if color, _ := handle.Color(); color != "bbbbbb" {
		t.Fatalf("color = %q, want bbbbbb", color)
	}
}

func TestVerifyReportsAndClearsDanglingIDs(t *testing.T) {
	store, _, _ := newTestStore(t)

	good := store.Handle("good")
	testsupport.WriteFile(t, good.EnsureThumbPath(), 16)

	bad := store.Handle("bad")
	danglingThumb := bad.EnsureThumbID()
	bad.EnsureAudioID()

	findings := store.Verify(false)
	if len(findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(findings))
	}
	if findings[0].TrackID != "bad" || findings[0].Kind != handles.KindThumbnail {
		t.Fatalf("unexpected first finding: %+v", findings[0])
	}
	if findings[0].BlobID != danglingThumb {
		t.Fatalf("finding blob id = %q, want %q", findings[0].BlobID, danglingThumb)
	}
	if _, ok := bad.ThumbID(); !ok {
		t.Fatalf("report-only verify cleared an id")
	}

	fixed := store.Verify(true)
	if len(fixed) != 2 {
		t.Fatalf("fix findings = %d, want 2", len(fixed))
	}
	if _, ok := bad.ThumbID(); ok {
		t.Fatalf("fix left the dangling thumb id")
	}
	if _, ok := bad.AudioID(); ok {
		t.Fatalf("fix left the dangling audio id")
	}
	if _, ok := good.ThumbID(); !ok {
		t.Fatalf("fix cleared a healthy id")
	}

	if regenerated := bad.EnsureThumbID(); regenerated == danglingThumb {
		t.Fatalf("regenerated id matched the cleared one")
	}
}

func TestItemsReturnsSortedSnapshot(t *testing.T) {
	store, _, _ := newTestStore(t)

	store.Handle("b").EnsureThumbID()
	store.Handle("a").EnsureAudioID()

	items := store.Items()
	if len(items) != 2 || items[0].TrackID != "a" || items[1].TrackID != "b" {
		t.Fatalf("items = %+v", items)
	}

	thumbBefore := items[1].ThumbID
	store.Handle("b").SetColor("123456")
	if items[1].Color != "" || items[1].ThumbID != thumbBefore {
		t.Fatalf("snapshot mutated by later writes: %+v", items[1])
	}
}
