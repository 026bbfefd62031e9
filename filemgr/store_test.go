package filemgr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestSaveStoresBothVersions(t *testing.T) {
	backend := NewLocalBackend(t.TempDir())
	store := NewStore(backend)

	asset, err := store.Save(EntityVenue, "the-crooked-billet", "Hero Photo.JPG", testJPEG(t, 800, 600), 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if asset.Original != "original_hero_photo.jpg" {
		t.Errorf("original name = %q", asset.Original)
	}
	if asset.Thumb != "thumb_hero_photo.jpg" {
		t.Errorf("thumb name = %q", asset.Thumb)
	}
	if asset.Width != 800 {
		t.Errorf("width = %d", asset.Width)
	}

	for _, name := range []string{asset.Original, asset.Thumb} {
		data, err := backend.Get("uploads/venue/the-crooked-billet/" + name)
		if err != nil {
			t.Fatalf("stored file %s missing: %v", name, err)
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("stored file %s not decodable: %v", name, err)
		}
		if name == asset.Thumb {
			b := img.Bounds()
			if b.Dx() != ThumbSize || b.Dy() != ThumbSize {
				t.Errorf("thumb is %dx%d, want square %d", b.Dx(), b.Dy(), ThumbSize)
			}
		}
	}
}

func TestSaveFromURL(t *testing.T) {
	body := testJPEG(t, 640, 480)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(body)
	}))
	defer srv.Close()

	store := NewStore(NewLocalBackend(t.TempDir()))
	asset, err := store.SaveFromURL(context.Background(), EntityPerformer, "sam-field", srv.URL+"/photos/profile.jpg", 0)
	if err != nil {
		t.Fatalf("save from url: %v", err)
	}
	if asset.Original != "original_profile.jpg" {
		t.Errorf("original = %q", asset.Original)
	}
}

func TestSaveFromURLNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewStore(NewLocalBackend(t.TempDir()))
	_, err := store.SaveFromURL(context.Background(), EntityVenue, "x", srv.URL+"/gone.jpg", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	var ae *AssetError
	if !errors.As(err, &ae) || ae.Op != "download" || !ae.Retryable() {
		t.Fatalf("expected retryable download AssetError, got %v", err)
	}
}

func TestRelocateMovesAllFiles(t *testing.T) {
	root := t.TempDir()
	backend := NewLocalBackend(root)
	store := NewStore(backend)

	if _, err := store.Save(EntityVenue, "old-name", "photo.jpg", testJPEG(t, 500, 500), 0); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Relocate(EntityVenue, "old-name", "new-name"); err != nil {
		t.Fatalf("relocate: %v", err)
	}

	newObjs, err := backend.List("uploads/venue/new-name")
	if err != nil {
		t.Fatalf("list new: %v", err)
	}
	if len(newObjs) != 2 {
		t.Fatalf("files under new slug = %d, want 2", len(newObjs))
	}
	oldObjs, _ := backend.List("uploads/venue/old-name")
	if len(oldObjs) != 0 {
		t.Fatalf("files left under old slug = %d, want 0", len(oldObjs))
	}
}

func TestRelocateCrossingRenamesDoNotDeadlock(t *testing.T) {
	backend := NewLocalBackend(t.TempDir())
	store := NewStore(backend)

	if err := backend.Put("uploads/venue/slug-a/original_x.jpg", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := backend.Put("uploads/venue/slug-b/original_y.jpg", []byte("b")); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 2)
	go func() { done <- store.Relocate(EntityVenue, "slug-a", "slug-b") }()
	go func() { done <- store.Relocate(EntityVenue, "slug-b", "slug-a") }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("relocate: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("crossing renames did not finish")
		}
	}
}

func TestDeleteRemovesLegacyNames(t *testing.T) {
	root := t.TempDir()
	backend := NewLocalBackend(root)
	store := NewStore(backend)

	// legacy layout: original_ baked into the name, thumb double-prefixed
	dir := "uploads/venue/the-anchor"
	if err := backend.Put(dir+"/original_photo.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := backend.Put(dir+"/thumb_original_photo.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(EntityVenue, "the-anchor", "photo.jpg", 0); err != nil {
		t.Fatalf("delete: %v", err)
	}

	left, _ := backend.List(dir)
	if len(left) != 0 {
		t.Fatalf("orphans left: %v", left)
	}
}

func TestURLFallsBackToLegacyThenPlaceholder(t *testing.T) {
	backend := NewLocalBackend(t.TempDir())
	store := NewStore(backend)

	dir := "uploads/venue/the-anchor"
	if err := backend.Put(dir+"/thumb_original_photo.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}

	got := store.URL(EntityVenue, "the-anchor", VersionThumb, "photo.jpg", 0)
	if got != "/static/"+dir+"/thumb_original_photo.jpg" {
		t.Errorf("legacy url = %q", got)
	}

	got = store.URL(EntityVenue, "the-anchor", VersionOriginal, "other.jpg", 0)
	if got != PlaceholderImage {
		t.Errorf("missing asset url = %q, want placeholder", got)
	}
}

func TestLocalBackendMissing(t *testing.T) {
	backend := NewLocalBackend(t.TempDir())
	if _, err := backend.Get("uploads/nope.jpg"); err != ErrNotFound {
		t.Fatalf("get missing = %v, want ErrNotFound", err)
	}
	if err := backend.Delete("uploads/nope.jpg"); err != ErrNotFound {
		t.Fatalf("delete missing = %v, want ErrNotFound", err)
	}
	objs, err := backend.List("uploads/empty")
	if err != nil || len(objs) != 0 {
		t.Fatalf("list missing prefix = %v, %v", objs, err)
	}
}

func TestSafeFilename(t *testing.T) {
	if got := SafeFilename("Hero Photo (1).JPG"); got != "hero_photo_1.jpg" {
		t.Errorf("got %q", got)
	}
	if got := SafeFilename("???"); got != "image" {
		t.Errorf("got %q", got)
	}
}
