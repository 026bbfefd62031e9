package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func TestStaticRoutesServeFromConfiguredRoot(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "uploads", "venue", "the-anchor")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "original_photo.jpg"), []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	router := httprouter.New()
	AddStaticRoutes(router, root)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/static/uploads/venue/the-anchor/original_photo.jpg", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "jpeg-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
