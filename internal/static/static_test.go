package static

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandlerServesEmbeddedAssets(t *testing.T) {
	h := Handler(nil)

	w := get(t, h, "/homestar.js")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /homestar.js: got status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "homestarInteract") {
		t.Error("GET /homestar.js: helper not found in body")
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
}

func TestHandlerFolderOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(first, "logo.svg"), []byte("first"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(second, "logo.svg"), []byte("second"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(second, "homestar.js"), []byte("override"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := Handler([]string{filepath.Join(first, "missing"), first, second})

	if body := get(t, h, "/logo.svg").Body.String(); body != "first" {
		t.Errorf("GET /logo.svg = %q, want first folder", body)
	}
	if body := get(t, h, "/homestar.js").Body.String(); body != "override" {
		t.Errorf("GET /homestar.js = %q, want folder override", body)
	}
}

func TestHandlerNotFoundAndNoListing(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "img"), 0o750); err != nil {
		t.Fatal(err)
	}
	h := Handler([]string{dir})

	if w := get(t, h, "/absent.png"); w.Code != http.StatusNotFound {
		t.Errorf("GET /absent.png: got status %d, want 404", w.Code)
	}
	if w := get(t, h, "/img/"); w.Code != http.StatusNotFound {
		t.Errorf("GET /img/: got status %d, want 404", w.Code)
	}
	if w := get(t, h, "/../../etc/passwd"); w.Code != http.StatusNotFound {
		t.Errorf("GET traversal: got status %d, want 404", w.Code)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Check([]string{dir, filepath.Join(dir, "absent")}); err != nil {
		t.Errorf("Check() = %v, want nil", err)
	}
	if err := Check([]string{file}); !errors.Is(err, ErrNotDir) {
		t.Errorf("Check(file) = %v, want ErrNotDir", err)
	}
}
