package recipepage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/homestar-hub/internal/catalog"
	"github.com/nerrad567/homestar-hub/internal/extension"
	"github.com/nerrad567/homestar-hub/internal/hub"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/logging"
)

const cookbook = `
name: Living Room
recipes:
  - id: lights-on
    name: Lights On
`

func newHub(t *testing.T, exts ...extension.Extension) *hub.Server {
	t.Helper()

	books := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(books, "living.yaml"), []byte(cookbook), 0o600))
	cat := catalog.New()
	require.NoError(t, cat.LoadCookbooks(books))

	tree := config.Defaults().Merge(config.NewTree(map[string]any{
		"webserver": map[string]any{
			"host": "127.0.0.1",
			"port": 0,
			"folders": map[string]any{
				"static":  []any{},
				"dynamic": []any{},
			},
		},
		"secrets": map[string]any{"host": "h", "session": "s"},
	}))

	srv, err := hub.New(hub.Deps{
		Tree:       tree,
		Logger:     logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard),
		Catalog:    cat,
		Extensions: exts,
		Version:    "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.html")
	require.NoError(t, os.WriteFile(path, []byte(`<h1 id="name">{{ index .recipe "name" }}</h1>`), 0o600))
	return path
}

func serve(srv *hub.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRecipePageRendersKnownRecipe(t *testing.T) {
	srv := newHub(t, New(writeTemplate(t)))

	rec := serve(srv, "/recipes/lights-on")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	assert.Equal(t, "Lights On", doc.Find("#name").Text())
}

func TestRecipePageUnknownRecipe(t *testing.T) {
	srv := newHub(t, New(writeTemplate(t)))

	rec := serve(srv, "/recipes/absent")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipe not found: absent")
}

func TestRecipePageMissingTemplate(t *testing.T) {
	srv := newHub(t, New(filepath.Join(t.TempDir(), "absent.html")))

	for _, route := range srv.Routes() {
		assert.NotEqual(t, Path, route.Path)
	}
	assert.Equal(t, http.StatusNotFound, serve(srv, "/recipes/lights-on").Code)
}
