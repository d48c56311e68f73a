package static

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
)

//go:embed web/*
var content embed.FS

// Handler returns an http.Handler serving files from dirs, then from the
// embedded assets. Folders that do not exist are skipped. Directories are
// never listed.
//
// The handler expects the /static prefix to be stripped already.
// Panics if the embedded assets cannot be loaded (build error).
func Handler(dirs []string) http.Handler {
	var systems []http.FileSystem
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			systems = append(systems, http.Dir(dir))
		}
	}

	webFS, err := fs.Sub(content, "web")
	if err != nil {
		panic(fmt.Sprintf("static: failed to load embedded assets: %v", err))
	}
	systems = append(systems, http.FS(webFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		upath := path.Clean("/" + r.URL.Path)
		for _, fsys := range systems {
			ok, err := isFile(fsys, upath)
			if err != nil {
				continue
			}
			if !ok {
				http.NotFound(w, r)
				return
			}
			http.FileServer(fsys).ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// isFile reports whether name exists in fsys and is a regular file.
// The error is non-nil when name does not exist.
func isFile(fsys http.FileSystem, name string) (bool, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close() //nolint:errcheck // read-only

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	return true, nil
}

// ErrNotDir is returned by Check for a static entry that is not a directory.
var ErrNotDir = errors.New("static: not a directory")

// Check reports the first configured folder that exists but is not a
// directory. Missing folders are fine; they are created on load.
func Check(dirs []string) error {
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err == nil && !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotDir, dir)
		}
	}
	return nil
}
