package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
)

// Frontend serves the built single-page app from d.StaticDir. Paths that are
// not files fall back to index.html so client-side routes survive a reload.
// Unknown /api paths get a JSON 404 instead.
func Frontend(d deps.Deps) http.HandlerFunc {
	var files http.Handler
	if d.StaticDir != "" {
		files = http.FileServer(http.Dir(d.StaticDir))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			writeMessage(w, http.StatusNotFound, "API route not found")
			return
		}
		if files == nil || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			writeMessage(w, http.StatusNotFound, "not found")
			return
		}

		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" && isFile(filepath.Join(d.StaticDir, filepath.FromSlash(clean))) {
			files.ServeHTTP(w, r)
			return
		}

		index := filepath.Join(d.StaticDir, "index.html")
		if !isFile(index) {
			writeMessage(w, http.StatusNotFound, "frontend not built")
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	}
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
