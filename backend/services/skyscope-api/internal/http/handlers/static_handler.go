package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const spaEntry = "index.html"

// NewStaticHandler serves the dashboard bundle from dir. Paths that do not name a file
// fall back to index.html so client-side routes resolve.
func NewStaticHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	entry := filepath.Join(dir, spaEntry)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
			if err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFile(w, r, entry)
	})
}
