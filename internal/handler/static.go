package handler

import (
	"net/http"
	"os"
	"path/filepath"
)

// StaticFileHandler serves a single file from dir. "/" only matches exactly,
// every other unknown path is a 404.
func StaticFileHandler(dir, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/"+name {
			http.NotFound(w, r)
			return
		}

		filePath := filepath.Join(dir, name)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// UploadsHandler serves snapshot files under /uploads/.
func UploadsHandler(uploadDir string) http.Handler {
	return http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir)))
}
