package http

import (
	"io/fs"
	"log/slog"
	"net/http"
)

// ServeIndex serves index.html from the embedded page files
func ServeIndex(pages fs.FS, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(pages, "index.html")
		if err != nil {
			logger.ErrorContext(r.Context(), "Index page unavailable", slog.String("error", err.Error()))
			http.Error(w, "Page not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(data)
	}
}

// StaticFiles serves the remaining page assets (scripts, styles)
func StaticFiles(pages fs.FS) http.Handler {
	return http.StripPrefix("/static", http.FileServer(http.FS(pages)))
}
