package httpapi

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

//go:embed web/index.html
var fallbackIndex []byte

// WebHandler serves the participant UI from disk, or a small embedded page
// when no UI directory is configured.
type WebHandler struct {
	dir string
}

func NewWebHandler(dir string) *WebHandler {
	return &WebHandler{dir: dir}
}

func (h *WebHandler) Assets() http.Handler {
	if h.dir == "" {
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/assets/", http.FileServer(http.Dir(filepath.Join(h.dir, "assets"))))
}

// Index answers every unmatched GET with the UI entry page so client-side
// routes such as /join/{id} work.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if h.dir != "" {
		data, err := os.ReadFile(filepath.Join(h.dir, "index.html"))
		if err == nil {
			w.Write(data)
			return
		}
		slog.Warn("web index unavailable, using fallback", "dir", h.dir, "error", err)
	}
	w.Write(fallbackIndex)
}
