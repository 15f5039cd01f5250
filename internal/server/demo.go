package server

import (
	_ "embed"
	"net/http"
)

//go:embed demo.html
var demoPage []byte

// handleDemo serves the embedded browser demo. The page posts to
// /tts_base64 and plays the decoded result in place.
func (h *handler) handleDemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(demoPage)
}
