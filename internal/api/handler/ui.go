package handler

import (
	"net/http"

	"github.com/iconidentify/dlmaster/pkg/ui"
)

// UIHandler serves the web UI.
type UIHandler struct{}

// NewUIHandler creates a new UI handler.
func NewUIHandler() *UIHandler {
	return &UIHandler{}
}

// Index serves the download page.
func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(ui.IndexHTML)
}

// Robots serves robots.txt.
func (h *UIHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(ui.RobotsTXT)
}
