package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/dlmaster/internal/domain"
	"github.com/iconidentify/dlmaster/internal/service"
)

// LookupFailedMessage is returned for every lookup failure. Extractor
// diagnostics stay in the server log.
const LookupFailedMessage = "Could not fetch video information. The URL might be invalid, private, or unsupported."

// maxInfoBody bounds the POST /info request body.
const maxInfoBody = 64 << 10

// MediaService is the subset of service.MediaService used by the handler.
type MediaService interface {
	FetchInfo(ctx context.Context, rawURL string) (*service.InfoResult, error)
	Download(ctx context.Context, req domain.DownloadRequest) (*service.Download, error)
}

// MediaHandler serves lookups and downloads.
type MediaHandler struct {
	svc    MediaService
	logger *slog.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(svc MediaService, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		svc:    svc,
		logger: logger,
	}
}

// InfoRequest is the JSON request body for POST /info.
type InfoRequest struct {
	URL string `json:"url"`
}

// Info handles POST /info.
func (h *MediaHandler) Info(w http.ResponseWriter, r *http.Request) {
	var req InfoRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxInfoBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	result, err := h.svc.FetchInfo(r.Context(), req.URL)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Download handles GET /download. The legacy parameter names format_id and
// ext are accepted in place of selector_token and extension.
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := domain.DownloadRequest{
		URL:           q.Get("url"),
		SelectorToken: firstParam(q.Get("selector_token"), q.Get("format_id")),
		Filename:      q.Get("filename"),
		Extension:     firstParam(q.Get("extension"), q.Get("ext")),
	}

	dl, err := h.svc.Download(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer dl.File.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", contentDisposition(dl.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, dl.File)
	if err != nil {
		h.logger.Warn("download stream interrupted",
			"filename", dl.Filename,
			"sent", n,
			"size", dl.Size,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
}

func (h *MediaHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.logger.With("path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))

	var fe *domain.FieldError
	switch {
	case errors.As(err, &fe):
		writeError(w, http.StatusBadRequest, fe.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	case errors.Is(err, domain.ErrLookupFailed):
		logger.Info("lookup failed", "error", err)
		writeError(w, http.StatusNotFound, LookupFailedMessage)
	case errors.Is(err, domain.ErrExecutionFailed):
		logger.Error("download failed", "error", err)
		msg := "Error during download process"
		if errors.Is(err, domain.ErrTimeout) {
			msg = "Download timed out"
		}
		writeError(w, http.StatusInternalServerError, msg)
	case errors.Is(err, domain.ErrArtifactMissing):
		logger.Error("download produced no file", "error", err)
		writeError(w, http.StatusInternalServerError, "Download produced no file")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// contentDisposition builds an attachment header, encoding non-ASCII names per RFC 2231.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func firstParam(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
