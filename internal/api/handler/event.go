package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/iconidentify/dlmaster/internal/domain"
)

// EventStore is the subset of service.EventService used by the handler.
type EventStore interface {
	Recent(filter domain.EventFilter, limit int) []domain.Event
	Historical(ctx context.Context, filter domain.EventFilter, limit int) ([]domain.Event, error)
}

// EventHandler handles event-related HTTP requests.
type EventHandler struct {
	events EventStore
	logger *slog.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(events EventStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		logger: logger,
	}
}

// EventResponse represents an event in API responses.
type EventResponse struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Severity  string          `json:"severity"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	Source    string          `json:"source,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// EventListResponse wraps a list of events.
type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Limit  int             `json:"limit"`
}

// List handles GET /api/v1/events
// Query parameters:
//   - severity: info, warning, error or success
//   - category: lookup, download, cleanup or system
//   - since: only events at or after this time (RFC3339)
//   - limit: max events to return (default 50, max 200)
//   - historical: if "true", query SQLite instead of the ring buffer
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 50
	if l := q.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, 200)
	}

	var filter domain.EventFilter
	if sev := q.Get("severity"); sev != "" {
		severity := domain.EventSeverity(sev)
		filter.Severity = &severity
	}
	if cat := q.Get("category"); cat != "" {
		category := domain.EventCategory(cat)
		filter.Category = &category
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
		filter.Since = &t
	}

	var events []domain.Event
	if q.Get("historical") == "true" {
		var err error
		events, err = h.events.Historical(r.Context(), filter, limit)
		if err != nil {
			h.logger.Error("failed to query events", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to query events")
			return
		}
	} else {
		events = h.events.Recent(filter, limit)
	}

	response := EventListResponse{
		Events: make([]EventResponse, 0, len(events)),
		Limit:  limit,
	}
	for _, e := range events {
		response.Events = append(response.Events, EventResponse{
			ID:        string(e.ID),
			Timestamp: e.Timestamp,
			Severity:  string(e.Severity),
			Category:  string(e.Category),
			Message:   e.Message,
			Source:    e.Source,
			Metadata:  e.Metadata,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
