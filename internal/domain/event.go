package domain

import (
	"encoding/json"
	"time"
)

// EventID is a unique identifier for an event.
type EventID string

// String returns the string representation of the EventID.
func (id EventID) String() string {
	return string(id)
}

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	EventSeverityInfo    EventSeverity = "info"
	EventSeverityWarning EventSeverity = "warning"
	EventSeverityError   EventSeverity = "error"
	EventSeveritySuccess EventSeverity = "success"
)

// EventCategory represents the category of an event for filtering.
type EventCategory string

const (
	EventCategoryLookup   EventCategory = "lookup"
	EventCategoryDownload EventCategory = "download"
	EventCategoryCleanup  EventCategory = "cleanup"
	EventCategorySystem   EventCategory = "system"
)

// Event is one entry in the activity log.
type Event struct {
	ID        EventID         `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Severity  EventSeverity   `json:"severity"`
	Category  EventCategory   `json:"category"`
	Message   string          `json:"message"`
	Source    string          `json:"source,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// EventMetadata is a helper type for building event metadata.
type EventMetadata map[string]interface{}

// ToJSON converts metadata to JSON for storage.
func (m EventMetadata) ToJSON() json.RawMessage {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}

// EventFilter specifies criteria for querying events.
type EventFilter struct {
	Severity *EventSeverity `json:"severity,omitempty"`
	Category *EventCategory `json:"category,omitempty"`
	Since    *time.Time     `json:"since,omitempty"`
}

// Matches reports whether the event passes the filter.
func (f EventFilter) Matches(e Event) bool {
	if f.Severity != nil && e.Severity != *f.Severity {
		return false
	}
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}

// EventEmitter is the interface for components that emit events.
type EventEmitter interface {
	// Emit records an event to the event log.
	Emit(event Event)

	// EmitInfo is a convenience method for info-level events.
	EmitInfo(category EventCategory, source, message string, metadata EventMetadata)

	// EmitError is a convenience method for error-level events.
	EmitError(category EventCategory, source, message string, metadata EventMetadata)

	// EmitSuccess is a convenience method for success-level events.
	EmitSuccess(category EventCategory, source, message string, metadata EventMetadata)
}
