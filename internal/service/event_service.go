package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/iconidentify/dlmaster/internal/domain"
)

// EventServiceConfig configures the event service.
type EventServiceConfig struct {
	// RingBufferSize is the number of events to keep in memory.
	// Default: 500
	RingBufferSize int

	// PersistToSQLite enables SQLite persistence for historical events.
	PersistToSQLite bool

	// SQLitePath is the path to the SQLite database file.
	SQLitePath string

	// RetentionDays is how long to keep events in SQLite (0 = forever).
	RetentionDays int
}

// EventService records lookup, download and cleanup activity in an in-memory
// ring buffer with optional SQLite persistence.
type EventService struct {
	cfg    EventServiceConfig
	logger *slog.Logger

	mu     sync.RWMutex
	events []domain.Event
	head   int
	count  int

	db *sql.DB
}

// NewEventService creates a new event service.
func NewEventService(cfg EventServiceConfig, logger *slog.Logger) (*EventService, error) {
	if cfg.RingBufferSize <= 0 {
		cfg.RingBufferSize = 500
	}

	svc := &EventService{
		cfg:    cfg,
		logger: logger,
		events: make([]domain.Event, cfg.RingBufferSize),
	}

	if cfg.PersistToSQLite && cfg.SQLitePath != "" {
		if err := svc.initSQLite(); err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		logger.Info("event persistence enabled", "path", cfg.SQLitePath)
	}

	return svc, nil
}

func (s *EventService) initSQLite() error {
	db, err := sql.Open("sqlite", s.cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			ts INTEGER NOT NULL,
			severity TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			source TEXT,
			metadata TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
		CREATE INDEX IF NOT EXISTS idx_events_category ON events(category);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("create table: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the event service and any open resources.
func (s *EventService) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Emit records an event to the event log.
func (s *EventService) Emit(event domain.Event) {
	if event.ID == "" {
		event.ID = domain.EventID(uuid.NewString())
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.events[s.head] = event
	s.head = (s.head + 1) % s.cfg.RingBufferSize
	if s.count < s.cfg.RingBufferSize {
		s.count++
	}
	s.mu.Unlock()

	if s.db != nil {
		s.persistEvent(event)
	}

	logLevel := slog.LevelInfo
	switch event.Severity {
	case domain.EventSeverityWarning:
		logLevel = slog.LevelWarn
	case domain.EventSeverityError:
		logLevel = slog.LevelError
	}
	s.logger.Log(context.Background(), logLevel, "event emitted",
		"event_id", event.ID,
		"category", event.Category,
		"severity", event.Severity,
		"message", event.Message,
		"source", event.Source,
	)
}

// EmitInfo is a convenience method for info-level events.
func (s *EventService) EmitInfo(category domain.EventCategory, source, message string, metadata domain.EventMetadata) {
	s.emit(domain.EventSeverityInfo, category, source, message, metadata)
}

// EmitWarning is a convenience method for warning-level events.
func (s *EventService) EmitWarning(category domain.EventCategory, source, message string, metadata domain.EventMetadata) {
	s.emit(domain.EventSeverityWarning, category, source, message, metadata)
}

// EmitError is a convenience method for error-level events.
func (s *EventService) EmitError(category domain.EventCategory, source, message string, metadata domain.EventMetadata) {
	s.emit(domain.EventSeverityError, category, source, message, metadata)
}

// EmitSuccess is a convenience method for success-level events.
func (s *EventService) EmitSuccess(category domain.EventCategory, source, message string, metadata domain.EventMetadata) {
	s.emit(domain.EventSeveritySuccess, category, source, message, metadata)
}

func (s *EventService) emit(sev domain.EventSeverity, category domain.EventCategory, source, message string, metadata domain.EventMetadata) {
	s.Emit(domain.Event{
		Severity: sev,
		Category: category,
		Source:   source,
		Message:  message,
		Metadata: metadata.ToJSON(),
	})
}

func (s *EventService) persistEvent(event domain.Event) {
	var metadata sql.NullString
	if len(event.Metadata) > 0 {
		metadata = sql.NullString{String: string(event.Metadata), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO events (id, ts, severity, category, message, source, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(event.ID), event.Timestamp.UnixNano(), string(event.Severity), string(event.Category), event.Message, event.Source, metadata)
	if err != nil {
		s.logger.Warn("failed to persist event", "event_id", event.ID, "error", err)
	}
}

// Recent returns up to limit buffered events matching filter, newest first.
func (s *EventService) Recent(filter domain.EventFilter, limit int) []domain.Event {
	limit = clampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Event, 0, min(limit, s.count))
	for i := 0; i < s.count && len(result) < limit; i++ {
		idx := (s.head - 1 - i + s.cfg.RingBufferSize) % s.cfg.RingBufferSize
		event := s.events[idx]
		if filter.Matches(event) {
			result = append(result, event)
		}
	}
	return result
}

// Historical queries persisted events, newest first. Without persistence it
// returns an empty slice.
func (s *EventService) Historical(ctx context.Context, filter domain.EventFilter, limit int) ([]domain.Event, error) {
	if s.db == nil {
		return []domain.Event{}, nil
	}
	limit = clampLimit(limit)

	var conditions []string
	var args []interface{}
	if filter.Severity != nil {
		conditions = append(conditions, "severity = ?")
		args = append(args, string(*filter.Severity))
	}
	if filter.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, string(*filter.Category))
	}
	if filter.Since != nil {
		conditions = append(conditions, "ts >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf(`
		SELECT id, ts, severity, category, message, source, metadata
		FROM events %s
		ORDER BY ts DESC
		LIMIT ?
	`, whereClause)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0, limit)
	for rows.Next() {
		var (
			event    domain.Event
			ts       int64
			source   sql.NullString
			metadata sql.NullString
		)
		if err := rows.Scan(&event.ID, &ts, &event.Severity, &event.Category, &event.Message, &source, &metadata); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Timestamp = time.Unix(0, ts)
		event.Source = source.String
		if metadata.Valid && metadata.String != "" {
			event.Metadata = json.RawMessage(metadata.String)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// EventStats describes the event buffer.
type EventStats struct {
	BufferSize    int  `json:"buffer_size"`
	BufferUsed    int  `json:"buffer_used"`
	SQLiteEnabled bool `json:"sqlite_enabled"`
}

// Stats returns statistics about the event service.
func (s *EventService) Stats() EventStats {
	s.mu.RLock()
	used := s.count
	s.mu.RUnlock()

	return EventStats{
		BufferSize:    s.cfg.RingBufferSize,
		BufferUsed:    used,
		SQLiteEnabled: s.db != nil,
	}
}

// CleanupOldEvents removes events older than the retention period from SQLite.
func (s *EventService) CleanupOldEvents(ctx context.Context) (int64, error) {
	if s.db == nil || s.cfg.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	result, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE ts < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete old events: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		s.logger.Info("cleaned up old events", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
