package worker

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/iconidentify/dlmaster/internal/domain"
	"github.com/iconidentify/dlmaster/internal/scratch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockSweeper implements Sweeper for testing.
type mockSweeper struct {
	mu     sync.Mutex
	result scratch.SweepResult
	err    error
	calls  int
	maxAge time.Duration
}

func (m *mockSweeper) Sweep(maxAge time.Duration) (scratch.SweepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.maxAge = maxAge
	return m.result, m.err
}

func (m *mockSweeper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockEmitter records emitted events.
type mockEmitter struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEmitter) Emit(e domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

func (m *mockEmitter) EmitInfo(c domain.EventCategory, source, msg string, md domain.EventMetadata) {
	m.Emit(domain.Event{Severity: domain.EventSeverityInfo, Category: c, Source: source, Message: msg, Metadata: md.ToJSON()})
}

func (m *mockEmitter) EmitError(c domain.EventCategory, source, msg string, md domain.EventMetadata) {
	m.Emit(domain.Event{Severity: domain.EventSeverityError, Category: c, Source: source, Message: msg, Metadata: md.ToJSON()})
}

func (m *mockEmitter) EmitSuccess(c domain.EventCategory, source, msg string, md domain.EventMetadata) {
	m.Emit(domain.Event{Severity: domain.EventSeveritySuccess, Category: c, Source: source, Message: msg, Metadata: md.ToJSON()})
}

func TestNewJanitor_Defaults(t *testing.T) {
	j := NewJanitor(Config{}, &mockSweeper{}, nil, testLogger())
	if j.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", j.interval)
	}
	if j.maxAge != time.Hour {
		t.Errorf("maxAge = %v, want 1h", j.maxAge)
	}
}

func TestJanitor_StartSweepsImmediately(t *testing.T) {
	sweeper := &mockSweeper{}
	j := NewJanitor(Config{Interval: time.Hour, MaxAge: 30 * time.Minute}, sweeper, nil, testLogger())

	j.Start()
	deadline := time.Now().Add(time.Second)
	for sweeper.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := j.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if sweeper.Calls() != 1 {
		t.Errorf("calls = %d, want 1", sweeper.Calls())
	}
	if sweeper.maxAge != 30*time.Minute {
		t.Errorf("maxAge = %v, want 30m", sweeper.maxAge)
	}
}

func TestJanitor_SweepsOnInterval(t *testing.T) {
	sweeper := &mockSweeper{}
	j := NewJanitor(Config{Interval: 10 * time.Millisecond}, sweeper, nil, testLogger())

	j.Start()
	time.Sleep(80 * time.Millisecond)
	if err := j.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if sweeper.Calls() < 3 {
		t.Errorf("calls = %d, want at least 3", sweeper.Calls())
	}
}

func TestJanitor_StopIsPrompt(t *testing.T) {
	j := NewJanitor(Config{Interval: time.Hour}, &mockSweeper{}, nil, testLogger())
	j.Start()

	start := time.Now()
	if err := j.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Stop() should not wait for the next tick")
	}
}

func TestJanitor_SweepOnceEmitsEvents(t *testing.T) {
	t.Run("removed files", func(t *testing.T) {
		events := &mockEmitter{}
		sweeper := &mockSweeper{result: scratch.SweepResult{Removed: 2, Bytes: 2048}}
		j := NewJanitor(Config{}, sweeper, events, testLogger())

		res := j.SweepOnce()
		if res.Removed != 2 {
			t.Errorf("Removed = %d", res.Removed)
		}
		if len(events.events) != 1 || events.events[0].Category != domain.EventCategoryCleanup {
			t.Fatalf("events = %+v", events.events)
		}
		if events.events[0].Severity != domain.EventSeverityInfo {
			t.Errorf("severity = %s", events.events[0].Severity)
		}
	})

	t.Run("nothing removed", func(t *testing.T) {
		events := &mockEmitter{}
		j := NewJanitor(Config{}, &mockSweeper{}, events, testLogger())
		j.SweepOnce()
		if len(events.events) != 0 {
			t.Errorf("idle sweep should be silent, got %d events", len(events.events))
		}
	})

	t.Run("failure", func(t *testing.T) {
		events := &mockEmitter{}
		j := NewJanitor(Config{}, &mockSweeper{err: errors.New("permission denied")}, events, testLogger())
		j.SweepOnce()
		if len(events.events) != 1 || events.events[0].Severity != domain.EventSeverityError {
			t.Errorf("events = %+v", events.events)
		}
	})
}

func TestJanitor_WithScratchDir(t *testing.T) {
	dir, err := scratch.New(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	j := NewJanitor(Config{MaxAge: time.Nanosecond}, dir, nil, testLogger())

	a := dir.Allocate("mp4")
	writeStale(t, a.ExpectedPath())

	if res := j.SweepOnce(); res.Removed != 1 {
		t.Errorf("Removed = %d, want 1", res.Removed)
	}
}

func writeStale(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("orphan"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
}
