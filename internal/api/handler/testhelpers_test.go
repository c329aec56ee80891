package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/iconidentify/dlmaster/internal/domain"
	"github.com/iconidentify/dlmaster/internal/scratch"
	"github.com/iconidentify/dlmaster/internal/service"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockMediaService is a test implementation of MediaService.
type mockMediaService struct {
	info    *service.InfoResult
	infoErr error
	gotURL  string

	dl      *service.Download
	dlErr   error
	gotReq  domain.DownloadRequest
	dlCalls int
}

func (m *mockMediaService) FetchInfo(ctx context.Context, rawURL string) (*service.InfoResult, error) {
	m.gotURL = rawURL
	return m.info, m.infoErr
}

func (m *mockMediaService) Download(ctx context.Context, req domain.DownloadRequest) (*service.Download, error) {
	m.dlCalls++
	m.gotReq = req
	if m.dlErr != nil {
		return nil, m.dlErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return m.dl, nil
}

// newArtifact writes content into a fresh scratch artifact and opens it.
func newArtifact(t *testing.T, ext, content string) (*scratch.Dir, *scratch.File) {
	t.Helper()
	dir, err := scratch.New(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	a := dir.Allocate(ext)
	if err := os.WriteFile(a.ExpectedPath(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := a.Open()
	if err != nil {
		t.Fatal(err)
	}
	return dir, f
}

func scratchEmpty(t *testing.T, dir *scratch.Dir) bool {
	t.Helper()
	files, _, err := dir.Usage()
	if err != nil {
		t.Fatal(err)
	}
	return files == 0
}

// failingWriter accepts headers and the first write, then fails like a
// disconnected client.
type failingWriter struct {
	header http.Header
	status int
	writes int
}

func (f *failingWriter) Header() http.Header {
	if f.header == nil {
		f.header = make(http.Header)
	}
	return f.header
}

func (f *failingWriter) WriteHeader(code int) { f.status = code }

func (f *failingWriter) Write(b []byte) (int, error) {
	f.writes++
	if f.writes > 1 {
		return 0, errors.New("broken pipe")
	}
	return len(b) / 2, errors.New("connection reset by peer")
}

// mockScratch implements ScratchProbe.
type mockScratch struct {
	path       string
	writable   error
	files      int
	bytes      int64
	usageError error
}

func (m *mockScratch) Path() string    { return m.path }
func (m *mockScratch) Writable() error { return m.writable }
func (m *mockScratch) Usage() (int, int64, error) {
	return m.files, m.bytes, m.usageError
}

// mockEventStore implements EventStore and EventStatser.
type mockEventStore struct {
	recent     []domain.Event
	historical []domain.Event
	histErr    error
	gotFilter  domain.EventFilter
	gotLimit   int
	usedHist   bool
	stats      service.EventStats
}

func (m *mockEventStore) Recent(filter domain.EventFilter, limit int) []domain.Event {
	m.gotFilter, m.gotLimit = filter, limit
	return m.recent
}

func (m *mockEventStore) Historical(ctx context.Context, filter domain.EventFilter, limit int) ([]domain.Event, error) {
	m.gotFilter, m.gotLimit, m.usedHist = filter, limit, true
	return m.historical, m.histErr
}

func (m *mockEventStore) Stats() service.EventStats { return m.stats }
