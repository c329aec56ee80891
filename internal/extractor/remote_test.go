package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iconidentify/dlmaster/internal/config"
	"github.com/iconidentify/dlmaster/internal/domain"
)

func newRemote(t *testing.T, handler http.HandlerFunc) *RemoteClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemoteClient(config.RemoteAPIConfig{
		BaseURL: srv.URL + "/info",
		APIKey:  "secret",
		Timeout: time.Second,
	}, "TestAgent/1.0", testLogger())
}

func TestRemoteClient_Info(t *testing.T) {
	var gotQuery, gotKey, gotUA string
	c := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("url")
		gotKey = r.Header.Get("X-API-Key")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "SUCCESS",
			"title": "Remote Title",
			"thumbnail": "https://i/t.jpg",
			"duration": "4:01",
			"formats": [
				{"format_id": "22", "height": 720, "url": "https://cdn/22"},
				{"format_id": "140", "vcodec": "none", "abr": 128, "url": "https://cdn/140"}
			]
		}`))
	})

	info, err := c.Info(context.Background(), "https://youtube.com/watch?v=abc")
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if gotQuery != "https://youtube.com/watch?v=abc" {
		t.Errorf("url query = %q", gotQuery)
	}
	if gotKey != "secret" || gotUA != "TestAgent/1.0" {
		t.Errorf("headers: key=%q ua=%q", gotKey, gotUA)
	}
	if info.Title != "Remote Title" || info.Duration != "4:01" || info.Uploader != domain.DefaultUploader {
		t.Errorf("info = %+v", info)
	}
	if len(info.Streams) != 2 || info.Streams[0].DirectURL != "https://cdn/22" {
		t.Errorf("streams = %+v", info.Streams)
	}
	if !info.Streams[1].AudioOnly() {
		t.Errorf("second stream should be audio only: %+v", info.Streams[1])
	}
}

func TestRemoteClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		}},
		{"error status", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"error","message":"nope"}`))
		}},
		{"missing status", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"title":"x"}`))
		}},
		{"formats wrong type", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok","formats":{}}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newRemote(t, tt.handler)
			if _, err := c.Info(context.Background(), "https://youtu.be/x"); !errors.Is(err, domain.ErrLookupFailed) {
				t.Errorf("Info() error = %v, want ErrLookupFailed", err)
			}
		})
	}
}

func TestRemoteClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewRemoteClient(config.RemoteAPIConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, "", testLogger())
	_, err := c.Info(context.Background(), "https://youtu.be/x")
	if !errors.Is(err, domain.ErrLookupFailed) || !errors.Is(err, domain.ErrTimeout) {
		t.Errorf("Info() error = %v, want ErrLookupFailed and ErrTimeout", err)
	}
}
