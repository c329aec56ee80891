package handler

import (
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/dlmaster/internal/service"
)

var startTime = time.Now()

// ScratchProbe reports on the scratch directory.
type ScratchProbe interface {
	Path() string
	Writable() error
	Usage() (files int, bytes int64, err error)
}

// EventStatser reports event buffer statistics.
type EventStatser interface {
	Stats() service.EventStats
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	scratch  ScratchProbe
	binary   string
	events   EventStatser
	lookPath func(string) (string, error)
}

// NewHealthHandler creates a new health handler. events may be nil.
func NewHealthHandler(scratch ScratchProbe, extractorBinary string, events EventStatser) *HealthHandler {
	return &HealthHandler{
		scratch:  scratch,
		binary:   extractorBinary,
		events:   events,
		lookPath: exec.LookPath,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe. The scratch directory must be
// writable and the extractor binary resolvable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"scratch":   "ok",
		"extractor": "ok",
	}
	healthy := true

	if err := h.scratch.Writable(); err != nil {
		checks["scratch"] = err.Error()
		healthy = false
	}
	if _, err := h.lookPath(h.binary); err != nil {
		checks["extractor"] = fmt.Sprintf("%s not found", h.binary)
		healthy = false
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "error", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// SystemStats contains runtime and scratch directory statistics.
type SystemStats struct {
	Uptime         int64               `json:"uptime_seconds"`
	UptimeHuman    string              `json:"uptime_human"`
	MemAllocMB     int64               `json:"mem_alloc_mb"`
	MemSysMB       int64               `json:"mem_sys_mb"`
	NumGoroutines  int                 `json:"num_goroutines"`
	NumCPU         int                 `json:"num_cpu"`
	ScratchPath    string              `json:"scratch_path"`
	ScratchFiles   int                 `json:"scratch_files"`
	ScratchBytes   int64               `json:"scratch_bytes"`
	ScratchHuman   string              `json:"scratch_human"`
	DiskTotalBytes int64               `json:"disk_total_bytes"`
	DiskFreeBytes  int64               `json:"disk_free_bytes"`
	DiskFreeHuman  string              `json:"disk_free_human"`
	DiskUsedPct    float64             `json:"disk_used_pct"`
	Events         *service.EventStats `json:"events,omitempty"`
}

// Stats handles GET /api/v1/stats - system statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)
	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		ScratchPath:   h.scratch.Path(),
	}

	if files, bytes, err := h.scratch.Usage(); err == nil {
		stats.ScratchFiles = files
		stats.ScratchBytes = bytes
		stats.ScratchHuman = humanize.Bytes(uint64(bytes))
	}

	total, free := getDiskStats(h.scratch.Path())
	stats.DiskTotalBytes = total
	stats.DiskFreeBytes = free
	stats.DiskFreeHuman = humanize.Bytes(uint64(free))
	if total > 0 {
		stats.DiskUsedPct = float64(total-free) / float64(total) * 100
	}

	if h.events != nil {
		es := h.events.Stats()
		stats.Events = &es
	}

	writeJSON(w, http.StatusOK, stats)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

