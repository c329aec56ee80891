// Package worker runs background maintenance for the server.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/dlmaster/internal/domain"
	"github.com/iconidentify/dlmaster/internal/scratch"
)

// ErrShutdownTimeout is returned when the janitor doesn't stop within timeout.
var ErrShutdownTimeout = errors.New("janitor shutdown timed out")

// Sweeper removes files older than a maximum age.
type Sweeper interface {
	Sweep(maxAge time.Duration) (scratch.SweepResult, error)
}

// Config holds janitor configuration.
type Config struct {
	Interval time.Duration
	MaxAge   time.Duration
}

// Janitor periodically removes scratch artifacts orphaned by crashed or
// interrupted requests.
type Janitor struct {
	interval time.Duration
	maxAge   time.Duration
	sweeper  Sweeper
	events   domain.EventEmitter
	logger   *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewJanitor creates a new janitor. events may be nil.
func NewJanitor(cfg Config, sweeper Sweeper, events domain.EventEmitter, logger *slog.Logger) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Janitor{
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		sweeper:  sweeper,
		events:   events,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs an immediate sweep and then one per interval.
func (j *Janitor) Start() {
	j.logger.Info("starting scratch janitor", "interval", j.interval, "max_age", j.maxAge)

	j.wg.Add(1)
	go j.run()
}

// Stop gracefully stops the janitor.
func (j *Janitor) Stop(timeout time.Duration) error {
	j.logger.Info("stopping scratch janitor")
	j.cancel()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("scratch janitor stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (j *Janitor) run() {
	defer j.wg.Done()

	j.SweepOnce()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}

// SweepOnce performs a single sweep.
func (j *Janitor) SweepOnce() scratch.SweepResult {
	res, err := j.sweeper.Sweep(j.maxAge)
	if err != nil {
		j.logger.Error("scratch sweep failed", "error", err)
		if j.events != nil {
			j.events.EmitError(domain.EventCategoryCleanup, "janitor", "Scratch sweep failed: "+err.Error(), nil)
		}
		return res
	}

	if res.Removed == 0 && res.Failed == 0 {
		j.logger.Debug("scratch sweep found nothing to remove")
		return res
	}

	j.logger.Info("removed stale scratch files",
		"files", res.Removed,
		"freed", humanize.Bytes(uint64(res.Bytes)),
		"failed", res.Failed,
	)
	if j.events != nil {
		j.events.EmitInfo(domain.EventCategoryCleanup, "janitor", "Removed stale scratch files", domain.EventMetadata{
			"files":  res.Removed,
			"bytes":  res.Bytes,
			"failed": res.Failed,
		})
	}
	return res
}
