package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SweepResult summarises one pass over the scratch directory.
type SweepResult struct {
	Removed int
	Bytes   int64
	Failed  int
}

// Sweep deletes regular files whose modification time is older than maxAge.
// Files that cannot be removed are counted and logged.
func (d *Dir) Sweep(maxAge time.Duration) (SweepResult, error) {
	var res SweepResult

	entries, err := os.ReadDir(d.path)
	if err != nil {
		return res, fmt.Errorf("read scratch directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(d.path, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				res.Failed++
				d.logger.Warn("failed to remove stale scratch file", "path", path, "error", err)
			}
			continue
		}
		res.Removed++
		res.Bytes += info.Size()
	}
	return res, nil
}

// Usage reports the number of files and total bytes currently in the directory.
func (d *Dir) Usage() (files int, bytes int64, err error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, 0, fmt.Errorf("read scratch directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if info, err := entry.Info(); err == nil {
			files++
			bytes += info.Size()
		}
	}
	return files, bytes, nil
}

// Writable reports whether a file can be created in the directory.
func (d *Dir) Writable() error {
	f, err := os.CreateTemp(d.path, ".probe-*")
	if err != nil {
		return fmt.Errorf("scratch directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
