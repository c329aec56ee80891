// Package scratch manages per-request temporary artifacts produced by the
// extractor. Every artifact is named by a fresh UUID so concurrent requests
// never share a file.
package scratch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/iconidentify/dlmaster/internal/domain"
)

// Dir is a handle on the scratch directory.
type Dir struct {
	path   string
	logger *slog.Logger
}

// New creates the directory if needed and returns a handle on it.
func New(path string, logger *slog.Logger) (*Dir, error) {
	if path == "" {
		return nil, fmt.Errorf("scratch path is empty")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dir{path: path, logger: logger}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Allocate reserves a new artifact name with the expected extension.
// Nothing is created on disk.
func (d *Dir) Allocate(ext string) *Artifact {
	return &Artifact{
		dir: d,
		id:  uuid.NewString(),
		ext: strings.TrimPrefix(ext, "."),
	}
}

// Artifact is one request's output file and any partial files the extractor
// leaves beside it.
type Artifact struct {
	dir *Dir
	id  string
	ext string
}

// ID returns the unique artifact name stem.
func (a *Artifact) ID() string {
	return a.id
}

// Template returns the extractor output template for this artifact.
func (a *Artifact) Template() string {
	return filepath.Join(a.dir.path, a.id+".%(ext)s")
}

// ExpectedPath is where the artifact lands when the extractor honors the requested extension.
func (a *Artifact) ExpectedPath() string {
	return filepath.Join(a.dir.path, a.id+"."+a.ext)
}

// Locate returns the finished output file. The expected extension is preferred;
// otherwise the first complete file sharing the artifact id is used.
func (a *Artifact) Locate() (string, error) {
	if st, err := os.Stat(a.ExpectedPath()); err == nil && st.Mode().IsRegular() {
		return a.ExpectedPath(), nil
	}

	matches, err := a.files()
	if err != nil {
		return "", err
	}
	sort.Strings(matches)
	for _, m := range matches {
		if isPartial(m) {
			continue
		}
		if st, err := os.Stat(m); err == nil && st.Mode().IsRegular() {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrArtifactMissing, a.id)
}

// Cleanup removes every file belonging to the artifact. Failures are logged
// and swallowed.
func (a *Artifact) Cleanup() {
	matches, err := a.files()
	if err != nil {
		a.dir.logger.Warn("scratch cleanup listing failed", "artifact", a.id, "error", err)
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			a.dir.logger.Warn("scratch cleanup failed", "path", m, "error", err)
		}
	}
}

// Open opens the located artifact for streaming. Closing the returned file
// deletes the artifact.
func (a *Artifact) Open() (*File, error) {
	path, err := a.Locate()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		a.Cleanup()
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrArtifactMissing, filepath.Base(path), err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		a.Cleanup()
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	return &File{File: f, artifact: a, size: st.Size()}, nil
}

// files lists the paths in the scratch directory whose names start with the
// artifact id. The path may contain glob metacharacters, so no Glob here.
func (a *Artifact) files() ([]string, error) {
	entries, err := os.ReadDir(a.dir.path)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), a.id) {
			matches = append(matches, filepath.Join(a.dir.path, e.Name()))
		}
	}
	return matches, nil
}

func isPartial(path string) bool {
	return strings.HasSuffix(path, ".part") ||
		strings.HasSuffix(path, ".ytdl") ||
		strings.Contains(filepath.Base(path), ".part-Frag")
}

// File is an open artifact that deletes itself on Close.
type File struct {
	*os.File
	artifact *Artifact
	size     int64
	closed   bool
}

// Size returns the artifact size in bytes at open time.
func (f *File) Size() int64 {
	return f.size
}

// Ext returns the extension of the file on disk, without the dot.
func (f *File) Ext() string {
	return strings.TrimPrefix(filepath.Ext(f.File.Name()), ".")
}

// Close closes the file and removes the artifact. It is safe to call more than once.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	err := f.File.Close()
	f.artifact.Cleanup()
	return err
}
