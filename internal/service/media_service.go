package service

import (
	"context"
	"log/slog"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/dlmaster/internal/canonical"
	"github.com/iconidentify/dlmaster/internal/domain"
	"github.com/iconidentify/dlmaster/internal/extractor"
	"github.com/iconidentify/dlmaster/internal/formats"
	"github.com/iconidentify/dlmaster/internal/scratch"
)

// SourcePicker chooses the info source for a URL.
type SourcePicker interface {
	Pick(rawURL string) (extractor.InfoSource, string)
}

// Downloader runs a download into an output template.
type Downloader interface {
	Download(ctx context.Context, url string, d domain.ExtractionDirective, template string) error
}

// InfoResult is the response to an info lookup.
type InfoResult struct {
	Title       string         `json:"title"`
	Thumbnail   string         `json:"thumbnail"`
	Duration    string         `json:"duration"`
	Uploader    string         `json:"uploader"`
	Formats     []domain.Offer `json:"formats"`
	OriginalURL string         `json:"original_url"`
}

// Download is a ready-to-stream artifact. Closing File deletes it.
type Download struct {
	File        *scratch.File
	Filename    string
	ContentType string
	Size        int64
}

// MediaService orchestrates info lookups and downloads.
type MediaService struct {
	sources       SourcePicker
	downloader    Downloader
	scratch       *scratch.Dir
	canonicalizer *canonical.Canonicalizer
	events        domain.EventEmitter
	logger        *slog.Logger
}

// NewMediaService creates a new media service. events may be nil.
func NewMediaService(
	sources SourcePicker,
	dl Downloader,
	dir *scratch.Dir,
	canon *canonical.Canonicalizer,
	events domain.EventEmitter,
	logger *slog.Logger,
) *MediaService {
	if canon == nil {
		canon = canonical.New(nil)
	}
	return &MediaService{
		sources:       sources,
		downloader:    dl,
		scratch:       dir,
		canonicalizer: canon,
		events:        events,
		logger:        logger,
	}
}

// FetchInfo resolves rawURL into display metadata and a menu of offers.
func (s *MediaService) FetchInfo(ctx context.Context, rawURL string) (*InfoResult, error) {
	source, err := s.normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	src, name := s.sources.Pick(source)
	logger := s.logger.With("url", source, "source", name)
	start := time.Now()

	info, err := src.Info(ctx, source)
	if err != nil {
		logger.Warn("info lookup failed", "error", err, "duration", time.Since(start))
		s.emitError(domain.EventCategoryLookup, name, "Lookup failed for "+hostOf(source), nil)
		return nil, err
	}

	offers := formats.Normalize(info.Streams, info.Title)
	logger.Info("info lookup complete",
		"title", info.Title,
		"streams", len(info.Streams),
		"offers", len(offers),
		"duration", time.Since(start),
	)
	s.emitInfo(domain.EventCategoryLookup, name, "Looked up "+hostOf(source), domain.EventMetadata{
		"offers": len(offers),
	})

	return &InfoResult{
		Title:       info.Title,
		Thumbnail:   info.Thumbnail,
		Duration:    info.Duration,
		Uploader:    info.Uploader,
		Formats:     offers,
		OriginalURL: source,
	}, nil
}

// Download fetches the requested offer into a scratch artifact and opens it.
// The caller must Close the returned file; closing deletes the artifact.
func (s *MediaService) Download(ctx context.Context, req domain.DownloadRequest) (*Download, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	directive, err := formats.Resolve(req.SelectorToken, req.Extension)
	if err != nil {
		return nil, err
	}
	source, err := s.normalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	artifact := s.scratch.Allocate(directive.OutputExt())
	logger := s.logger.With("url", source, "artifact", artifact.ID(), "selector", directive.Selector)
	start := time.Now()

	if err := s.downloader.Download(ctx, source, directive, artifact.Template()); err != nil {
		artifact.Cleanup()
		logger.Error("download failed", "error", err, "duration", time.Since(start))
		s.emitError(domain.EventCategoryDownload, extractor.SourceLocal, "Download failed for "+hostOf(source), nil)
		return nil, err
	}

	f, err := artifact.Open()
	if err != nil {
		artifact.Cleanup()
		logger.Error("downloaded artifact unavailable", "error", err)
		s.emitError(domain.EventCategoryDownload, extractor.SourceLocal, "Download produced no file for "+hostOf(source), nil)
		return nil, domain.NewRequestError("download", source, err)
	}

	logger.Info("download ready",
		"size", humanize.Bytes(uint64(f.Size())),
		"ext", f.Ext(),
		"duration", time.Since(start),
	)
	s.emitSuccess(domain.EventCategoryDownload, extractor.SourceLocal, "Downloaded "+req.Filename, domain.EventMetadata{
		"bytes": f.Size(),
		"ext":   f.Ext(),
	})

	return &Download{
		File:        f,
		Filename:    strings.TrimSpace(req.Filename),
		ContentType: ContentType(f.Ext()),
		Size:        f.Size(),
	}, nil
}

// normalizeURL checks that raw is an absolute http(s) URL and canonicalizes it.
func (s *MediaService) normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.MissingField("url")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &domain.FieldError{Field: "url", Reason: "must be an http or https URL"}
	}
	return s.canonicalizer.Canonicalize(raw), nil
}

var mediaTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"opus": "audio/ogg",
	"flac": "audio/flac",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
}

// ContentType returns the media type for a file extension.
func ContentType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Hostname()
	}
	return raw
}

func (s *MediaService) emitInfo(c domain.EventCategory, source, msg string, md domain.EventMetadata) {
	if s.events != nil {
		s.events.EmitInfo(c, source, msg, md)
	}
}

func (s *MediaService) emitError(c domain.EventCategory, source, msg string, md domain.EventMetadata) {
	if s.events != nil {
		s.events.EmitError(c, source, msg, md)
	}
}

func (s *MediaService) emitSuccess(c domain.EventCategory, source, msg string, md domain.EventMetadata) {
	if s.events != nil {
		s.events.EmitSuccess(c, source, msg, md)
	}
}
