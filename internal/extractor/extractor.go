// Package extractor drives yt-dlp and the optional remote info API to look up
// media formats and download files into the scratch directory.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/iconidentify/dlmaster/internal/config"
	"github.com/iconidentify/dlmaster/internal/domain"
)

// maxStderrLog bounds how much extractor stderr is written to the log.
const maxStderrLog = 2048

// Extractor invokes the yt-dlp binary.
type Extractor struct {
	cfg    config.ExtractorConfig
	runner Runner
	logger *slog.Logger
}

// New creates an Extractor. A nil runner uses ExecRunner.
func New(cfg config.ExtractorConfig, runner Runner, logger *slog.Logger) *Extractor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

// Binary returns the configured extractor executable.
func (e *Extractor) Binary() string {
	return e.cfg.Binary
}

// commonArgs are passed on every invocation.
func (e *Extractor) commonArgs() []string {
	var args []string
	if e.cfg.ForceIPv4 {
		args = append(args, "--force-ipv4")
	}
	if e.cfg.UserAgent != "" {
		args = append(args, "--user-agent", e.cfg.UserAgent)
	}
	if e.cfg.NoCheckCertificates {
		args = append(args, "--no-check-certificates")
	}
	args = append(args, "--no-warnings", "--no-playlist")
	if e.cfg.CookieFile != "" {
		if st, err := os.Stat(e.cfg.CookieFile); err == nil && st.Mode().IsRegular() {
			args = append(args, "--cookies", e.cfg.CookieFile)
		}
	}
	return args
}

// InfoArgs builds the argument list for a metadata lookup.
func (e *Extractor) InfoArgs(url string) []string {
	args := e.commonArgs()
	return append(args, "--dump-json", "--quiet", "--", url)
}

// DownloadArgs builds the argument list for a download into template.
func (e *Extractor) DownloadArgs(url string, d domain.ExtractionDirective, template string) []string {
	args := e.commonArgs()
	args = append(args, "-f", d.Selector)
	if d.ExtractAudio {
		args = append(args, "-x", "--audio-format", d.AudioFormat)
	} else if d.Container != "" {
		args = append(args, "--merge-output-format", d.Container)
	}
	return append(args, "-o", template, "--", url)
}

// Info looks up metadata and formats for url.
func (e *Extractor) Info(ctx context.Context, url string) (*domain.MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.InfoTimeout)
	defer cancel()

	stdout, stderr, err := e.runner.Run(ctx, e.cfg.Binary, e.InfoArgs(url)...)
	if err != nil {
		e.logStderr("info lookup failed", url, stderr, err)
		return nil, domain.NewRequestError("lookup", url, classify(ctx, domain.ErrLookupFailed, err))
	}

	var raw rawInfo
	if err := json.Unmarshal(stdout, &raw); err != nil {
		e.logger.Warn("extractor returned invalid JSON", "url", url, "error", err)
		return nil, domain.NewRequestError("lookup", url, fmt.Errorf("%w: decode output: %v", domain.ErrLookupFailed, err))
	}

	info, err := raw.mediaInfo(false)
	if err != nil {
		return nil, domain.NewRequestError("lookup", url, err)
	}
	return info, nil
}

// Download fetches url with directive d into the output template.
func (e *Extractor) Download(ctx context.Context, url string, d domain.ExtractionDirective, template string) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.DownloadTimeout)
	defer cancel()

	_, stderr, err := e.runner.Run(ctx, e.cfg.Binary, e.DownloadArgs(url, d, template)...)
	if err != nil {
		e.logStderr("download failed", url, stderr, err)
		return domain.NewRequestError("download", url, classify(ctx, domain.ErrExecutionFailed, err))
	}
	return nil
}

func (e *Extractor) logStderr(msg, url string, stderr []byte, err error) {
	out := stderr
	if len(out) > maxStderrLog {
		out = out[len(out)-maxStderrLog:]
	}
	e.logger.Warn(msg, "url", url, "error", err, "stderr", string(out))
}

// classify wraps err under kind, adding ErrTimeout when ctx hit its deadline.
func classify(ctx context.Context, kind, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", kind, domain.ErrTimeout)
	}
	return fmt.Errorf("%w: %v", kind, err)
}
