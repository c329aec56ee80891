package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/iconidentify/dlmaster/internal/config"
	"github.com/iconidentify/dlmaster/internal/domain"
)

// maxRemoteBody caps the remote API response we are willing to decode.
const maxRemoteBody = 8 << 20

// RemoteClient looks up media info through a third-party HTTP API.
type RemoteClient struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	userAgent string
	logger    *slog.Logger
}

// NewRemoteClient creates a client for cfg.BaseURL.
func NewRemoteClient(cfg config.RemoteAPIConfig, userAgent string, logger *slog.Logger) *RemoteClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		logger:    logger,
	}
}

type remoteResponse struct {
	Status string `json:"status"`
	rawInfo
}

// Info implements InfoSource.
func (c *RemoteClient) Info(ctx context.Context, source string) (*domain.MediaInfo, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, domain.NewRequestError("remote lookup", source, fmt.Errorf("%w: bad base url: %v", domain.ErrLookupFailed, err))
	}
	q := endpoint.Query()
	q.Set("url", source)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, domain.NewRequestError("remote lookup", source, fmt.Errorf("%w: create request: %v", domain.ErrLookupFailed, err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("remote info request failed", "url", source, "error", err)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, domain.NewRequestError("remote lookup", source, fmt.Errorf("%w: %w", domain.ErrLookupFailed, domain.ErrTimeout))
		}
		return nil, domain.NewRequestError("remote lookup", source, fmt.Errorf("%w: send request: %v", domain.ErrLookupFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("remote info API returned error status", "url", source, "status", resp.StatusCode)
		return nil, domain.NewRequestError("remote lookup", source, fmt.Errorf("%w: unexpected status code: %d", domain.ErrLookupFailed, resp.StatusCode))
	}

	var body remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteBody)).Decode(&body); err != nil {
		return nil, domain.NewRequestError("remote lookup", source, fmt.Errorf("%w: decode response: %v", domain.ErrLookupFailed, err))
	}

	status := strings.ToLower(strings.TrimSpace(body.Status))
	if status != "success" && status != "ok" {
		c.logger.Warn("remote info API reported failure", "url", source, "status", body.Status)
		return nil, domain.NewRequestError("remote lookup", source, fmt.Errorf("%w: api status %q", domain.ErrLookupFailed, body.Status))
	}

	info, err := body.mediaInfo(true)
	if err != nil {
		return nil, domain.NewRequestError("remote lookup", source, err)
	}
	return info, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
