package extractor

import (
	"context"
	"net/url"
	"strings"

	"github.com/iconidentify/dlmaster/internal/domain"
)

// InfoSource resolves a URL into media metadata.
type InfoSource interface {
	Info(ctx context.Context, url string) (*domain.MediaInfo, error)
}

// Source names reported in activity events.
const (
	SourceLocal  = "extractor"
	SourceRemote = "remote_api"
)

// Router sends lookups for configured hosts to a remote source and everything
// else to the local extractor.
type Router struct {
	local  InfoSource
	remote InfoSource
	hosts  []string
}

// NewRouter creates a Router. A nil remote or empty host list routes every lookup locally.
func NewRouter(local, remote InfoSource, hosts []string) *Router {
	return &Router{local: local, remote: remote, hosts: hosts}
}

// Pick returns the source for rawURL and its name.
func (r *Router) Pick(rawURL string) (InfoSource, string) {
	if r.remote != nil && r.matches(rawURL) {
		return r.remote, SourceRemote
	}
	return r.local, SourceLocal
}

// Info implements InfoSource.
func (r *Router) Info(ctx context.Context, rawURL string) (*domain.MediaInfo, error) {
	src, _ := r.Pick(rawURL)
	return src.Info(ctx, rawURL)
}

func (r *Router) matches(rawURL string) bool {
	if len(r.hosts) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, h := range r.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
