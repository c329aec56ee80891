package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/iconidentify/dlmaster/internal/domain"
)

// rawInfo is the subset of extractor output we read. Every field is optional.
type rawInfo struct {
	Title          *string         `json:"title"`
	Thumbnail      *string         `json:"thumbnail"`
	Duration       json.RawMessage `json:"duration"`
	DurationString *string         `json:"duration_string"`
	Uploader       *string         `json:"uploader"`
	Formats        json.RawMessage `json:"formats"`
}

type rawFormat struct {
	FormatID       string   `json:"format_id"`
	ACodec         *string  `json:"acodec"`
	VCodec         *string  `json:"vcodec"`
	Height         *float64 `json:"height"`
	Filesize       *float64 `json:"filesize"`
	FilesizeApprox *float64 `json:"filesize_approx"`
	ABR            *float64 `json:"abr"`
	TBR            *float64 `json:"tbr"`
	URL            string   `json:"url"`
}

// mediaInfo applies display defaults. withDirectURL keeps per-format URLs,
// which only the remote API resolves for client use.
func (r rawInfo) mediaInfo(withDirectURL bool) (*domain.MediaInfo, error) {
	info := &domain.MediaInfo{
		Title:    domain.DefaultTitle,
		Duration: domain.DefaultDuration,
		Uploader: domain.DefaultUploader,
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) != "" {
		info.Title = *r.Title
	}
	if r.Thumbnail != nil {
		info.Thumbnail = *r.Thumbnail
	}
	if r.Uploader != nil && *r.Uploader != "" {
		info.Uploader = *r.Uploader
	}
	if d := durationText(r.DurationString, r.Duration); d != "" {
		info.Duration = d
	}

	formats, err := r.formats()
	if err != nil {
		return nil, err
	}
	info.Streams = make([]domain.StreamDescriptor, 0, len(formats))
	for _, f := range formats {
		info.Streams = append(info.Streams, f.descriptor(withDirectURL))
	}
	return info, nil
}

func (r rawInfo) formats() ([]rawFormat, error) {
	data := bytes.TrimSpace(r.Formats)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var formats []rawFormat
	if err := json.Unmarshal(data, &formats); err != nil {
		return nil, fmt.Errorf("%w: malformed formats: %v", domain.ErrLookupFailed, err)
	}
	return formats, nil
}

func (f rawFormat) descriptor(withDirectURL bool) domain.StreamDescriptor {
	s := domain.StreamDescriptor{
		ID:       f.FormatID,
		HasAudio: f.ACodec == nil || *f.ACodec != "none",
		HasVideo: f.VCodec == nil || *f.VCodec != "none",
	}
	if f.Height != nil && *f.Height > 0 {
		s.Height = domain.IntPtr(int(*f.Height))
	}
	switch {
	case f.Filesize != nil && *f.Filesize > 0:
		s.Size = domain.Int64Ptr(int64(*f.Filesize))
	case f.FilesizeApprox != nil && *f.FilesizeApprox > 0:
		s.Size = domain.Int64Ptr(int64(*f.FilesizeApprox))
	}
	switch {
	case f.ABR != nil:
		s.Bitrate = domain.Float64Ptr(*f.ABR)
	case f.TBR != nil:
		s.Bitrate = domain.Float64Ptr(*f.TBR)
	}
	if withDirectURL {
		s.DirectURL = f.URL
	}
	return s
}

// durationText prefers the preformatted string, then a numeric or string duration.
func durationText(preformatted *string, raw json.RawMessage) string {
	if preformatted != nil && *preformatted != "" {
		return *preformatted
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err == nil {
		return FormatDuration(seconds)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return ""
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ""
	}
	total := int64(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
