package domain

import "strings"

// OfferKind distinguishes audio and video offers.
type OfferKind string

const (
	OfferKindAudio OfferKind = "audio"
	OfferKindVideo OfferKind = "video"
)

// Offer is one user-selectable download option.
type Offer struct {
	Label         string    `json:"label"`
	Kind          OfferKind `json:"type"`
	Ext           string    `json:"ext"`
	Filename      string    `json:"filename"`
	Filesize      string    `json:"filesize"`
	SelectorToken string    `json:"selector_token"`
	Height        int       `json:"height,omitempty"`
	DirectURL     string    `json:"direct_url,omitempty"`
}

// DownloadRequest is the user's choice of offer for a source URL.
type DownloadRequest struct {
	URL           string
	SelectorToken string
	Filename      string
	Extension     string
}

// Validate checks that every field is present. The first missing field is reported.
func (r DownloadRequest) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"url", r.URL},
		{"selector_token", r.SelectorToken},
		{"filename", r.Filename},
		{"extension", r.Extension},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return MissingField(f.name)
		}
	}
	return nil
}

// ExtractionDirective is the concrete instruction handed to the extractor for a download.
type ExtractionDirective struct {
	// Selector is the stream-selection expression passed with -f.
	Selector string
	// Container forces the merged output container for video downloads.
	Container string
	// ExtractAudio requests audio extraction and transcoding to AudioFormat.
	ExtractAudio bool
	AudioFormat  string
}

// OutputExt returns the extension of the file the directive produces.
func (d ExtractionDirective) OutputExt() string {
	if d.ExtractAudio {
		return d.AudioFormat
	}
	return d.Container
}
