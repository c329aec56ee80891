package domain

// StreamDescriptor is one encoding variant reported by the extractor for a source URL.
// Optional attributes are nil when the extractor did not report them.
type StreamDescriptor struct {
	ID       string
	HasAudio bool
	HasVideo bool
	Height   *int
	Size     *int64
	Bitrate  *float64

	// DirectURL is set when a remote info API already resolved a fetchable link.
	DirectURL string
}

// AudioOnly reports whether the stream carries audio and no video.
func (s StreamDescriptor) AudioOnly() bool {
	return s.HasAudio && !s.HasVideo
}

// MediaInfo is the normalized metadata returned by an info lookup.
type MediaInfo struct {
	Title     string
	Thumbnail string
	Duration  string
	Uploader  string
	Streams   []StreamDescriptor
}

// Display defaults for MediaInfo fields the source did not report.
const (
	DefaultTitle    = "No Title"
	DefaultDuration = "N/A"
	DefaultUploader = "N/A"
)

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }
