package formats

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iconidentify/dlmaster/internal/domain"
)

var videoTokenPattern = regexp.MustCompile(`^bestvideo\[height<=(\d{1,5})\]\+bestaudio/best\[height<=(\d{1,5})\]$`)

var audioFormats = map[string]bool{
	"mp3":  true,
	"m4a":  true,
	"opus": true,
	"aac":  true,
	"flac": true,
	"wav":  true,
}

var videoContainers = map[string]bool{
	"mp4":  true,
	"mkv":  true,
	"webm": true,
}

// IsAudioExt reports whether ext is an audio extraction target.
func IsAudioExt(ext string) bool {
	return audioFormats[normalizeExt(ext)]
}

// ParseToken validates a selector token. It returns the height cap for video
// tokens and zero for the audio token.
func ParseToken(token string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, domain.MissingField("selector_token")
	}
	if token == AudioToken {
		return 0, nil
	}

	m := videoTokenPattern.FindStringSubmatch(token)
	if m == nil || m[1] != m[2] {
		return 0, &domain.FieldError{Field: "selector_token", Reason: "is not a recognized selector"}
	}
	height, err := strconv.Atoi(m[1])
	if err != nil || height <= 0 {
		return 0, &domain.FieldError{Field: "selector_token", Reason: "has an invalid height"}
	}
	return height, nil
}

// Resolve maps a selector token and target extension to an extraction directive.
// Audio targets ignore the token's height and extract the best audio stream.
func Resolve(token, extension string) (domain.ExtractionDirective, error) {
	if _, err := ParseToken(token); err != nil {
		return domain.ExtractionDirective{}, err
	}

	ext := normalizeExt(extension)
	switch {
	case ext == "":
		return domain.ExtractionDirective{}, domain.MissingField("extension")
	case audioFormats[ext]:
		return domain.ExtractionDirective{
			Selector:     AudioToken,
			ExtractAudio: true,
			AudioFormat:  ext,
		}, nil
	case videoContainers[ext]:
		return domain.ExtractionDirective{
			Selector:  strings.TrimSpace(token),
			Container: ext,
		}, nil
	default:
		return domain.ExtractionDirective{}, &domain.FieldError{
			Field:  "extension",
			Reason: fmt.Sprintf("%q is not supported", extension),
		}
	}
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
