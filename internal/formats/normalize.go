package formats

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/iconidentify/dlmaster/internal/domain"
)

const (
	// AudioToken selects the best audio stream regardless of video.
	AudioToken = "bestaudio/best"

	// AudioExt and VideoExt are the default targets offered in the menu.
	AudioExt = "mp3"
	VideoExt = "mp4"

	fallbackBase = "video"
	unknownSize  = "N/A"
)

// tier maps a minimum pixel height to its display label.
type tier struct {
	minHeight int
	label     string
}

// Ordered highest first; the first tier whose minimum is met wins.
var qualityTiers = []tier{
	{2160, "2160p (4K)"},
	{1440, "1440p (QHD)"},
	{1080, "1080p (FHD)"},
	{720, "720p (HD)"},
	{480, "480p (SD)"},
	{360, "360p"},
}

// QualityTier returns the display tier for a pixel height.
func QualityTier(height int) string {
	for _, t := range qualityTiers {
		if height >= t.minHeight {
			return t.label
		}
	}
	return strconv.Itoa(height) + "p"
}

// VideoToken returns the selection rule for a video offer capped at height.
func VideoToken(height int) string {
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
}

// FormatSize renders an approximate byte size as "~12.34 MB", or "N/A" when unknown.
func FormatSize(size *int64) string {
	if size == nil || *size <= 0 {
		return unknownSize
	}
	return fmt.Sprintf("~%.2f MB", float64(*size)/(1024*1024))
}

// Normalize builds the offer menu for a lookup result. Video offers come first,
// ordered by descending height with one offer per quality tier, followed by at
// most one audio offer. An empty listing yields an empty menu.
func Normalize(streams []domain.StreamDescriptor, title string) []domain.Offer {
	offers := make([]domain.Offer, 0, len(qualityTiers)+1)
	if len(streams) == 0 {
		return offers
	}

	base := SanitizeTitle(title)
	if base == "" {
		base = fallbackBase
	}

	offers = append(offers, videoOffers(streams, base)...)
	if audio, ok := bestAudio(streams); ok {
		offers = append(offers, audioOffer(audio, base))
	}
	return offers
}

// bestAudio picks the highest-bitrate audio-only stream. Ties keep the earlier
// stream; a missing bitrate ranks below any reported one.
func bestAudio(streams []domain.StreamDescriptor) (domain.StreamDescriptor, bool) {
	var best domain.StreamDescriptor
	found := false
	bestRate := math.Inf(-1)

	for _, s := range streams {
		if !s.AudioOnly() {
			continue
		}
		rate := math.Inf(-1)
		if s.Bitrate != nil {
			rate = *s.Bitrate
		}
		if !found || rate > bestRate {
			best, bestRate, found = s, rate, true
		}
	}
	return best, found
}

func audioOffer(s domain.StreamDescriptor, base string) domain.Offer {
	label := "Audio MP3"
	if s.Bitrate != nil && *s.Bitrate > 0 {
		label = fmt.Sprintf("Audio MP3 (%dk)", int(math.Round(*s.Bitrate)))
	}
	return domain.Offer{
		Label:         label,
		Kind:          domain.OfferKindAudio,
		Ext:           AudioExt,
		Filename:      base + "." + AudioExt,
		Filesize:      FormatSize(s.Size),
		SelectorToken: AudioToken,
		DirectURL:     s.DirectURL,
	}
}

// videoOffers visits video streams best first. Extractors list formats from
// worst to best, so source order is reversed before the stable height sort.
func videoOffers(streams []domain.StreamDescriptor, base string) []domain.Offer {
	candidates := make([]domain.StreamDescriptor, 0, len(streams))
	for i := len(streams) - 1; i >= 0; i-- {
		s := streams[i]
		if s.HasVideo && s.Height != nil && *s.Height > 0 {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].Height > *candidates[j].Height
	})

	seen := make(map[string]bool, len(qualityTiers))
	offers := make([]domain.Offer, 0, len(qualityTiers))
	for _, s := range candidates {
		height := *s.Height
		label := QualityTier(height)
		if seen[label] {
			continue
		}
		seen[label] = true

		offers = append(offers, domain.Offer{
			Label:         label,
			Kind:          domain.OfferKindVideo,
			Ext:           VideoExt,
			Filename:      fmt.Sprintf("%s_%dp.%s", base, height, VideoExt),
			Filesize:      FormatSize(s.Size),
			SelectorToken: VideoToken(height),
			Height:        height,
			DirectURL:     s.DirectURL,
		})
	}
	return offers
}
