package formats

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxTitleLength bounds the sanitized filename base, in runes.
const MaxTitleLength = 100

// SanitizeTitle reduces a media title to letters, numbers, spaces, hyphens and
// underscores, truncated to MaxTitleLength runes with trailing whitespace removed.
// The result is NFC and SanitizeTitle(SanitizeTitle(s)) == SanitizeTitle(s).
func SanitizeTitle(title string) string {
	// Compose first so accented letters survive as single runes instead of a
	// base letter followed by a dropped combining mark.
	title = norm.NFC.String(title)

	kept := make([]rune, 0, len(title))
	for _, r := range title {
		if allowedRune(r) {
			kept = append(kept, r)
		}
	}

	// Dropping a rune can bring composable neighbours together.
	kept = []rune(norm.NFC.String(string(kept)))
	if len(kept) > MaxTitleLength {
		kept = kept[:MaxTitleLength]
	}
	return strings.TrimRightFunc(string(kept), unicode.IsSpace)
}

func allowedRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '-' || r == '_'
}
