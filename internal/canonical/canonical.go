// Package canonical rewrites equivalent media URL shapes into the one shape
// the extractor resolves reliably.
package canonical

import (
	"regexp"
	"strings"
)

// Rule rewrites URLs matching Pattern. Rewrite receives the submatches.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Rewrite func(m []string) string
}

const youtubeWatch = "https://www.youtube.com/watch?v="

// youtubeID matches an 11 character video id.
const youtubeID = `([A-Za-z0-9_-]{11})`

func watchURL(m []string) string {
	return youtubeWatch + m[1]
}

// DefaultRules is evaluated in order; the first match wins.
var DefaultRules = []Rule{
	{
		Name:    "youtu.be short link",
		Pattern: regexp.MustCompile(`^(?i:https?://)?(?i:www\.)?youtu\.be/` + youtubeID + `(?:[?&#/].*)?$`),
		Rewrite: watchURL,
	},
	{
		Name:    "youtube shorts",
		Pattern: regexp.MustCompile(`^(?i:https?://)?(?i:(?:www|m)\.)?youtube\.com/shorts/` + youtubeID + `(?:[?&#/].*)?$`),
		Rewrite: watchURL,
	},
	{
		Name:    "youtube embed",
		Pattern: regexp.MustCompile(`^(?i:https?://)?(?i:(?:www|m)\.)?youtube(?:-nocookie)?\.com/embed/` + youtubeID + `(?:[?&#/].*)?$`),
		Rewrite: watchURL,
	},
	{
		Name:    "youtube live",
		Pattern: regexp.MustCompile(`^(?i:https?://)?(?i:(?:www|m)\.)?youtube\.com/live/` + youtubeID + `(?:[?&#/].*)?$`),
		Rewrite: watchURL,
	},
	{
		Name:    "youtube mobile or music watch",
		Pattern: regexp.MustCompile(`^(?i:https?://)?(?i:m|music)\.youtube\.com/watch\?(?:.*&)?v=` + youtubeID + `(?:[&#].*)?$`),
		Rewrite: watchURL,
	},
}

// Canonicalizer applies an ordered rule set.
type Canonicalizer struct {
	rules []Rule
}

// New creates a canonicalizer over rules. A nil slice uses DefaultRules.
func New(rules []Rule) *Canonicalizer {
	if rules == nil {
		rules = DefaultRules
	}
	return &Canonicalizer{rules: rules}
}

// Canonicalize returns the canonical form of raw, or raw trimmed of
// surrounding space when no rule matches.
func (c *Canonicalizer) Canonicalize(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, r := range c.rules {
		if m := r.Pattern.FindStringSubmatch(raw); m != nil {
			return r.Rewrite(m)
		}
	}
	return raw
}

var defaultCanonicalizer = New(nil)

// Canonicalize rewrites raw using DefaultRules.
func Canonicalize(raw string) string {
	return defaultCanonicalizer.Canonicalize(raw)
}
