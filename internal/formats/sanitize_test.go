package formats

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"punctuation stripped", "My Video! #1", "My Video 1"},
		{"keeps hyphen and underscore", "a-b_c", "a-b_c"},
		{"trailing whitespace", "Song title   ", "Song title"},
		{"trailing punctuation leaves no space", "Live @ Venue !!", "Live  Venue"},
		{"unicode letters", "Café Müller 東京", "Café Müller 東京"},
		{"decomposed accent is composed", "Cafe\u0301", "Caf\u00e9"},
		{"only symbols", "!!!???", ""},
		{"empty", "", ""},
		{"slashes removed", "../../etc/passwd", "etcpasswd"},
		{"numeric characters kept", "Track ½ feat. X²", "Track ½ feat X²"},
		{"roman numeral kept", "Part Ⅻ", "Part Ⅻ"},
		{"jamo brought together compose", "\u1100!\u1161 clip", "\uac00 clip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.title); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSanitizeTitle_Truncates(t *testing.T) {
	long := strings.Repeat("abcdefghij", 15)
	got := SanitizeTitle(long)
	if utf8.RuneCountInString(got) != MaxTitleLength {
		t.Errorf("length = %d, want %d", utf8.RuneCountInString(got), MaxTitleLength)
	}

	// A space landing on the cut point must not survive as trailing whitespace.
	spaced := strings.Repeat("a", 99) + " tail"
	got = SanitizeTitle(spaced)
	if got != strings.Repeat("a", 99) {
		t.Errorf("SanitizeTitle() = %q, want 99 a's", got)
	}
}

func TestSanitizeTitle_Properties(t *testing.T) {
	inputs := []string{
		"My Video! #1",
		"  leading and trailing  ",
		strings.Repeat("x y ", 60),
		"Ünïcödé — title (official video) [4K]",
		"tabs\tand\nnewlines",
		"emoji 🎵 music 🎶",
		strings.Repeat("é", 120),
		"\u1100!\u1161 clip",
		"\u1100?\u1161#\u11a8 x",
		"Track ½ ²³",
	}

	for _, in := range inputs {
		once := SanitizeTitle(in)
		if twice := SanitizeTitle(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if n := utf8.RuneCountInString(once); n > MaxTitleLength {
			t.Errorf("SanitizeTitle(%q) has %d runes", in, n)
		}
		for _, r := range once {
			if !(unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '-' || r == '_') {
				t.Errorf("SanitizeTitle(%q) kept disallowed rune %q", in, r)
			}
		}
		if !norm.NFC.IsNormalString(once) {
			t.Errorf("SanitizeTitle(%q) = %q is not NFC", in, once)
		}
		if strings.TrimRight(once, " ") != once {
			t.Errorf("SanitizeTitle(%q) = %q has trailing space", in, once)
		}
	}
}
