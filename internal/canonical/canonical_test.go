package canonical

import (
	"regexp"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	const want = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short link", "https://youtu.be/dQw4w9WgXcQ", want},
		{"short link with share param", "https://youtu.be/dQw4w9WgXcQ?si=abcdef", want},
		{"short link without scheme", "youtu.be/dQw4w9WgXcQ", want},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", want},
		{"shorts with feature param", "https://youtube.com/shorts/dQw4w9WgXcQ?feature=share", want},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", want},
		{"nocookie embed", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ?start=5", want},
		{"live", "https://www.youtube.com/live/dQw4w9WgXcQ", want},
		{"mobile watch", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", want},
		{"music watch with list", "https://music.youtube.com/watch?list=RD&v=dQw4w9WgXcQ&t=1", want},
		{"surrounding whitespace", "  https://youtu.be/dQw4w9WgXcQ\n", want},
		{"canonical unchanged", want, want},
		{"canonical with extra params unchanged", want + "&t=42", want + "&t=42"},
		{"other platform unchanged", "https://www.tiktok.com/@user/video/123", "https://www.tiktok.com/@user/video/123"},
		{"short id unchanged", "https://youtu.be/abc", "https://youtu.be/abc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.in); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/live/dQw4w9WgXcQ?si=x",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://vimeo.com/123456",
		"not a url at all",
	}

	for _, in := range inputs {
		once := Canonicalize(in)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestEachRuleIndependently(t *testing.T) {
	samples := map[string]string{
		"youtu.be short link":           "https://youtu.be/aaaaaaaaaaa",
		"youtube shorts":                "https://youtube.com/shorts/aaaaaaaaaaa",
		"youtube embed":                 "https://youtube.com/embed/aaaaaaaaaaa",
		"youtube live":                  "https://youtube.com/live/aaaaaaaaaaa",
		"youtube mobile or music watch": "https://m.youtube.com/watch?v=aaaaaaaaaaa",
	}

	for _, rule := range DefaultRules {
		sample, ok := samples[rule.Name]
		if !ok {
			t.Errorf("rule %q has no sample", rule.Name)
			continue
		}
		c := New([]Rule{rule})
		if got := c.Canonicalize(sample); got != youtubeWatch+"aaaaaaaaaaa" {
			t.Errorf("rule %q: Canonicalize(%q) = %q", rule.Name, sample, got)
		}
	}
}

func TestNew_CustomRules(t *testing.T) {
	c := New([]Rule{{
		Name:    "vm.tiktok",
		Pattern: regexp.MustCompile(`^https://vm\.tiktok\.com/(\w+)/?$`),
		Rewrite: func(m []string) string { return "https://www.tiktok.com/t/" + m[1] },
	}})

	if got := c.Canonicalize("https://vm.tiktok.com/ZMabc/"); got != "https://www.tiktok.com/t/ZMabc" {
		t.Errorf("Canonicalize() = %q", got)
	}
	if got := c.Canonicalize("https://youtu.be/dQw4w9WgXcQ"); got != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("custom rule set should not apply default rules, got %q", got)
	}
}
