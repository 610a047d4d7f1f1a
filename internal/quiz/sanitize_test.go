package quiz

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestStripControl(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\x01\x1F{}", "{}"},
		{"a\x00b\tc\nd\re", "abcde"},
		{"del\x7F", "del"},
		{"c1\u0080\u0085\u009F end", "c1 end"},
		{"keep   and é and 漢字", "keep   and é and 漢字"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripControl(tt.in); got != tt.want {
			t.Errorf("StripControl(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeTopic(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "Ancient Rome", "Ancient Rome"},
		{"trim", "  Ancient Rome \n", "Ancient Rome"},
		{"tags", "<b>Ancient</b> <i>Rome</i>", "Ancient Rome"},
		{"script body", "Rome<script>alert('x')</script>", "Rome"},
		{"style body", "<style>body{}</style>Rome", "Rome"},
		{"attribute payload", `<img src=x onerror="alert(1)">Rome`, "Rome"},
		{"ampersand", "R&D history", "R&D history"},
		{"entity", "Caf&eacute; culture", "Café culture"},
		{"encoded markup", "&lt;script&gt;alert(1)&lt;/script&gt;Rome", "Rome"},
		{"double encoded", "&amp;lt;b&amp;gt;Rome", "Rome"},
		{"less than", "1 < 2 in math", "1 < 2 in math"},
		{"quotes", `"Rome" and 'Greece'`, `"Rome" and 'Greece'`},
		{"controls", "An\x00cient\x1b Rome", "Ancient Rome"},
		{"only markup", "<script>alert(1)</script>", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTopic(tt.in); got != tt.want {
				t.Errorf("SanitizeTopic(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeTopic_Idempotent(t *testing.T) {
	inputs := []string{
		"Ancient Rome",
		"<b>bold</b> & <i>brave</i>",
		"&lt;b&gt;",
		"&amp;amp;amp;amp;amp;amp;amp;amp;amp;amp;amp;amp;lt;x&gt;",
		"a < b > c",
		"<<script>script>alert(1)<</script>/script>",
		"\x01\u0085 <p>para</p> \t",
		"&#1;&#x1F;Rome",
		"Tom &amp; Jerry",
		strings.Repeat("long topic ", 50),
		`"quoted" 'single'`,
	}
	for _, in := range inputs {
		once := SanitizeTopic(in)
		twice := SanitizeTopic(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
		if strings.ContainsAny(once, "\x00\x1f") {
			t.Errorf("control characters survive in %q", once)
		}
	}
}

func TestSanitizeTopic_Length(t *testing.T) {
	got := SanitizeTopic(strings.Repeat("é", MaxTopicLength+50))
	if n := utf8.RuneCountInString(got); n != MaxTopicLength {
		t.Errorf("expected %d runes, got %d", MaxTopicLength, n)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a rune")
	}
}
