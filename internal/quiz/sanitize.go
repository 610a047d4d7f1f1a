package quiz

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxTopicLength bounds a sanitized topic, in runes.
const MaxTopicLength = 200

// maxSanitizePasses bounds the fixed-point loop in SanitizeTopic. Each pass
// peels one layer of entity encoding, so real input settles in two or three.
const maxSanitizePasses = 8

var strictPolicy = bluemonday.StrictPolicy()

// StripControl removes C0 and C1 control characters (U+0000-U+001F and
// U+007F-U+009F). Everything else, including non-ASCII text, is kept.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= 0x1F || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, s)
}

// SanitizeTopic reduces a user-supplied topic to plain text: markup is
// removed (script and style bodies included), entities are decoded, control
// characters are dropped and surrounding whitespace is trimmed.
//
// The result is a fixed point: SanitizeTopic(SanitizeTopic(s)) equals
// SanitizeTopic(s).
func SanitizeTopic(s string) string {
	cur := truncateRunes(sanitizePass(s), MaxTopicLength)
	for range maxSanitizePasses {
		next := truncateRunes(sanitizePass(cur), MaxTopicLength)
		if next == cur {
			return cur
		}
		cur = next
	}
	// Pathologically nested encodings: drop the markup characters outright.
	cur = strings.NewReplacer("<", "", ">", "", "&", "").Replace(cur)
	return strings.TrimSpace(cur)
}

func sanitizePass(s string) string {
	s = strictPolicy.Sanitize(StripControl(s))
	s = html.UnescapeString(s)
	return strings.TrimSpace(StripControl(s))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}
