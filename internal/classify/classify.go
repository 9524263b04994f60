// Package classify decides, per message text, which enrichment path the
// dispatcher takes. Pure functions, no side effects.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Path is the enrichment path chosen for a message.
type Path int

const (
	Empty Path = iota
	URL
	LongText
	ShortText
)

func (p Path) String() string {
	switch p {
	case Empty:
		return "empty"
	case URL:
		return "url"
	case LongText:
		return "long"
	case ShortText:
		return "short"
	}
	return "unknown"
}

// LongTextThreshold is the inclusive upper bound for a short message:
// 128 characters is still short, 129 is long.
const LongTextThreshold = 128

// urlPattern matches scheme://host style URLs anywhere in the text.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

// commandPrefix matches a leading bot command token like "/s" or
// "/s@botname".
var commandPrefix = regexp.MustCompile(`^/[A-Za-z0-9_]+(?:@\S+)?\s*`)

// Classify inspects the text and returns the enrichment path. Any
// leading command token is stripped first so "/s https://x.y" and
// "https://x.y" classify the same way. Length is measured in runes.
func Classify(text string) Path {
	t := strings.TrimSpace(StripCommand(text))
	if t == "" {
		return Empty
	}
	if urlPattern.MatchString(t) {
		return URL
	}
	if utf8.RuneCountInString(t) > LongTextThreshold {
		return LongText
	}
	return ShortText
}

// FirstURL returns the first URL occurring in the text, or "" if none.
// When a message carries several URLs only the first is extracted; the
// full original text is still audited.
func FirstURL(text string) string {
	return urlPattern.FindString(text)
}

// IsURL reports whether the trimmed text starts with an http(s) URL,
// i.e. the message is the URL rather than merely containing one.
func IsURL(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://")
}

// StripCommand removes a leading "/cmd" token, if present.
func StripCommand(text string) string {
	return commandPrefix.ReplaceAllString(strings.TrimSpace(text), "")
}
