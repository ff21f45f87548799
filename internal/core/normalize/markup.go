package normalize

import (
	"regexp"
	"strings"

	"github.com/k3a/html2text"
	"golang.org/x/net/html"
)

var (
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	bracketedRe   = regexp.MustCompile(`>([^<>]*)<`)
	userSegmentRe = regexp.MustCompile(`<span>\(<a[^>]*>.*?</a>\)</span>`)
	dismissedRe   = regexp.MustCompile(`(?i)<br\s*/?>\s*<span class="dismissed">[^<]*</span>`)
)

// Decode resolves HTML character references (&#x434;, &amp;, &nbsp;)
func Decode(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(s)
}

// StripTags removes markup tags and leaves their text content
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// PlainText renders a cell to readable text: entities decoded, tags removed,
// line breaks and runs of whitespace folded to single spaces
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return collapseSpaces(html2text.HTML2Text(Sanitize(s)))
}

// DropUserSegment removes the inline "(<a ...>user</a>)" parenthetical that
// the results page appends to the name of the player who closed a level
func DropUserSegment(s string) string {
	return userSegmentRe.ReplaceAllString(s, "")
}

// DropDismissed removes the "level dismissed" marker span and its line break
func DropDismissed(s string) string {
	return dismissedRe.ReplaceAllString(s, "")
}

// FirstBracketed returns the first text found between '>' and '<'
func FirstBracketed(s string) string {
	m := bracketedRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// LastBracketed returns the last text found between '>' and '<'
func LastBracketed(s string) string {
	all := bracketedRe.FindAllStringSubmatch(s, -1)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1][1]
}

// IntAfter returns the decimal integer right after the first occurrence of key
// (e.g. "tid=" in a link), or 0 when key is absent or not followed by digits
func IntAfter(s, key string) int {
	i := strings.Index(s, key)
	if i < 0 {
		return 0
	}
	n := 0
	for _, c := range []byte(s[i+len(key):]) {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// After returns the part of s after the first occurrence of anchor, or "" when absent
func After(s, anchor string) string {
	_, rest, ok := strings.Cut(s, anchor)
	if !ok {
		return ""
	}
	return rest
}
