package paragraph

import (
	"regexp"
	"strings"
)

var (
	// ![alt] with no nested closing bracket.
	imageLinkPattern = regexp.MustCompile(`!\[[^\]]*\]`)

	// (http...) up to the next closing parenthesis.
	urlPattern = regexp.MustCompile(`\(http[^)]*\)`)

	// a line made of dashes only, e.g. a horizontal rule.
	dashLinePattern = regexp.MustCompile(`^-+$`)
)

// Clean converts a raw paragraph into a single utterance. Every line has
// image links and parenthesized URLs removed, dash-only lines are dropped,
// and the remaining lines are joined with commas unless they already end a
// clause. A trailing comma is stripped.
func Clean(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		cleaned := cleanLine(line)
		if cleaned == "" {
			continue
		}
		b.WriteString(cleaned)
		if !endsClause(cleaned) {
			b.WriteByte(',')
		}
	}
	return strings.TrimSuffix(b.String(), ",")
}

func cleanLine(line string) string {
	line = removeImageLinks(line)
	line = removeURLs(line)
	return removeDashLine(line)
}

func removeImageLinks(s string) string {
	return imageLinkPattern.ReplaceAllString(s, "")
}

func removeURLs(s string) string {
	return urlPattern.ReplaceAllString(s, "")
}

func removeDashLine(s string) string {
	return dashLinePattern.ReplaceAllString(s, "")
}

func endsClause(s string) bool {
	return strings.HasSuffix(s, ",") ||
		strings.HasSuffix(s, ".") ||
		strings.HasSuffix(s, "?")
}
