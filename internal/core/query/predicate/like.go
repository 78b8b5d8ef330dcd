package predicate

import (
	"regexp"
	"strings"
)

// LikePattern translates a SQL LIKE pattern into an anchored regular
// expression: % matches any run of characters and _ exactly one. Matching is
// case-sensitive and covers the whole value.
func LikePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.MustCompile(b.String())
}

// Like reports whether s matches the LIKE pattern.
func Like(s, pattern string) bool {
	return LikePattern(pattern).MatchString(s)
}
