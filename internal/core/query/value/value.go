// Package value renders raw operand strings as SQL literals and reads them
// back as typed cells.
package value

import (
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
)

// IsNumeric reports whether s, ignoring surrounding spaces, reads as a number.
func IsNumeric(s string) bool {
	_, ok := domain.ParseNumber(s)
	return ok
}

// IsBoolean reports whether s is true or false in any case.
func IsBoolean(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

// FormatLiteral renders raw as a SQL literal. Numbers are emitted bare,
// booleans as TRUE or FALSE, and anything else single-quoted with embedded
// quotes doubled.
func FormatLiteral(raw string) string {
	trimmed := strings.TrimSpace(raw)
	switch {
	case IsNumeric(trimmed):
		return trimmed
	case IsBoolean(trimmed):
		return strings.ToUpper(trimmed)
	default:
		return Quote(raw)
	}
}

// Quote wraps s in single quotes, doubling any quote inside.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// SplitList splits a comma-separated operand, trimming items and dropping
// empty ones.
func SplitList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// FormatList renders a comma-separated operand as a parenthesised literal
// list. An operand with no items renders as ().
func FormatList(raw string) string {
	items := SplitList(raw)
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = FormatLiteral(item)
	}
	return "(" + strings.Join(out, ", ") + ")"
}

// ParseLiteral reads raw the way FormatLiteral would render it: numbers and
// booleans become typed cells, everything else a string or timestamp.
func ParseLiteral(raw string) domain.Value {
	trimmed := strings.TrimSpace(raw)
	if d, ok := domain.ParseNumber(trimmed); ok {
		return domain.NumberValue(d)
	}
	if IsBoolean(trimmed) {
		return domain.BoolValue(strings.EqualFold(trimmed, "true"))
	}
	return domain.InferString(raw)
}
