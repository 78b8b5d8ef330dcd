package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/explainer"
	"github.com/satishbabariya/querycraft/internal/core/query/lint"
)

// NullText is how NULL cells print.
const NullText = "NULL"

// RowsTable flattens rows into table headers and cells. Headers are the
// union of row columns in first-seen order.
func RowsTable(rows []domain.Row) ([]string, [][]string) {
	var headers []string
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, c := range r.Columns() {
			if !seen[c] {
				seen[c] = true
				headers = append(headers, c)
			}
		}
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		line := make([]string, len(headers))
		for j, h := range headers {
			v, ok := r.Get(h)
			if !ok || v.IsNull() {
				line[j] = NullText
				continue
			}
			line[j] = v.String()
		}
		cells[i] = line
	}
	return headers, cells
}

// Rows prints rows as a table, or a note when there are none.
func (p *Printer) Rows(rows []domain.Row) error {
	if len(rows) == 0 {
		p.Muted("(no rows)")
		return nil
	}
	headers, cells := RowsTable(rows)
	return p.Table(headers, cells)
}

// ExplanationMarkdown renders explanation lines as a markdown list tagged
// with their clauses.
func ExplanationMarkdown(lines []explainer.Line) string {
	var b strings.Builder
	for _, l := range lines {
		tags := make([]string, len(l.Clauses))
		for i, c := range l.Clauses {
			tags[i] = "`" + string(c) + "`"
		}
		fmt.Fprintf(&b, "- %s %s\n", l.Text, strings.Join(tags, " "))
	}
	return b.String()
}

// Explanation prints explanation lines through glamour, falling back to
// plain text when rendering fails.
func (p *Printer) Explanation(lines []explainer.Line) {
	if len(lines) == 0 {
		p.Muted("(nothing to explain yet)")
		return
	}
	md := ExplanationMarkdown(lines)
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Fprint(p.Out, out)
			return
		}
	}
	fmt.Fprint(p.Out, md)
}

// Hints prints lint hints, warnings in yellow and info in cyan.
func (p *Printer) Hints(hints []lint.Hint) {
	if len(hints) == 0 {
		p.Success("no hints")
		return
	}
	for _, h := range hints {
		c := infoColor
		if h.Severity == lint.Warning {
			c = warningColor
		}
		c.Fprintf(p.Out, "%-7s", h.Severity)
		fmt.Fprintf(p.Out, " [%s] %s\n", h.Code, h.Message)
	}
}
