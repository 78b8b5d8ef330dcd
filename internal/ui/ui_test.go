package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/explainer"
	"github.com/satishbabariya/querycraft/internal/core/query/lint"
	"github.com/stretchr/testify/assert"
)

func TestRowsTable(t *testing.T) {
	headers, cells := RowsTable([]domain.Row{
		domain.MakeRow("id", 1, "name", "Ada"),
		domain.MakeRow("id", 2, "city", nil, "name", "Linus"),
	})
	assert.Equal(t, []string{"id", "name", "city"}, headers)
	assert.Equal(t, [][]string{
		{"1", "Ada", "NULL"},
		{"2", "Linus", "NULL"},
	}, cells)
}

func TestExplanationMarkdown(t *testing.T) {
	md := ExplanationMarkdown([]explainer.Line{
		{Text: "Reads from the users table", Clauses: []domain.Clause{domain.ClauseFrom}},
		{Text: "Returns at most 5 rows", Clauses: []domain.Clause{domain.ClauseLimit, domain.ClauseOffset}},
	})
	assert.Equal(t, "- Reads from the users table `FROM`\n- Returns at most 5 rows `LIMIT` `OFFSET`\n", md)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Lint Hints", Title("lint hints"))
}

func TestHints(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	p := NewPrinter(&out, &out)
	p.Hints([]lint.Hint{{Code: lint.UnfilteredMutation, Severity: lint.Warning, Message: "DELETE without WHERE touches every row"}})
	assert.Equal(t, "warning [unfiltered-mutation] DELETE without WHERE touches every row\n", out.String())
}
