// Package explainer describes a query state in plain English, one line per
// clause, in the order the compiler emits them.
package explainer

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/value"
)

// Line is one sentence of an explanation and the clauses it covers.
type Line struct {
	Clauses []domain.Clause `json:"clauses"`
	Text    string          `json:"text"`
}

// Explain returns the explanation as a multi-line string. It is empty
// exactly when the compiler renders nothing.
func Explain(state domain.State) string {
	lines := Describe(state)
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// Describe returns the explanation lines. The union of their clause tags is
// the clause set the compiler emits for the same state.
func Describe(state domain.State) []Line {
	if !state.HasTable() {
		return nil
	}
	d := &describer{}
	switch state.Type() {
	case domain.Insert:
		describeInsert(d, state)
	case domain.Update:
		describeUpdate(d, state)
	case domain.Delete:
		describeDelete(d, state)
	default:
		if !compiler.HasProjection(state) {
			return nil
		}
		describeSelect(d, state)
	}
	return d.lines
}

// Clauses returns the union of the clause tags of lines.
func Clauses(lines []Line) domain.ClauseSet {
	set := domain.NewClauseSet()
	for _, l := range lines {
		for _, c := range l.Clauses {
			set[c] = struct{}{}
		}
	}
	return set
}

type describer struct {
	lines []Line
}

func (d *describer) add(text string, clauses ...domain.Clause) {
	d.lines = append(d.lines, Line{Clauses: clauses, Text: text})
}

func describeSelect(d *describer, state domain.State) {
	verb := "Selects"
	if state.Distinct {
		verb = "Selects distinct combinations of"
	}
	d.add(fmt.Sprintf("%s %s", verb, projection(state)), domain.ClauseSelect)
	d.add(fmt.Sprintf("Reads from the %s table", strings.TrimSpace(state.Table)), domain.ClauseFrom)

	for _, j := range state.ActiveJoins() {
		d.add(joinLine(j), domain.ClauseJoin)
	}
	if conds := state.ActiveConditions(); len(conds) > 0 {
		d.add("Filters rows where "+conditions(conds), domain.ClauseWhere)
	}
	if cols := state.ActiveGroupBy(); len(cols) > 0 {
		d.add("Groups rows by "+list(cols), domain.ClauseGroupBy)
	}
	if having := state.ActiveHaving(); len(having) > 0 {
		items := make([]string, len(having))
		for i, h := range having {
			subject := aggregatePhrase(domain.Aggregate{Function: h.Function, Column: h.Column})
			items[i] = link(i, h.Conjunction, predicate(subject, h.Operator, h.Value))
		}
		d.add("Keeps only groups where "+strings.Join(items, " "), domain.ClauseHaving)
	}
	if keys := state.ActiveOrderBy(); len(keys) > 0 {
		items := make([]string, len(keys))
		for i, o := range keys {
			dir := "ascending"
			if o.Direction.Normalize() == domain.Desc {
				dir = "descending"
			}
			items[i] = fmt.Sprintf("%s %s", strings.TrimSpace(o.Column), dir)
		}
		d.add("Sorts by "+strings.Join(items, ", then "), domain.ClauseOrderBy)
	}

	limit, hasLimit := state.LimitValue()
	offset, hasOffset := state.OffsetValue()
	switch {
	case hasLimit && hasOffset:
		d.add(fmt.Sprintf("Returns at most %s starting from row %d", rows(limit), offset), domain.ClauseLimit, domain.ClauseOffset)
	case hasLimit:
		d.add(fmt.Sprintf("Returns at most %s", rows(limit)), domain.ClauseLimit)
	case hasOffset:
		d.add(fmt.Sprintf("Skips the first %s", rows(offset)), domain.ClauseOffset)
	}
}

func describeInsert(d *describer, state domain.State) {
	cols := state.InsertColumns()
	table := strings.TrimSpace(state.Table)
	if len(cols) == 0 {
		d.add(fmt.Sprintf("Inserts one row into %s with no values yet", table), domain.ClauseInsert, domain.ClauseValues)
		return
	}
	items := make([]string, len(cols))
	for i, c := range cols {
		lit := "NULL"
		if v, ok := state.InsertValues[c]; ok {
			lit = value.FormatLiteral(v)
		}
		items[i] = fmt.Sprintf("%s to %s", c, lit)
	}
	d.add(fmt.Sprintf("Inserts one row into %s, setting %s", table, list(items)), domain.ClauseInsert, domain.ClauseValues)
}

func describeUpdate(d *describer, state domain.State) {
	table := strings.TrimSpace(state.Table)
	scope := "every row of"
	if len(state.ActiveConditions()) > 0 {
		scope = "matching rows of"
	}
	assigns := state.Assignments()
	if len(assigns) == 0 {
		d.add(fmt.Sprintf("Updates %s %s, but no values are set yet", scope, table), domain.ClauseUpdate)
	} else {
		items := make([]string, len(assigns))
		for i, a := range assigns {
			items[i] = fmt.Sprintf("%s to %s", a.Column, value.FormatLiteral(a.Value))
		}
		d.add(fmt.Sprintf("Updates %s %s, setting %s", scope, table, list(items)), domain.ClauseUpdate, domain.ClauseAssign)
	}
	if conds := state.ActiveConditions(); len(conds) > 0 {
		d.add("Only rows where "+conditions(conds), domain.ClauseWhere)
	}
}

func describeDelete(d *describer, state domain.State) {
	table := strings.TrimSpace(state.Table)
	conds := state.ActiveConditions()
	if len(conds) == 0 {
		d.add(fmt.Sprintf("Deletes every row from %s", table), domain.ClauseDelete)
		return
	}
	d.add(fmt.Sprintf("Deletes rows from %s", table), domain.ClauseDelete)
	d.add("Only rows where "+conditions(conds), domain.ClauseWhere)
}

func projection(state domain.State) string {
	var items []string
	items = append(items, state.ActiveColumns()...)
	for _, a := range state.ActiveAggregates() {
		phrase := aggregatePhrase(a)
		if alias := strings.TrimSpace(a.Alias); alias != "" {
			phrase += " as " + alias
		}
		items = append(items, phrase)
	}
	if len(items) == 0 {
		return "all columns"
	}
	return list(items)
}

func aggregatePhrase(a domain.Aggregate) string {
	col := strings.TrimSpace(a.Column)
	fn := a.Function.Normalize()
	if a.IsWildcard() {
		if fn == domain.Count {
			return "the number of rows"
		}
		col = domain.Wildcard
	}
	switch fn {
	case domain.Count:
		return fmt.Sprintf("the number of %s values", col)
	case domain.Sum:
		return "the sum of " + col
	case domain.Avg:
		return "the average of " + col
	case domain.Min:
		return "the smallest " + col
	case domain.Max:
		return "the largest " + col
	default:
		return fmt.Sprintf("%s(%s)", fn, col)
	}
}

func joinLine(j domain.Join) string {
	kind := strings.ToLower(string(j.Type.Normalize()))
	table := strings.TrimSpace(j.Table)
	left, right := strings.TrimSpace(j.OnLeft), strings.TrimSpace(j.OnRight)
	if left == "" || right == "" {
		return fmt.Sprintf("Joins %s (%s join) without a join condition", table, kind)
	}
	return fmt.Sprintf("Joins %s (%s join) matching %s to %s", table, kind, left, right)
}

func conditions(conds []domain.Condition) string {
	items := make([]string, len(conds))
	for i, c := range conds {
		items[i] = link(i, c.Conjunction, predicate(strings.TrimSpace(c.Column), c.Operator, c.Value))
	}
	return strings.Join(items, " ")
}

func link(i int, conj domain.Conjunction, text string) string {
	if i == 0 {
		return text
	}
	return strings.ToLower(string(conj.Normalize())) + " " + text
}

func predicate(subject string, op domain.Operator, raw string) string {
	op = op.Normalize()
	switch op {
	case domain.Eq:
		return fmt.Sprintf("%s is %s", subject, value.FormatLiteral(raw))
	case domain.NotEq:
		return fmt.Sprintf("%s is not %s", subject, value.FormatLiteral(raw))
	case domain.Gt:
		return fmt.Sprintf("%s is greater than %s", subject, value.FormatLiteral(raw))
	case domain.Lt:
		return fmt.Sprintf("%s is less than %s", subject, value.FormatLiteral(raw))
	case domain.Gte:
		return fmt.Sprintf("%s is at least %s", subject, value.FormatLiteral(raw))
	case domain.Lte:
		return fmt.Sprintf("%s is at most %s", subject, value.FormatLiteral(raw))
	case domain.Like:
		return fmt.Sprintf("%s matches the pattern %s", subject, value.Quote(raw))
	case domain.In:
		return fmt.Sprintf("%s is one of %s", subject, value.FormatList(raw))
	case domain.NotIn:
		return fmt.Sprintf("%s is none of %s", subject, value.FormatList(raw))
	case domain.IsNull:
		return fmt.Sprintf("%s is empty", subject)
	case domain.IsNotNull:
		return fmt.Sprintf("%s is present", subject)
	default:
		return fmt.Sprintf("%s satisfies %s %s", subject, op, value.FormatLiteral(raw))
	}
}

// list joins items as "a", "a and b" or "a, b and c".
func list(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func rows(n int) string {
	noun := "row"
	if n != 1 {
		noun = inflect.Pluralize(noun)
	}
	return fmt.Sprintf("%d %s", n, noun)
}
