// Package compiler renders a query state as SQL text.
//
// Rendering is total: partial states produce whatever is currently true,
// including syntactically incomplete previews, and an empty string when
// there is nothing to show yet.
package compiler

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/value"
)

// Statement is a rendered statement together with the clauses it contains,
// in emission order.
type Statement struct {
	SQL     string          `json:"sql"`
	Clauses []domain.Clause `json:"clauses"`
}

// Empty reports whether nothing was rendered.
func (s Statement) Empty() bool {
	return s.SQL == ""
}

// ClauseSet returns the emitted clauses as a set.
func (s Statement) ClauseSet() domain.ClauseSet {
	return domain.NewClauseSet(s.Clauses...)
}

// Compile renders state as single-line SQL.
func Compile(state domain.State) string {
	return Render(state).SQL
}

// Render renders state and reports the clauses it emitted.
func Render(state domain.State) Statement {
	if !state.HasTable() {
		return Statement{}
	}
	b := &builder{}
	switch state.Type() {
	case domain.Insert:
		renderInsert(b, state)
	case domain.Update:
		renderUpdate(b, state)
	case domain.Delete:
		renderDelete(b, state)
	default:
		if !HasProjection(state) {
			return Statement{}
		}
		renderSelect(b, state)
	}
	return b.statement()
}

// HasProjection reports whether a SELECT has anything selected.
func HasProjection(state domain.State) bool {
	return state.HasProjection()
}

type builder struct {
	parts   []string
	clauses []domain.Clause
}

func (b *builder) add(clause domain.Clause, text string) {
	b.parts = append(b.parts, text)
	if len(b.clauses) == 0 || b.clauses[len(b.clauses)-1] != clause {
		b.clauses = append(b.clauses, clause)
	}
}

func (b *builder) statement() Statement {
	return Statement{SQL: strings.Join(b.parts, " "), Clauses: b.clauses}
}

func renderSelect(b *builder, state domain.State) {
	head := "SELECT"
	if state.Distinct {
		head += " DISTINCT"
	}
	b.add(domain.ClauseSelect, head+" "+strings.Join(Projection(state), ", "))
	b.add(domain.ClauseFrom, "FROM "+table(state))

	for _, j := range state.ActiveJoins() {
		b.add(domain.ClauseJoin, renderJoin(j))
	}
	renderWhere(b, state)

	if cols := state.ActiveGroupBy(); len(cols) > 0 {
		b.add(domain.ClauseGroupBy, "GROUP BY "+strings.Join(cols, ", "))
	}

	if having := state.ActiveHaving(); len(having) > 0 {
		items := make([]string, len(having))
		for i, h := range having {
			items[i] = link(i, h.Conjunction, RenderPredicate(HavingOperand(h), h.Operator, h.Value))
		}
		b.add(domain.ClauseHaving, "HAVING "+strings.Join(items, " "))
	}

	if keys := state.ActiveOrderBy(); len(keys) > 0 {
		items := make([]string, len(keys))
		for i, o := range keys {
			items[i] = fmt.Sprintf("%s %s", strings.TrimSpace(o.Column), o.Direction.Normalize())
		}
		b.add(domain.ClauseOrderBy, "ORDER BY "+strings.Join(items, ", "))
	}

	if n, ok := state.LimitValue(); ok {
		b.add(domain.ClauseLimit, fmt.Sprintf("LIMIT %d", n))
	}
	if n, ok := state.OffsetValue(); ok {
		b.add(domain.ClauseOffset, fmt.Sprintf("OFFSET %d", n))
	}
}

func renderInsert(b *builder, state domain.State) {
	cols := state.InsertColumns()
	vals := make([]string, len(cols))
	for i, c := range cols {
		if v, ok := state.InsertValues[c]; ok {
			vals[i] = value.FormatLiteral(v)
		} else {
			vals[i] = "NULL"
		}
	}
	b.add(domain.ClauseInsert, fmt.Sprintf("INSERT INTO %s (%s)", table(state), strings.Join(cols, ", ")))
	b.add(domain.ClauseValues, fmt.Sprintf("VALUES (%s)", strings.Join(vals, ", ")))
}

func renderUpdate(b *builder, state domain.State) {
	b.add(domain.ClauseUpdate, "UPDATE "+table(state))
	if assigns := state.Assignments(); len(assigns) > 0 {
		items := make([]string, len(assigns))
		for i, a := range assigns {
			items[i] = fmt.Sprintf("%s = %s", a.Column, value.FormatLiteral(a.Value))
		}
		b.add(domain.ClauseAssign, "SET "+strings.Join(items, ", "))
	}
	renderWhere(b, state)
}

func renderDelete(b *builder, state domain.State) {
	b.add(domain.ClauseDelete, "DELETE FROM "+table(state))
	renderWhere(b, state)
}

func renderWhere(b *builder, state domain.State) {
	conds := state.ActiveConditions()
	if len(conds) == 0 {
		return
	}
	items := make([]string, len(conds))
	for i, c := range conds {
		items[i] = link(i, c.Conjunction, RenderPredicate(strings.TrimSpace(c.Column), c.Operator, c.Value))
	}
	b.add(domain.ClauseWhere, "WHERE "+strings.Join(items, " "))
}

// link prefixes every item after the first with its conjunction.
func link(i int, conj domain.Conjunction, text string) string {
	if i == 0 {
		return text
	}
	return string(conj.Normalize()) + " " + text
}

func table(state domain.State) string {
	return strings.TrimSpace(state.Table)
}

// Projection returns the SELECT list: columns first, then aggregates.
// Wildcard aggregates other than COUNT are left out. An empty list falls back
// to *.
func Projection(state domain.State) []string {
	items := state.ActiveColumns()
	for _, a := range state.ActiveAggregates() {
		items = append(items, RenderAggregate(a))
	}
	if len(items) == 0 {
		return []string{"*"}
	}
	return items
}

// RenderAggregate renders FUNC(column) AS alias. Unknown function names are
// kept as written.
func RenderAggregate(a domain.Aggregate) string {
	col := strings.TrimSpace(a.Column)
	if a.IsWildcard() {
		col = domain.Wildcard
	}
	out := fmt.Sprintf("%s(%s)", a.Function.Normalize(), col)
	if alias := strings.TrimSpace(a.Alias); alias != "" {
		out += " AS " + alias
	}
	return out
}

// HavingOperand renders the FUNC(column) left side of a HAVING item.
func HavingOperand(h domain.HavingCondition) string {
	col := strings.TrimSpace(h.Column)
	if col == "" {
		col = domain.Wildcard
	}
	return fmt.Sprintf("%s(%s)", h.Function.Normalize(), col)
}

// RenderPredicate renders left op value. IS NULL and IS NOT NULL take no
// value, IN and NOT IN take a parenthesised list, and unknown operators are
// written verbatim.
func RenderPredicate(left string, op domain.Operator, raw string) string {
	op = op.Normalize()
	switch {
	case !op.TakesValue():
		return fmt.Sprintf("%s %s", left, op)
	case op.IsList():
		return fmt.Sprintf("%s %s %s", left, op, value.FormatList(raw))
	default:
		return fmt.Sprintf("%s %s %s", left, op, value.FormatLiteral(raw))
	}
}

func renderJoin(j domain.Join) string {
	out := fmt.Sprintf("%s JOIN %s", j.Type.Normalize(), strings.TrimSpace(j.Table))
	left, right := strings.TrimSpace(j.OnLeft), strings.TrimSpace(j.OnRight)
	if left != "" && right != "" {
		out += fmt.Sprintf(" ON %s = %s", left, right)
	}
	return out
}
