// Package lint reports advisory hints about a query state. Hints never block
// compilation: the compiler and the engine stay total and the linter points
// out combinations that are legal to render but likely wrong.
package lint

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/value"
	"github.com/xwb1989/sqlparser"
)

// Severity grades a hint.
type Severity string

const (
	Info    Severity = "info"
	Warning Severity = "warning"
)

// Code identifies the kind of a hint.
type Code string

const (
	MissingTable         Code = "missing-table"
	EmptyProjection      Code = "empty-projection"
	HavingWithoutGroupBy Code = "having-without-group-by"
	UngroupedColumn      Code = "ungrouped-column"
	WildcardAggregate    Code = "wildcard-aggregate"
	UnknownAggregate     Code = "unknown-aggregate"
	UnknownOperator      Code = "unknown-operator"
	EmptyInList          Code = "empty-in-list"
	JoinMissingOn        Code = "join-missing-on"
	UnfilteredMutation   Code = "unfiltered-mutation"
	OffsetWithoutLimit   Code = "offset-without-limit"
	NegativePagination   Code = "negative-pagination"
	Syntax               Code = "syntax"
)

// Hint is one advisory finding.
type Hint struct {
	Code     Code          `json:"code"`
	Severity Severity      `json:"severity"`
	Clause   domain.Clause `json:"clause,omitempty"`
	Message  string        `json:"message"`
}

func (h Hint) String() string {
	return fmt.Sprintf("%s [%s] %s", h.Severity, h.Code, h.Message)
}

// Lint inspects state and returns its hints in clause order.
func Lint(state domain.State) []Hint {
	l := &linter{}
	if !state.HasTable() {
		l.add(MissingTable, Info, domain.ClauseFrom, "choose a table to start the query")
		return l.hints
	}

	switch state.Type() {
	case domain.Select:
		lintSelect(l, state)
	case domain.Update:
		lintConditions(l, state)
		if len(state.ActiveConditions()) == 0 {
			l.add(UnfilteredMutation, Warning, domain.ClauseUpdate, "UPDATE without WHERE changes every row")
		}
	case domain.Delete:
		lintConditions(l, state)
		if len(state.ActiveConditions()) == 0 {
			l.add(UnfilteredMutation, Warning, domain.ClauseDelete, "DELETE without WHERE removes every row")
		}
	}
	lintPagination(l, state)
	lintSyntax(l, state)
	return l.hints
}

type linter struct {
	hints []Hint
}

func (l *linter) add(code Code, sev Severity, clause domain.Clause, format string, args ...any) {
	l.hints = append(l.hints, Hint{Code: code, Severity: sev, Clause: clause, Message: fmt.Sprintf(format, args...)})
}

func lintSelect(l *linter, state domain.State) {
	if !compiler.HasProjection(state) {
		l.add(EmptyProjection, Info, domain.ClauseSelect, "select at least one column or aggregate")
		return
	}

	for _, a := range state.Aggregates {
		fn := a.Function.Normalize()
		switch {
		case fn == "":
			l.add(UnknownAggregate, Warning, domain.ClauseSelect, "aggregate over %q has no function and is left out", a.Column)
		case a.IsWildcard() && fn != domain.Count:
			l.add(WildcardAggregate, Warning, domain.ClauseSelect, "%s(*) is only valid for COUNT and is left out", fn)
		case !fn.Known():
			l.add(UnknownAggregate, Warning, domain.ClauseSelect, "unknown aggregate function %s is rendered as written", fn)
		}
	}

	for _, j := range state.ActiveJoins() {
		if strings.TrimSpace(j.OnLeft) == "" || strings.TrimSpace(j.OnRight) == "" {
			l.add(JoinMissingOn, Warning, domain.ClauseJoin, "join with %s has no ON condition", strings.TrimSpace(j.Table))
		}
	}

	lintConditions(l, state)

	grouped := make(map[string]bool)
	for _, c := range state.ActiveGroupBy() {
		grouped[c] = true
	}
	if len(state.ActiveAggregates()) > 0 {
		for _, c := range state.ActiveColumns() {
			if !grouped[c] {
				l.add(UngroupedColumn, Warning, domain.ClauseSelect, "column %s is selected beside an aggregate but not grouped", c)
			}
		}
	}

	having := state.ActiveHaving()
	if len(having) > 0 && len(grouped) == 0 {
		l.add(HavingWithoutGroupBy, Warning, domain.ClauseHaving, "HAVING without GROUP BY filters a single group")
	}
	for _, h := range having {
		if !h.Function.Known() {
			l.add(UnknownAggregate, Warning, domain.ClauseHaving, "unknown aggregate function %s in HAVING", h.Function.Normalize())
		}
		lintOperator(l, domain.ClauseHaving, compiler.HavingOperand(h), h.Operator, h.Value)
	}
}

func lintConditions(l *linter, state domain.State) {
	for _, c := range state.ActiveConditions() {
		lintOperator(l, domain.ClauseWhere, strings.TrimSpace(c.Column), c.Operator, c.Value)
	}
}

func lintOperator(l *linter, clause domain.Clause, left string, op domain.Operator, raw string) {
	switch {
	case !op.Known():
		l.add(UnknownOperator, Warning, clause, "operator %s on %s is not supported and matches no rows in the preview", op.Normalize(), left)
	case op.IsList() && len(value.SplitList(raw)) == 0:
		l.add(EmptyInList, Warning, clause, "%s %s has an empty list", left, op.Normalize())
	}
}

func lintPagination(l *linter, state domain.State) {
	if (state.Limit != nil && *state.Limit < 0) || (state.Offset != nil && *state.Offset < 0) {
		l.add(NegativePagination, Info, domain.ClauseLimit, "negative LIMIT or OFFSET is ignored")
	}
	if state.Type() != domain.Select {
		return
	}
	_, hasLimit := state.LimitValue()
	if off, ok := state.OffsetValue(); ok && off > 0 && !hasLimit {
		l.add(OffsetWithoutLimit, Info, domain.ClauseOffset, "OFFSET without LIMIT is not portable across databases")
	}
}

func lintSyntax(l *linter, state domain.State) {
	sql := compiler.Compile(state)
	if sql == "" {
		return
	}
	if _, err := sqlparser.Parse(sql); err != nil {
		l.add(Syntax, Warning, "", "generated SQL does not parse yet: %v", err)
	}
}

// HasWarnings reports whether any hint is a warning.
func HasWarnings(hints []Hint) bool {
	for _, h := range hints {
		if h.Severity == Warning {
			return true
		}
	}
	return false
}
