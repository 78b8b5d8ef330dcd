// Package condparse reads WHERE and HAVING conditions typed as text into the
// structured predicate lists of a query state, and writes them back.
package condparse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/value"
)

// ErrFunctionInWhere is returned when a WHERE condition calls a function.
var ErrFunctionInWhere = errors.New("functions are not allowed in WHERE conditions")

// ErrMissingFunction is returned when a HAVING condition is not an aggregate
// call.
var ErrMissingFunction = errors.New("HAVING conditions must apply an aggregate function")

// SyntaxError reports where condition text stopped parsing.
type SyntaxError struct {
	Input  string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// ParseWhere parses text into WHERE conditions. Blank text yields no
// conditions.
func ParseWhere(text string) ([]domain.Condition, error) {
	terms, err := parse(text)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Condition, 0, len(terms))
	for _, t := range terms {
		if t.call != nil {
			return nil, fmt.Errorf("%s(...): %w", t.name, ErrFunctionInWhere)
		}
		out = append(out, domain.Condition{
			Column:      t.name,
			Operator:    t.op,
			Value:       t.value,
			Conjunction: t.conj,
		})
	}
	return out, nil
}

// ParseHaving parses text into HAVING conditions such as COUNT(*) > 1.
func ParseHaving(text string) ([]domain.HavingCondition, error) {
	terms, err := parse(text)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HavingCondition, 0, len(terms))
	for _, t := range terms {
		if t.call == nil {
			return nil, fmt.Errorf("%s: %w", t.name, ErrMissingFunction)
		}
		col := t.call.Arg
		if col == "" {
			col = domain.Wildcard
		}
		out = append(out, domain.HavingCondition{
			Function:    domain.AggregateFunc(t.name).Normalize(),
			Column:      col,
			Operator:    t.op,
			Value:       t.value,
			Conjunction: t.conj,
		})
	}
	return out, nil
}

type flatTerm struct {
	name  string
	call  *call
	op    domain.Operator
	value string
	conj  domain.Conjunction
}

func parse(text string) ([]flatTerm, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	ast, err := parser.ParseString("", text)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			pos := perr.Position()
			return nil, &SyntaxError{Input: text, Line: pos.Line, Column: pos.Column, Msg: perr.Message()}
		}
		return nil, &SyntaxError{Input: text, Msg: err.Error()}
	}

	terms := []flatTerm{flatten(ast.Head, domain.And)}
	for _, l := range ast.Tail {
		terms = append(terms, flatten(l.Term, domain.Conjunction(l.Conj).Normalize()))
	}
	return terms, nil
}

func flatten(t *term, conj domain.Conjunction) flatTerm {
	ft := flatTerm{name: t.Target.Name, call: t.Target.Call, conj: conj}
	switch {
	case t.Test.Null != nil:
		ft.op = domain.IsNull
		if t.Test.Null.Not {
			ft.op = domain.IsNotNull
		}
	case t.Test.List != nil:
		ft.op = domain.In
		if t.Test.List.Not {
			ft.op = domain.NotIn
		}
		items := make([]string, len(t.Test.List.Items))
		for i, item := range t.Test.List.Items {
			items[i] = item.text()
		}
		ft.value = strings.Join(items, ", ")
	case t.Test.Like != nil:
		ft.op = domain.Like
		ft.value = t.Test.Like.Pattern.text()
	case t.Test.Cmp != nil:
		ft.op = domain.Operator(t.Test.Cmp.Op).Normalize()
		ft.value = t.Test.Cmp.Value.text()
	}
	return ft
}

func (l *literal) text() string {
	switch {
	case l.String != nil:
		s := *l.String
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	case l.Number != nil:
		return *l.Number
	case l.Word != nil:
		return *l.Word
	default:
		return ""
	}
}

// FormatWhere renders conditions as text ParseWhere reads back.
func FormatWhere(conds []domain.Condition) string {
	items := make([]string, 0, len(conds))
	for i, c := range conds {
		items = append(items, linked(i, c.Conjunction, formatTest(strings.TrimSpace(c.Column), c.Operator, c.Value)))
	}
	return strings.Join(items, " ")
}

// FormatHaving renders HAVING conditions as text ParseHaving reads back.
func FormatHaving(conds []domain.HavingCondition) string {
	items := make([]string, 0, len(conds))
	for i, h := range conds {
		col := strings.TrimSpace(h.Column)
		if col == "" {
			col = domain.Wildcard
		}
		left := fmt.Sprintf("%s(%s)", h.Function.Normalize(), col)
		items = append(items, linked(i, h.Conjunction, formatTest(left, h.Operator, h.Value)))
	}
	return strings.Join(items, " ")
}

func linked(i int, conj domain.Conjunction, text string) string {
	if i == 0 {
		return text
	}
	return string(conj.Normalize()) + " " + text
}

func formatTest(left string, op domain.Operator, raw string) string {
	op = op.Normalize()
	switch {
	case !op.TakesValue():
		return fmt.Sprintf("%s %s", left, op)
	case op.IsList():
		return fmt.Sprintf("%s %s %s", left, op, value.FormatList(raw))
	case op == domain.Like:
		return fmt.Sprintf("%s LIKE %s", left, value.Quote(raw))
	default:
		return fmt.Sprintf("%s %s %s", left, op, value.FormatLiteral(raw))
	}
}
