// Package predicate evaluates WHERE conditions against mock rows.
//
// Conditions form a flat chain: each item after the first is combined with
// the running result using its own conjunction, left to right, with no
// precedence between AND and OR. This mirrors how the compiler renders the
// WHERE clause.
//
// LIKE is anchored to the whole value: % matches any run of characters, _
// matches exactly one, and "lic" does not match "Alice". Operands whose
// exponent is out of range for an exact decimal compare as text.
package predicate

import (
	"regexp"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/value"
)

// Chain is a compiled list of conditions.
type Chain struct {
	preds []compiled
}

type compiled struct {
	column string
	op     domain.Operator
	conj   domain.Conjunction
	raw    string
	list   []string
	like   *regexp.Regexp
}

// NewChain compiles conds once so they can be applied to many rows.
func NewChain(conds []domain.Condition) Chain {
	preds := make([]compiled, 0, len(conds))
	for _, c := range conds {
		preds = append(preds, compile(c))
	}
	return Chain{preds: preds}
}

func compile(c domain.Condition) compiled {
	p := compiled{
		column: strings.TrimSpace(c.Column),
		op:     c.Operator.Normalize(),
		conj:   c.Conjunction.Normalize(),
		raw:    c.Value,
	}
	switch p.op {
	case domain.In, domain.NotIn:
		p.list = value.SplitList(c.Value)
	case domain.Like:
		p.like = LikePattern(c.Value)
	}
	return p
}

// Len is the number of conditions.
func (c Chain) Len() int { return len(c.preds) }

// Match folds the chain over row. An empty chain matches every row.
func (c Chain) Match(row domain.Row) bool {
	if len(c.preds) == 0 {
		return true
	}
	result := c.preds[0].eval(row)
	for _, p := range c.preds[1:] {
		if p.conj == domain.Or {
			result = result || p.eval(row)
		} else {
			result = result && p.eval(row)
		}
	}
	return result
}

// Filter returns the rows the chain matches, in input order.
func (c Chain) Filter(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	for _, r := range rows {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Evaluate tests a single condition against row.
func Evaluate(cond domain.Condition, row domain.Row) bool {
	return compile(cond).eval(row)
}

func (p compiled) eval(row domain.Row) bool {
	v, ok := row.Lookup(p.column)
	if !ok {
		return false
	}
	switch p.op {
	case domain.IsNull:
		return v.IsBlank()
	case domain.IsNotNull:
		return !v.IsBlank()
	}
	if v.IsNull() {
		return false
	}
	switch p.op {
	case domain.Eq:
		return compareOperand(v, p.raw) == 0
	case domain.NotEq:
		return compareOperand(v, p.raw) != 0
	case domain.Gt:
		return compareOperand(v, p.raw) > 0
	case domain.Lt:
		return compareOperand(v, p.raw) < 0
	case domain.Gte:
		return compareOperand(v, p.raw) >= 0
	case domain.Lte:
		return compareOperand(v, p.raw) <= 0
	case domain.Like:
		return p.like.MatchString(v.String())
	case domain.In:
		return member(v, p.list)
	case domain.NotIn:
		return !member(v, p.list)
	default:
		return false
	}
}

func member(v domain.Value, items []string) bool {
	s := v.String()
	for _, item := range items {
		if s == item {
			return true
		}
	}
	return false
}

// compareOperand orders a row value against a raw operand: numerically when
// both sides are numbers, chronologically when both are timestamps, as
// booleans when the row holds one, and as case-sensitive strings otherwise.
func compareOperand(v domain.Value, raw string) int {
	if a, ok := v.Number(); ok {
		if b, ok := domain.ParseNumber(raw); ok {
			return a.Cmp(b)
		}
	}
	if a, ok := v.Time(); ok {
		if b, ok := domain.ParseTime(raw); ok {
			return a.Compare(b)
		}
	}
	if a, ok := v.Bool(); ok && value.IsBoolean(raw) {
		return compareBool(a, strings.EqualFold(strings.TrimSpace(raw), "true"))
	}
	return strings.Compare(v.String(), raw)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// Compare orders two cells for sorting. NULL sorts before everything, numbers
// compare numerically, timestamps chronologically and anything else as text.
func Compare(a, b domain.Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}
	if x, ok := a.Number(); ok {
		if y, ok := b.Number(); ok {
			return x.Cmp(y)
		}
	}
	if a.Kind() == domain.KindTime && b.Kind() == domain.KindTime {
		x, _ := a.Time()
		y, _ := b.Time()
		return x.Compare(y)
	}
	return strings.Compare(a.String(), b.String())
}
