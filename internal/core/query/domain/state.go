// Package domain contains the core entities of the query workbench: the
// structured query state, result rows and the clause vocabulary shared by the
// compiler, the explainer and the mock engine.
package domain

import (
	"sort"
	"strings"
)

// State is the structured description of a query as edited by the user.
// It is replaced wholesale on every edit and never mutated by consumers.
type State struct {
	QueryType       QueryType         `json:"queryType" yaml:"queryType"`
	Table           string            `json:"table" yaml:"table"`
	Columns         []string          `json:"columns,omitempty" yaml:"columns,omitempty"`
	Aggregates      []Aggregate       `json:"aggregates,omitempty" yaml:"aggregates,omitempty"`
	Distinct        bool              `json:"distinct,omitempty" yaml:"distinct,omitempty"`
	WhereConditions []Condition       `json:"whereConditions,omitempty" yaml:"whereConditions,omitempty"`
	Joins           []Join            `json:"joins,omitempty" yaml:"joins,omitempty"`
	GroupBy         []string          `json:"groupBy,omitempty" yaml:"groupBy,omitempty"`
	Having          []HavingCondition `json:"having,omitempty" yaml:"having,omitempty"`
	OrderBy         []OrderBy         `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
	Limit           *int              `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset          *int              `json:"offset,omitempty" yaml:"offset,omitempty"`
	InsertValues    map[string]string `json:"insertValues,omitempty" yaml:"insertValues,omitempty"`
}

// QueryType is the statement kind.
type QueryType string

const (
	// Select reads rows.
	Select QueryType = "SELECT"
	// Insert adds one row.
	Insert QueryType = "INSERT"
	// Update changes matching rows.
	Update QueryType = "UPDATE"
	// Delete removes matching rows.
	Delete QueryType = "DELETE"
)

// Aggregate is a projected aggregate such as COUNT(*) AS total.
type Aggregate struct {
	Function AggregateFunc `json:"function" yaml:"function"`
	Column   string        `json:"column" yaml:"column"`
	Alias    string        `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// AggregateFunc names an aggregate function.
type AggregateFunc string

const (
	// Count counts rows or non-null values.
	Count AggregateFunc = "COUNT"
	// Sum sums values.
	Sum AggregateFunc = "SUM"
	// Avg averages values.
	Avg AggregateFunc = "AVG"
	// Min finds the smallest value.
	Min AggregateFunc = "MIN"
	// Max finds the largest value.
	Max AggregateFunc = "MAX"
)

// Wildcard is the aggregate column meaning "all rows".
const Wildcard = "*"

// Condition is one WHERE predicate. Conjunction links it to the previous
// condition and is ignored on the first one.
type Condition struct {
	Column      string      `json:"column" yaml:"column"`
	Operator    Operator    `json:"operator" yaml:"operator"`
	Value       string      `json:"value,omitempty" yaml:"value,omitempty"`
	Conjunction Conjunction `json:"conjunction,omitempty" yaml:"conjunction,omitempty"`
}

// HavingCondition is one HAVING predicate over an aggregate result.
type HavingCondition struct {
	Function    AggregateFunc `json:"function" yaml:"function"`
	Column      string        `json:"column" yaml:"column"`
	Operator    Operator      `json:"operator" yaml:"operator"`
	Value       string        `json:"value,omitempty" yaml:"value,omitempty"`
	Conjunction Conjunction   `json:"conjunction,omitempty" yaml:"conjunction,omitempty"`
}

// Operator is a comparison operator.
type Operator string

const (
	Eq        Operator = "="
	NotEq     Operator = "!="
	Gt        Operator = ">"
	Lt        Operator = "<"
	Gte       Operator = ">="
	Lte       Operator = "<="
	Like      Operator = "LIKE"
	In        Operator = "IN"
	NotIn     Operator = "NOT IN"
	IsNull    Operator = "IS NULL"
	IsNotNull Operator = "IS NOT NULL"
)

// Operators lists the supported operators in display order.
var Operators = []Operator{Eq, NotEq, Gt, Lt, Gte, Lte, Like, In, NotIn, IsNull, IsNotNull}

// Conjunction links a predicate to the one before it.
type Conjunction string

const (
	// And requires both sides.
	And Conjunction = "AND"
	// Or requires either side.
	Or Conjunction = "OR"
)

// Join is a table join.
type Join struct {
	Type    JoinType `json:"type" yaml:"type"`
	Table   string   `json:"table" yaml:"table"`
	OnLeft  string   `json:"onLeft" yaml:"onLeft"`
	OnRight string   `json:"onRight" yaml:"onRight"`
}

// JoinType is the join flavour.
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
)

// OrderBy is one sort key.
type OrderBy struct {
	Column    string        `json:"column" yaml:"column"`
	Direction SortDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// SortDirection is ASC or DESC.
type SortDirection string

const (
	// Asc sorts ascending.
	Asc SortDirection = "ASC"
	// Desc sorts descending.
	Desc SortDirection = "DESC"
)

// Type returns the normalised statement kind. Unknown or empty kinds are
// treated as SELECT.
func (s State) Type() QueryType {
	switch QueryType(strings.ToUpper(strings.TrimSpace(string(s.QueryType)))) {
	case Insert:
		return Insert
	case Update:
		return Update
	case Delete:
		return Delete
	default:
		return Select
	}
}

// HasTable reports whether a target table is set.
func (s State) HasTable() bool {
	return strings.TrimSpace(s.Table) != ""
}

// LimitValue returns the limit when it is set and non-negative.
func (s State) LimitValue() (int, bool) {
	if s.Limit == nil || *s.Limit < 0 {
		return 0, false
	}
	return *s.Limit, true
}

// OffsetValue returns the offset when it is set and non-negative.
func (s State) OffsetValue() (int, bool) {
	if s.Offset == nil || *s.Offset < 0 {
		return 0, false
	}
	return *s.Offset, true
}

// Clone returns a deep copy that can be edited without touching s.
func (s State) Clone() State {
	out := s
	out.Columns = cloneSlice(s.Columns)
	out.Aggregates = cloneSlice(s.Aggregates)
	out.WhereConditions = cloneSlice(s.WhereConditions)
	out.Joins = cloneSlice(s.Joins)
	out.GroupBy = cloneSlice(s.GroupBy)
	out.Having = cloneSlice(s.Having)
	out.OrderBy = cloneSlice(s.OrderBy)
	if s.Limit != nil {
		out.Limit = IntPtr(*s.Limit)
	}
	if s.Offset != nil {
		out.Offset = IntPtr(*s.Offset)
	}
	if s.InsertValues != nil {
		out.InsertValues = make(map[string]string, len(s.InsertValues))
		for k, v := range s.InsertValues {
			out.InsertValues[k] = v
		}
	}
	return out
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Normalize returns the canonical spelling of an operator: trimmed, upper
// case, single-spaced. "<>" is an alias of "!=". Unknown operators are kept
// in their normalised spelling.
func (o Operator) Normalize() Operator {
	op := Operator(strings.Join(strings.Fields(strings.ToUpper(string(o))), " "))
	if op == "<>" {
		return NotEq
	}
	return op
}

// Known reports whether the operator is one of Operators.
func (o Operator) Known() bool {
	n := o.Normalize()
	for _, op := range Operators {
		if op == n {
			return true
		}
	}
	return false
}

// TakesValue reports whether the operator has a right-hand operand.
func (o Operator) TakesValue() bool {
	n := o.Normalize()
	return n != IsNull && n != IsNotNull
}

// IsList reports whether the operand is a comma-separated list.
func (o Operator) IsList() bool {
	n := o.Normalize()
	return n == In || n == NotIn
}

// Normalize returns OR for any spelling of "or" and AND otherwise.
func (c Conjunction) Normalize() Conjunction {
	if strings.EqualFold(strings.TrimSpace(string(c)), string(Or)) {
		return Or
	}
	return And
}

// Normalize upper-cases known aggregate functions and keeps unknown names
// verbatim.
func (f AggregateFunc) Normalize() AggregateFunc {
	trimmed := strings.TrimSpace(string(f))
	upper := AggregateFunc(strings.ToUpper(trimmed))
	switch upper {
	case Count, Sum, Avg, Min, Max:
		return upper
	}
	return AggregateFunc(trimmed)
}

// Known reports whether f is one of COUNT, SUM, AVG, MIN, MAX.
func (f AggregateFunc) Known() bool {
	switch AggregateFunc(strings.ToUpper(strings.TrimSpace(string(f)))) {
	case Count, Sum, Avg, Min, Max:
		return true
	}
	return false
}

// Normalize returns DESC for any spelling of "desc" and ASC otherwise.
func (d SortDirection) Normalize() SortDirection {
	if strings.EqualFold(strings.TrimSpace(string(d)), string(Desc)) {
		return Desc
	}
	return Asc
}

// Normalize returns LEFT or RIGHT when spelled so, INNER otherwise.
func (t JoinType) Normalize() JoinType {
	switch JoinType(strings.ToUpper(strings.TrimSpace(string(t)))) {
	case LeftJoin:
		return LeftJoin
	case RightJoin:
		return RightJoin
	default:
		return InnerJoin
	}
}

// IsWildcard reports whether the aggregate targets all rows.
func (a Aggregate) IsWildcard() bool {
	col := strings.TrimSpace(a.Column)
	return col == Wildcard || col == ""
}

// HasProjection reports whether a SELECT selects anything. A SELECT without
// one compiles to nothing and returns no rows.
func (s State) HasProjection() bool {
	return len(s.ActiveColumns()) > 0 || len(s.Aggregates) > 0
}

// ActiveColumns returns the non-blank projected columns, trimmed.
func (s State) ActiveColumns() []string {
	return nonBlank(s.Columns)
}

// ActiveGroupBy returns the non-blank grouping columns, trimmed.
func (s State) ActiveGroupBy() []string {
	return nonBlank(s.GroupBy)
}

// ActiveConditions returns the WHERE items that name both a column and an
// operator. Items still being edited are skipped by every consumer alike.
func (s State) ActiveConditions() []Condition {
	var out []Condition
	for _, c := range s.WhereConditions {
		if strings.TrimSpace(c.Column) == "" || strings.TrimSpace(string(c.Operator)) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ActiveHaving returns the HAVING items that name a function and an operator.
func (s State) ActiveHaving() []HavingCondition {
	var out []HavingCondition
	for _, h := range s.Having {
		if strings.TrimSpace(string(h.Function)) == "" || strings.TrimSpace(string(h.Operator)) == "" {
			continue
		}
		out = append(out, h)
	}
	return out
}

// ActiveJoins returns the joins that name a table.
func (s State) ActiveJoins() []Join {
	var out []Join
	for _, j := range s.Joins {
		if strings.TrimSpace(j.Table) != "" {
			out = append(out, j)
		}
	}
	return out
}

// ActiveOrderBy returns the sort keys that name a column.
func (s State) ActiveOrderBy() []OrderBy {
	var out []OrderBy
	for _, o := range s.OrderBy {
		if strings.TrimSpace(o.Column) != "" {
			out = append(out, o)
		}
	}
	return out
}

// ActiveAggregates returns the aggregates that can be projected: a named
// function over a column, or COUNT over the wildcard.
func (s State) ActiveAggregates() []Aggregate {
	var out []Aggregate
	for _, a := range s.Aggregates {
		fn := a.Function.Normalize()
		if fn == "" || (a.IsWildcard() && fn != Count) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// InsertColumns returns the target columns of an INSERT: the projected
// columns, or the sorted insertValues keys when none are projected.
func (s State) InsertColumns() []string {
	if cols := s.ActiveColumns(); len(cols) > 0 {
		return cols
	}
	return sortedKeys(s.InsertValues)
}

// Assignment is one column = value pair of an UPDATE.
type Assignment struct {
	Column string
	Value  string
}

// Assignments returns the UPDATE SET pairs: projected columns that carry a
// value, in column order, then the remaining insertValues keys sorted.
func (s State) Assignments() []Assignment {
	var out []Assignment
	seen := make(map[string]bool)
	for _, c := range s.ActiveColumns() {
		v, ok := s.InsertValues[c]
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, Assignment{Column: c, Value: v})
	}
	for _, k := range sortedKeys(s.InsertValues) {
		if seen[k] {
			continue
		}
		out = append(out, Assignment{Column: k, Value: s.InsertValues[k]})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
