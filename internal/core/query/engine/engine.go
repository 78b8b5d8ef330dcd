// Package engine simulates a query against in-memory rows.
//
// A SELECT runs filter, sort, paginate and project in that order. Aggregates,
// GROUP BY, HAVING, DISTINCT and joins are not simulated: the preview shows
// the filtered and sorted base rows. UPDATE, DELETE and INSERT preview the
// rows the statement would touch.
package engine

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/predicate"
	"github.com/satishbabariya/querycraft/internal/core/query/value"
)

// DefaultPreviewCap bounds previews of queries without a LIMIT. It is a
// display default and never appears in compiled SQL.
const DefaultPreviewCap = 100

// Result is the outcome of a simulated run.
type Result struct {
	// Rows is the returned page.
	Rows []domain.Row `json:"rows"`
	// MatchCount counts the rows before pagination.
	MatchCount int `json:"matchCount"`
	// Capped is set when the preview cap, not a LIMIT, cut the page short.
	Capped bool `json:"capped"`
}

// Engine runs simulations. The zero value has no preview cap.
type Engine struct {
	previewCap int
}

// Option configures an Engine.
type Option func(*Engine)

// WithPreviewCap sets the row cap applied when a query has no LIMIT. Zero or
// a negative value disables the cap.
func WithPreviewCap(n int) Option {
	return func(e *Engine) {
		e.previewCap = n
	}
}

// New returns an engine with DefaultPreviewCap unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{previewCap: DefaultPreviewCap}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PreviewCap returns the configured cap.
func (e *Engine) PreviewCap() int {
	return e.previewCap
}

var defaultEngine = New()

// Execute runs state over rows with the default preview cap.
func Execute(state domain.State, rows []domain.Row) []domain.Row {
	return defaultEngine.Execute(state, rows)
}

// Match returns the rows state selects before pagination.
func Match(state domain.State, rows []domain.Row) []domain.Row {
	return defaultEngine.Match(state, rows)
}

// Run loads the table from source and runs state over it with the default
// preview cap.
func Run(ctx context.Context, state domain.State, source domain.RowSource) (Result, error) {
	return defaultEngine.Run(ctx, state, source)
}

// Execute returns the page of rows the statement would produce.
func (e *Engine) Execute(state domain.State, rows []domain.Row) []domain.Row {
	return e.result(state, rows).Rows
}

// Match returns the rows the statement touches, before pagination: filtered
// and sorted for SELECT, filtered for DELETE, filtered and updated for UPDATE,
// and the new row for INSERT. A SELECT with nothing projected matches no rows,
// the same way it compiles to no SQL.
func (e *Engine) Match(state domain.State, rows []domain.Row) []domain.Row {
	if !state.HasTable() {
		return []domain.Row{}
	}
	switch state.Type() {
	case domain.Insert:
		return []domain.Row{insertRow(state)}
	case domain.Update:
		return applyAssignments(state, filter(state, rows))
	case domain.Delete:
		return filter(state, rows)
	default:
		if !state.HasProjection() {
			return []domain.Row{}
		}
		return Sort(filter(state, rows), state.ActiveOrderBy())
	}
}

// Run loads the rows of the state's table from source and simulates the
// statement. Unknown tables produce an empty result.
func (e *Engine) Run(ctx context.Context, state domain.State, source domain.RowSource) (Result, error) {
	if !state.HasTable() || source == nil {
		return Result{Rows: []domain.Row{}}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	table := strings.TrimSpace(state.Table)
	rows, ok, err := source.Rows(ctx, table)
	if err != nil {
		return Result{}, fmt.Errorf("load rows of %s: %w", table, err)
	}
	if !ok && state.Type() != domain.Insert {
		return Result{Rows: []domain.Row{}}, nil
	}
	return e.result(state, rows), nil
}

func (e *Engine) result(state domain.State, rows []domain.Row) Result {
	matched := e.Match(state, rows)
	res := Result{MatchCount: len(matched)}

	offset, limit, hasLimit := 0, 0, false
	if state.Type() == domain.Select {
		offset, _ = state.OffsetValue()
		limit, hasLimit = state.LimitValue()
	}
	if !hasLimit && e.previewCap > 0 {
		limit, hasLimit = e.previewCap, true
		res.Capped = len(matched)-offset > e.previewCap
	}
	page := Paginate(matched, offset, limit, hasLimit)

	if state.Type() == domain.Select {
		if cols := state.ActiveColumns(); len(cols) > 0 && !slices.Contains(cols, domain.Wildcard) {
			for i, r := range page {
				page[i] = r.Project(cols)
			}
		}
	}
	res.Rows = page
	return res
}

func filter(state domain.State, rows []domain.Row) []domain.Row {
	return predicate.NewChain(state.ActiveConditions()).Filter(rows)
}

// Sort orders rows by keys with a stable multi-key sort. Each key compares
// numerically when both cells are numbers and as text otherwise; NULL and
// missing cells sort first in ascending order. DESC reverses only its own key.
func Sort(rows []domain.Row, keys []domain.OrderBy) []domain.Row {
	out := make([]domain.Row, len(rows))
	copy(out, rows)
	if len(keys) == 0 {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := predicate.Compare(cell(out[i], k.Column), cell(out[j], k.Column))
			if c == 0 {
				continue
			}
			if k.Direction.Normalize() == domain.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out
}

func cell(r domain.Row, col string) domain.Value {
	v, ok := r.Lookup(col)
	if !ok {
		return domain.NullValue()
	}
	return v
}

// Paginate skips offset rows and keeps at most limit when hasLimit is set.
func Paginate(rows []domain.Row, offset, limit int, hasLimit bool) []domain.Row {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []domain.Row{}
	}
	end := len(rows)
	if hasLimit && limit >= 0 && limit < end-offset {
		end = offset + limit
	}
	out := make([]domain.Row, end-offset)
	copy(out, rows[offset:end])
	return out
}

func insertRow(state domain.State) domain.Row {
	var r domain.Row
	for _, c := range state.InsertColumns() {
		v, ok := state.InsertValues[c]
		if !ok {
			r.Set(c, domain.NullValue())
			continue
		}
		r.Set(c, value.ParseLiteral(v))
	}
	return r
}

func applyAssignments(state domain.State, rows []domain.Row) []domain.Row {
	assigns := state.Assignments()
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		updated := r.Clone()
		for _, a := range assigns {
			updated.Set(a.Column, value.ParseLiteral(a.Value))
		}
		out[i] = updated
	}
	return out
}
