package lint

import (
	"testing"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/stretchr/testify/assert"
)

func codes(hints []Hint) []Code {
	out := make([]Code, len(hints))
	for i, h := range hints {
		out[i] = h.Code
	}
	return out
}

func TestLintCleanSelect(t *testing.T) {
	state := domain.State{
		Table:           "users",
		Columns:         []string{"id", "name"},
		WhereConditions: []domain.Condition{{Column: "age", Operator: domain.Gt, Value: "18"}},
		OrderBy:         []domain.OrderBy{{Column: "id"}},
		Limit:           domain.IntPtr(10),
	}
	hints := Lint(state)
	assert.Empty(t, hints)
	assert.False(t, HasWarnings(hints))
}

func TestLintFindings(t *testing.T) {
	tests := []struct {
		name  string
		state domain.State
		want  []Code
		not   []Code
	}{
		{
			name:  "missing table",
			state: domain.State{Columns: []string{"id"}},
			want:  []Code{MissingTable},
		},
		{
			name:  "empty projection",
			state: domain.State{Table: "users"},
			want:  []Code{EmptyProjection},
		},
		{
			name: "having without group by",
			state: domain.State{
				Table:      "orders",
				Aggregates: []domain.Aggregate{{Function: domain.Count, Column: "*"}},
				Having:     []domain.HavingCondition{{Function: domain.Count, Column: "*", Operator: domain.Gt, Value: "1"}},
			},
			want: []Code{HavingWithoutGroupBy},
			not:  []Code{UngroupedColumn},
		},
		{
			name: "ungrouped column beside aggregate",
			state: domain.State{
				Table:      "orders",
				Columns:    []string{"status", "user_id"},
				Aggregates: []domain.Aggregate{{Function: domain.Sum, Column: "amount"}},
				GroupBy:    []string{"status"},
			},
			want: []Code{UngroupedColumn},
			not:  []Code{HavingWithoutGroupBy},
		},
		{
			name: "wildcard and unknown aggregates",
			state: domain.State{
				Table:      "orders",
				Aggregates: []domain.Aggregate{{Function: domain.Avg, Column: "*"}, {Function: "median", Column: "amount"}, {Column: "x"}},
			},
			want: []Code{WildcardAggregate, UnknownAggregate},
		},
		{
			name: "operators",
			state: domain.State{
				Table:   "users",
				Columns: []string{"id"},
				WhereConditions: []domain.Condition{
					{Column: "name", Operator: "~*", Value: "a"},
					{Column: "id", Operator: domain.In, Value: " , "},
				},
			},
			want: []Code{UnknownOperator, EmptyInList},
		},
		{
			name: "join without ON",
			state: domain.State{
				Table:   "orders",
				Columns: []string{"id"},
				Joins:   []domain.Join{{Type: domain.LeftJoin, Table: "users", OnLeft: "orders.user_id"}},
			},
			want: []Code{JoinMissingOn},
		},
		{
			name:  "unfiltered delete",
			state: domain.State{QueryType: domain.Delete, Table: "users"},
			want:  []Code{UnfilteredMutation},
		},
		{
			name: "filtered delete",
			state: domain.State{
				QueryType:       domain.Delete,
				Table:           "users",
				WhereConditions: []domain.Condition{{Column: "id", Operator: domain.Eq, Value: "1"}},
			},
			not: []Code{UnfilteredMutation},
		},
		{
			name:  "unfiltered update without SET does not parse",
			state: domain.State{QueryType: domain.Update, Table: "users"},
			want:  []Code{UnfilteredMutation, Syntax},
		},
		{
			name:  "offset without limit",
			state: domain.State{Table: "users", Columns: []string{"id"}, Offset: domain.IntPtr(20)},
			want:  []Code{OffsetWithoutLimit},
		},
		{
			name:  "zero offset without limit is fine",
			state: domain.State{Table: "users", Columns: []string{"id"}, Offset: domain.IntPtr(0)},
			not:   []Code{OffsetWithoutLimit},
		},
		{
			name:  "negative pagination",
			state: domain.State{Table: "users", Columns: []string{"id"}, Limit: domain.IntPtr(-5)},
			want:  []Code{NegativePagination},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codes(Lint(tt.state))
			for _, c := range tt.want {
				assert.Contains(t, got, c)
			}
			for _, c := range tt.not {
				assert.NotContains(t, got, c)
			}
		})
	}
}

func TestHintSeverity(t *testing.T) {
	hints := Lint(domain.State{Table: "users"})
	assert.False(t, HasWarnings(hints))
	assert.Equal(t, "info [empty-projection] select at least one column or aggregate", hints[0].String())

	hints = Lint(domain.State{QueryType: domain.Delete, Table: "users"})
	assert.True(t, HasWarnings(hints))
	assert.Equal(t, domain.ClauseDelete, hints[0].Clause)
}
