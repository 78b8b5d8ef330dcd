package explainer

import (
	"math/rand"
	"testing"

	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainSelect(t *testing.T) {
	state := domain.State{
		Table:   "users",
		Columns: []string{"id", "name"},
		WhereConditions: []domain.Condition{
			{Column: "age", Operator: domain.Gt, Value: "18"},
			{Column: "name", Operator: domain.Like, Value: "A%", Conjunction: domain.Or},
		},
		OrderBy: []domain.OrderBy{{Column: "id", Direction: domain.Asc}, {Column: "name", Direction: domain.Desc}},
		Limit:   domain.IntPtr(10),
		Offset:  domain.IntPtr(0),
	}

	want := "Selects id and name\n" +
		"Reads from the users table\n" +
		"Filters rows where age is greater than 18 or name matches the pattern 'A%'\n" +
		"Sorts by id ascending, then name descending\n" +
		"Returns at most 10 rows starting from row 0"
	assert.Equal(t, want, Explain(state))
}

func TestExplainFragments(t *testing.T) {
	tests := []struct {
		name  string
		state domain.State
		want  []string
	}{
		{
			name: "aggregates and grouping",
			state: domain.State{
				Table:      "orders",
				Distinct:   true,
				Columns:    []string{"status"},
				Aggregates: []domain.Aggregate{{Function: domain.Count, Column: "*", Alias: "n"}, {Function: domain.Sum, Column: "amount"}},
				GroupBy:    []string{"status"},
				Having:     []domain.HavingCondition{{Function: domain.Count, Operator: domain.Gte, Value: "2"}},
			},
			want: []string{
				"Selects distinct combinations of status, the number of rows as n and the sum of amount",
				"Reads from the orders table",
				"Groups rows by status",
				"Keeps only groups where the number of rows is at least 2",
			},
		},
		{
			name: "join and null checks",
			state: domain.State{
				Table:   "orders",
				Columns: []string{"orders.id"},
				Joins:   []domain.Join{{Type: domain.LeftJoin, Table: "users", OnLeft: "orders.user_id", OnRight: "users.id"}},
				WhereConditions: []domain.Condition{
					{Column: "users.email", Operator: domain.IsNotNull},
					{Column: "orders.note", Operator: "is null"},
					{Column: "status", Operator: domain.NotIn, Value: "void, refunded"},
				},
			},
			want: []string{
				"Selects orders.id",
				"Reads from the orders table",
				"Joins users (left join) matching orders.user_id to users.id",
				"Filters rows where users.email is present and orders.note is empty and status is none of ('void', 'refunded')",
			},
		},
		{
			name:  "single row limit",
			state: domain.State{Table: "users", Columns: []string{"id"}, Limit: domain.IntPtr(1)},
			want:  []string{"Selects id", "Reads from the users table", "Returns at most 1 row"},
		},
		{
			name:  "offset only",
			state: domain.State{Table: "users", Columns: []string{"id"}, Offset: domain.IntPtr(5)},
			want:  []string{"Selects id", "Reads from the users table", "Skips the first 5 rows"},
		},
		{
			name: "insert",
			state: domain.State{
				QueryType:    domain.Insert,
				Table:        "users",
				Columns:      []string{"name", "age", "email"},
				InsertValues: map[string]string{"name": "Jo", "age": "30"},
			},
			want: []string{"Inserts one row into users, setting name to 'Jo', age to 30 and email to NULL"},
		},
		{
			name: "update everything",
			state: domain.State{
				QueryType:    domain.Update,
				Table:        "users",
				InsertValues: map[string]string{"active": "false"},
			},
			want: []string{"Updates every row of users, setting active to FALSE"},
		},
		{
			name: "update filtered",
			state: domain.State{
				QueryType:       domain.Update,
				Table:           "users",
				WhereConditions: []domain.Condition{{Column: "id", Operator: domain.Eq, Value: "3"}},
			},
			want: []string{"Updates matching rows of users, but no values are set yet", "Only rows where id is 3"},
		},
		{
			name:  "delete everything",
			state: domain.State{QueryType: domain.Delete, Table: "users"},
			want:  []string{"Deletes every row from users"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Describe(tt.state)
			texts := make([]string, len(lines))
			for i, l := range lines {
				texts[i] = l.Text
			}
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestExplainEmptyWhenCompileIsEmpty(t *testing.T) {
	states := []domain.State{
		{},
		{Columns: []string{"id"}},
		{Table: "users"},
		{QueryType: domain.Update, InsertValues: map[string]string{"a": "1"}},
	}
	for _, s := range states {
		assert.Equal(t, "", compiler.Compile(s))
		assert.Equal(t, "", Explain(s))
		assert.Empty(t, Describe(s))
	}
}

func TestClauseCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(20240601))
	for i := 0; i < 2000; i++ {
		state := randomState(rng)
		stmt := compiler.Render(state)
		lines := Describe(state)

		require.Truef(t, stmt.ClauseSet().Equal(Clauses(lines)),
			"clause mismatch for %+v\nsql: %s\nexplain: %s", state, stmt.SQL, Explain(state))
		require.Equal(t, stmt.SQL == "", Explain(state) == "")

		// Idempotent.
		require.Equal(t, stmt.SQL, compiler.Compile(state))
		require.Equal(t, Explain(state), Explain(state.Clone()))
	}
}

var (
	tables    = []string{"", "users", "orders", " "}
	columns   = []string{"", "id", "name", "users.email", "amount", " "}
	operators = []domain.Operator{"", "=", "!=", ">", "<", ">=", "<=", "like", "IN", "not in", "IS NULL", "is not null", "~", "<>"}
	funcs     = []domain.AggregateFunc{"", "COUNT", "sum", "AVG", "MIN", "max", "median"}
	types     = []domain.QueryType{"", "SELECT", "INSERT", "UPDATE", "DELETE", "update", "MERGE"}
)

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

func randomState(rng *rand.Rand) domain.State {
	s := domain.State{
		QueryType: pick(rng, types),
		Table:     pick(rng, tables),
		Distinct:  rng.Intn(2) == 0,
	}
	for n := rng.Intn(3); n > 0; n-- {
		s.Columns = append(s.Columns, pick(rng, columns))
	}
	for n := rng.Intn(3); n > 0; n-- {
		col := pick(rng, columns)
		if rng.Intn(3) == 0 {
			col = "*"
		}
		s.Aggregates = append(s.Aggregates, domain.Aggregate{Function: pick(rng, funcs), Column: col, Alias: pick(rng, []string{"", "total"})})
	}
	for n := rng.Intn(4); n > 0; n-- {
		s.WhereConditions = append(s.WhereConditions, domain.Condition{
			Column:      pick(rng, columns),
			Operator:    pick(rng, operators),
			Value:       pick(rng, []string{"", "1", "a,b", "x'y", "true"}),
			Conjunction: pick(rng, []domain.Conjunction{"", "AND", "or"}),
		})
	}
	for n := rng.Intn(3); n > 0; n-- {
		s.Joins = append(s.Joins, domain.Join{
			Type:    pick(rng, []domain.JoinType{"", "LEFT", "right", "CROSS"}),
			Table:   pick(rng, tables),
			OnLeft:  pick(rng, columns),
			OnRight: pick(rng, columns),
		})
	}
	for n := rng.Intn(3); n > 0; n-- {
		s.GroupBy = append(s.GroupBy, pick(rng, columns))
	}
	for n := rng.Intn(3); n > 0; n-- {
		s.Having = append(s.Having, domain.HavingCondition{
			Function: pick(rng, funcs),
			Column:   pick(rng, columns),
			Operator: pick(rng, operators),
			Value:    pick(rng, []string{"", "2"}),
		})
	}
	for n := rng.Intn(3); n > 0; n-- {
		s.OrderBy = append(s.OrderBy, domain.OrderBy{Column: pick(rng, columns), Direction: pick(rng, []domain.SortDirection{"", "DESC", "asc"})})
	}
	if rng.Intn(2) == 0 {
		s.Limit = domain.IntPtr(rng.Intn(5) - 1)
	}
	if rng.Intn(2) == 0 {
		s.Offset = domain.IntPtr(rng.Intn(5) - 1)
	}
	if rng.Intn(2) == 0 {
		s.InsertValues = map[string]string{}
		for n := rng.Intn(3); n > 0; n-- {
			s.InsertValues[pick(rng, columns)] = pick(rng, []string{"", "1", "Jo"})
		}
	}
	return s
}
