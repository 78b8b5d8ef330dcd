package repl

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/satishbabariya/querycraft/internal/adapters/dataset"
	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/recipe"
	"github.com/satishbabariya/querycraft/internal/service"
	"github.com/satishbabariya/querycraft/internal/statefile"
	"github.com/satishbabariya/querycraft/internal/ui"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyAll(t *testing.T, lines ...string) domain.State {
	t.Helper()
	var state domain.State
	for _, line := range lines {
		next, _, err := Apply(state, line)
		require.NoError(t, err, line)
		state = next
	}
	return state
}

func TestApplyBuildsStatements(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "Select with filters",
			lines: []string{"from users", "select name, age", "where age >= 18 AND city = 'London'", "or name LIKE 'A%'", "order age desc, name", "limit 5", "offset 10"},
			want:  "SELECT name, age FROM users WHERE age >= 18 AND city = 'London' OR name LIKE 'A%' ORDER BY age DESC, name ASC LIMIT 5 OFFSET 10",
		},
		{
			name:  "Aggregates",
			lines: []string{"from orders", "select user_id", "agg count(*) as total", "agg SUM(amount)", "group user_id", "having COUNT(*) > 1"},
			want:  "SELECT user_id, COUNT(*) AS total, SUM(amount) FROM orders GROUP BY user_id HAVING COUNT(*) > 1",
		},
		{
			name:  "Join",
			lines: []string{"from orders", "select orders.id, users.name", "join left users on orders.user_id=users.id"},
			want:  "SELECT orders.id, users.name FROM orders LEFT JOIN users ON orders.user_id = users.id",
		},
		{
			name:  "Update",
			lines: []string{"type update", "from users", "set city='New York' active=true", "where id = 3"},
			want:  "UPDATE users SET active = TRUE, city = 'New York' WHERE id = 3",
		},
		{
			name:  "Delete",
			lines: []string{"type delete", "from sessions", "where expires_at < '2024-01-01'"},
			want:  "DELETE FROM sessions WHERE expires_at < '2024-01-01'",
		},
		{
			name:  "Clearing",
			lines: []string{"from users", "select *", "where age > 1", "where clear", "limit 3", "limit none", "distinct", "distinct off"},
			want:  "SELECT * FROM users",
		},
		{
			name:  "Nothing selected",
			lines: []string{"from users", "where age > 1"},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compiler.Compile(applyAll(t, tt.lines...)))
		})
	}
}

func TestApplyActions(t *testing.T) {
	state := domain.State{Table: "users"}

	next, action, err := Apply(state, "  # a comment")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action.Kind)
	assert.Equal(t, state, next)

	_, action, err = Apply(state, "RUN")
	require.NoError(t, err)
	assert.Equal(t, ActionRun, action.Kind)

	_, action, err = Apply(state, "save out/state.json")
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: ActionSave, Arg: "out/state.json"}, action)

	_, action, err = Apply(state, `recipe search table=users column=name term="Ada L"`)
	require.NoError(t, err)
	assert.Equal(t, ActionRecipe, action.Kind)
	assert.Equal(t, "search", action.Arg)
	assert.Equal(t, map[string]string{"table": "users", "column": "name", "term": "Ada L"}, action.Params)
}

func TestApplyErrors(t *testing.T) {
	original := domain.State{Table: "users", WhereConditions: []domain.Condition{{Column: "id", Operator: domain.Eq, Value: "1"}}}

	tests := []struct {
		line string
		want error
	}{
		{"frobnicate", ErrUnknownCommand},
		{"type merge", ErrUsage},
		{"from", ErrUsage},
		{"limit -1", ErrUsage},
		{"limit ten", ErrUsage},
		{"agg total", ErrUsage},
		{"join users", ErrUsage},
		{"set nothing", ErrUsage},
		{"save", ErrUsage},
		{"order a sideways", ErrUsage},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			next, _, err := Apply(original, tt.line)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, original, next)
		})
	}

	t.Run("Condition syntax errors surface", func(t *testing.T) {
		_, _, err := Apply(original, "where age >")
		assert.Error(t, err)
	})
}

func TestApplyDoesNotMutate(t *testing.T) {
	original := domain.State{Table: "users", InsertValues: map[string]string{"a": "1"}, Columns: []string{"a"}}
	_, _, err := Apply(original, "set b=2")
	require.NoError(t, err)
	_, _, err = Apply(original, "where a = 1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, original.InsertValues)
	assert.Empty(t, original.WhereConditions)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseList(" a, ,b ,"))
	assert.Nil(t, ParseList(""))

	agg, err := ParseAggregate("avg( price ) avg_price")
	require.NoError(t, err)
	assert.Equal(t, domain.Aggregate{Function: domain.Avg, Column: "price", Alias: "avg_price"}, agg)

	agg, err = ParseAggregate("count()")
	require.NoError(t, err)
	assert.Equal(t, domain.Wildcard, agg.Column)

	j, err := ParseJoin("products on orders.product_id = products.id")
	require.NoError(t, err)
	assert.Equal(t, domain.Join{Type: domain.InnerJoin, Table: "products", OnLeft: "orders.product_id", OnRight: "products.id"}, j)

	pairs, err := ParseAssignments(`name='' note="a b" n=1`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "", "note": "a b", "n": "1"}, pairs)
}

// script feeds fixed lines and then io.EOF.
type script struct {
	lines   []string
	prompts []string
}

func (s *script) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func (s *script) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func newTestSession(t *testing.T) (*Session, *bytes.Buffer, *bytes.Buffer, afero.Fs) {
	t.Helper()
	catalog, err := recipe.Default()
	require.NoError(t, err)
	var out, errOut bytes.Buffer
	fs := afero.NewMemMapFs()
	s := NewSession(domain.State{}, service.NewPreviewService(dataset.NewSampleProvider()), catalog, fs, ui.NewPrinter(&out, &errOut))
	return s, &out, &errOut, fs
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	s, out, errOut, fs := newTestSession(t)

	in := &script{lines: []string{
		"from users",
		"select name",
		"where city = 'London'",
		"bogus",
		"run",
		"save states/london.yaml",
		"undo",
		"sql",
		"recipe top-n table=orders n=2",
		"quit",
		"never reached",
	}}
	require.NoError(t, s.Run(ctx, in))

	assert.Equal(t, "querycraft> ", in.prompts[0])
	assert.Equal(t, "querycraft(users)> ", in.prompts[1])
	assert.Equal(t, []string{"never reached"}, in.lines)

	assert.Contains(t, out.String(), "SELECT name FROM users WHERE city = 'London'")
	assert.Contains(t, out.String(), "matching rows")
	assert.Contains(t, errOut.String(), "unknown command")

	saved, err := statefile.Load(fs, "states/london.yaml")
	require.NoError(t, err)
	assert.Equal(t, "users", saved.Table)
	assert.Len(t, saved.WhereConditions, 1)

	assert.Equal(t, "SELECT * FROM orders ORDER BY id DESC LIMIT 2", compiler.Compile(s.State()))
}

func TestSessionUndoAndLoad(t *testing.T) {
	ctx := context.Background()
	s, out, _, fs := newTestSession(t)
	require.NoError(t, statefile.Save(fs, "q.json", domain.State{Table: "products", Columns: []string{"name"}}))

	_, err := s.Execute(ctx, "undo")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "nothing to undo")

	_, err = s.Execute(ctx, "load q.json")
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM products", compiler.Compile(s.State()))

	_, err = s.Execute(ctx, "undo")
	require.NoError(t, err)
	assert.Empty(t, compiler.Compile(s.State()))

	_, err = s.Execute(ctx, "load missing.yaml")
	assert.Error(t, err)

	_, err = s.Execute(ctx, "recipe latest-per-group table=orders group=user_id")
	assert.ErrorIs(t, err, recipe.ErrUnsupportedFeature)
}

func TestSessionInterrupt(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	in := &script{lines: []string{"from users", "^C", "from orders"}}
	require.NoError(t, s.Run(context.Background(), in))
	assert.Equal(t, "users", s.State().Table)
}

func TestCompleter(t *testing.T) {
	catalog, err := recipe.Default()
	require.NoError(t, err)
	c := Completer(catalog, []string{"users", "orders"})

	names := make([]string, 0)
	for _, child := range c.GetChildren() {
		names = append(names, string(child.GetName()))
	}
	assert.Contains(t, names, "from ")
	assert.Contains(t, names, "recipe ")
	assert.Len(t, names, len(Commands()))
}
