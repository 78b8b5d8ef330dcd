package recipe

import (
	"testing"

	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestDefaultCatalog(t *testing.T) {
	c := builtinCatalog(t)
	list := c.List()
	require.NotEmpty(t, list)
	assert.Equal(t, "top-n", list[0].ID)

	for _, r := range list {
		t.Run(r.ID, func(t *testing.T) {
			assert.NotEmpty(t, r.Title)
			assert.NotEmpty(t, r.MinVersion)
			assert.True(t, r.Available)
			table, ok := r.Param("table")
			require.True(t, ok)
			assert.True(t, table.Required)
		})
	}

	r, err := c.Get("latest-per-group")
	require.NoError(t, err)
	assert.Equal(t, []Feature{"window"}, r.Unsupported)

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownRecipe)
}

func TestExpand(t *testing.T) {
	c := builtinCatalog(t)

	t.Run("Defaults fill optional parameters", func(t *testing.T) {
		state, err := c.Expand("top-n", map[string]string{"table": "users"})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM users ORDER BY id DESC LIMIT 10", compiler.Compile(state))
	})

	t.Run("List parameters split on commas", func(t *testing.T) {
		state, err := c.Expand("top-n", map[string]string{
			"table":   "orders",
			"columns": "id, amount,,",
			"column":  "amount",
			"n":       "3",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "amount"}, state.Columns)
		assert.Equal(t, "SELECT id, amount FROM orders ORDER BY amount DESC LIMIT 3", compiler.Compile(state))
	})

	t.Run("Aggregate recipe", func(t *testing.T) {
		state, err := c.Expand("duplicates", map[string]string{"table": "users", "column": "email"})
		require.NoError(t, err)
		assert.Equal(t,
			"SELECT email, COUNT(*) AS occurrences FROM users GROUP BY email HAVING COUNT(*) > 1",
			compiler.Compile(state))
	})

	t.Run("Placeholders inside values and map keys", func(t *testing.T) {
		state, err := c.Expand("soft-delete", map[string]string{"table": "users", "id": "7"})
		require.NoError(t, err)
		assert.Equal(t, domain.Update, state.QueryType)
		assert.Equal(t, map[string]string{"deleted_at": "2024-01-01T00:00:00Z"}, state.InsertValues)
		assert.Equal(t,
			"UPDATE users SET deleted_at = '2024-01-01T00:00:00Z' WHERE id = 7",
			compiler.Compile(state))
	})

	t.Run("Search wraps the term", func(t *testing.T) {
		state, err := c.Expand("search", map[string]string{"table": "users", "column": "name", "term": "it's"})
		require.NoError(t, err)
		assert.Equal(t, "%it's%", state.WhereConditions[0].Value)
	})
}

func TestExpandErrors(t *testing.T) {
	c := builtinCatalog(t)

	t.Run("Unknown recipe", func(t *testing.T) {
		_, err := c.Expand("missing", nil)
		assert.ErrorIs(t, err, ErrUnknownRecipe)
	})

	t.Run("Window functions are unsupported", func(t *testing.T) {
		_, err := c.Expand("latest-per-group", map[string]string{"table": "orders", "group": "user_id"})
		assert.ErrorIs(t, err, ErrUnsupportedFeature)
		_, err = c.Expand("running-total", map[string]string{"table": "orders", "column": "amount"})
		assert.ErrorIs(t, err, ErrUnsupportedFeature)
	})

	t.Run("Missing required parameter", func(t *testing.T) {
		_, err := c.Expand("search", map[string]string{"table": "users", "column": "name", "term": "  "})
		var perr *ParamError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "term", perr.Param)
		assert.ErrorIs(t, err, ErrMissingParam)
	})

	t.Run("Unknown parameter", func(t *testing.T) {
		_, err := c.Expand("top-n", map[string]string{"table": "users", "colour": "red"})
		assert.ErrorIs(t, err, ErrUnknownParam)
	})

	t.Run("Non numeric limit", func(t *testing.T) {
		_, err := c.Expand("top-n", map[string]string{"table": "users", "n": "ten"})
		var perr *ParamError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "n", perr.Param)
		assert.ErrorIs(t, err, ErrBadParam)
	})
}

const futureCatalog = `
recipe: "old": {
	title: "Old"
	description: "works everywhere"
	minVersion: "0.1.0"
	requires: []
	params: [{name: "table", required: true}]
	state: {queryType: "SELECT", table: "{{table}}", columns: ["*"]}
}
recipe: "new": {
	title: "New"
	description: "needs a later release"
	minVersion: "9.0.0"
	requires: []
	params: [{name: "table", required: true}]
	state: {queryType: "DELETE", table: "{{table}}"}
}
`

func TestMinVersion(t *testing.T) {
	c, err := Parse([]byte(futureCatalog), "future.cue", "1.4.0")
	require.NoError(t, err)

	old, _ := c.Get("old")
	assert.True(t, old.Available)
	latest, _ := c.Get("new")
	assert.False(t, latest.Available)

	_, err = c.Expand("new", map[string]string{"table": "users"})
	assert.ErrorIs(t, err, ErrUnavailable)

	dev, err := Parse([]byte(futureCatalog), "future.cue", "dev")
	require.NoError(t, err)
	_, err = dev.Expand("new", map[string]string{"table": "users"})
	assert.NoError(t, err)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"Syntax", `recipe: {`},
		{"No recipes", `other: 1`},
		{"Undeclared placeholder", `recipe: x: {
	title: "x", description: "x", minVersion: "0.1.0", requires: []
	params: []
	state: {table: "{{table}}"}
}`},
		{"Missing title", `recipe: x: {
	description: "x", minVersion: "0.1.0", requires: [], params: [], state: {}
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue", "1.0.0")
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}
