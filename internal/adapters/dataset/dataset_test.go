package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cell(t *testing.T, r domain.Row, col string) domain.Value {
	t.Helper()
	v, ok := r.Get(col)
	require.True(t, ok, "missing column %s", col)
	return v
}

func TestValidTable(t *testing.T) {
	for _, name := range []string{"users", "public.users", "_tmp1", "café"} {
		assert.True(t, ValidTable(name), name)
	}
	for _, name := range []string{"", "../etc/passwd", "users;drop", "a.b.c", "1abc", "my table"} {
		assert.False(t, ValidTable(name), name)
	}
}

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()
	p := NewSampleProvider()

	tables, err := p.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "products", "users"}, tables)

	rows, ok, err := p.Rows(ctx, "users")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"id", "name", "email", "age", "city", "active", "created_at"}, rows[0].Columns())
	assert.Equal(t, domain.KindTime, cell(t, rows[0], "created_at").Kind())

	rows[0].Set("name", domain.StringValue("mutated"))
	again, _, _ := p.Rows(ctx, "users")
	assert.Equal(t, "Alice", cell(t, again[0], "name").String())

	_, ok, err = p.Rows(ctx, "ghosts")
	require.NoError(t, err)
	assert.False(t, ok)

	p.Put("ghosts", []domain.Row{domain.MakeRow("id", 1)})
	rows, ok, _ = p.Rows(ctx, "ghosts")
	assert.True(t, ok)
	assert.Len(t, rows, 1)
}

func TestFileProvider(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data/people.yaml", []byte(`
- id: 1
  name: Ada
  joined: 2021-04-01
  score: 9.50
  active: true
  tags: [a, b]
- name: Linus
  id: 2
  joined: "2022-01-02T10:00:00Z"
  score: ~
  active: false
`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "data/orders.json", []byte(`{"rows": [{"id": 7, "amount": "12.5", "note": null}]}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "data/readme.txt", []byte("ignored"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "data/broken.yml", []byte("id: 1"), 0o644))

	p := NewFileProvider(fs, "data")

	tables, err := p.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "orders", "people"}, tables)

	rows, ok, err := p.Rows(ctx, "people")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rows, 2)

	t.Run("Column order follows each object", func(t *testing.T) {
		assert.Equal(t, []string{"id", "name", "joined", "score", "active", "tags"}, rows[0].Columns())
		assert.Equal(t, []string{"name", "id", "joined", "score", "active"}, rows[1].Columns())
	})

	t.Run("Scalars keep their YAML types", func(t *testing.T) {
		assert.Equal(t, domain.KindNumber, cell(t, rows[0], "id").Kind())
		assert.Equal(t, "9.5", cell(t, rows[0], "score").String())
		assert.Equal(t, domain.KindTime, cell(t, rows[0], "joined").Kind())
		assert.Equal(t, domain.KindTime, cell(t, rows[1], "joined").Kind())
		assert.True(t, cell(t, rows[1], "score").IsNull())
		assert.Equal(t, domain.KindBool, cell(t, rows[1], "active").Kind())
		assert.Equal(t, `["a","b"]`, cell(t, rows[0], "tags").String())
	})

	t.Run("JSON files with a rows key", func(t *testing.T) {
		rows, ok, err := p.Rows(ctx, "orders")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.KindString, cell(t, rows[0], "amount").Kind())
		assert.True(t, cell(t, rows[0], "note").IsNull())
	})

	t.Run("Malformed documents", func(t *testing.T) {
		_, _, err := p.Rows(ctx, "broken")
		assert.ErrorIs(t, err, ErrBadDocument)
	})

	t.Run("Unknown and invalid tables", func(t *testing.T) {
		_, ok, err := p.Rows(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		_, _, err = p.Rows(ctx, "../secrets")
		assert.ErrorIs(t, err, ErrInvalidTable)
	})

	t.Run("Missing directory lists nothing", func(t *testing.T) {
		tables, err := NewFileProvider(fs, "nowhere").Tables(ctx)
		require.NoError(t, err)
		assert.Empty(t, tables)
	})
}

type failing struct{ MemoryProvider }

func (f *failing) Name() string { return "failing" }

func (f *failing) Rows(ctx context.Context, table string) ([]domain.Row, bool, error) {
	return nil, false, errors.New("unreachable")
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	first := NewMemoryProvider(map[string][]domain.Row{"users": {domain.MakeRow("id", 99)}})
	chain := Chain{first, NewSampleProvider()}

	rows, ok, err := chain.Rows(ctx, "users")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, rows, 1, "the first provider shadows later ones")

	rows, ok, _ = chain.Rows(ctx, "orders")
	assert.True(t, ok)
	assert.Len(t, rows, 7)

	_, ok, _ = chain.Rows(ctx, "ghosts")
	assert.False(t, ok)

	tables, err := chain.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "products", "users"}, tables)
	assert.Equal(t, "memory+memory", chain.Name())

	_, _, err = Chain{&failing{}, first}.Rows(ctx, "users")
	assert.Error(t, err)
	assert.NoError(t, chain.Close())
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Equal(t, "memory", p.Name())

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "t/users.json", []byte(`[{"id": 1}]`), 0o644))
	p, err = NewProvider(Config{Source: "files", Dir: "t", Fs: fs})
	require.NoError(t, err)
	rows, ok, err := p.Rows(context.Background(), "users")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, rows, 1)
	_, ok, _ = p.Rows(context.Background(), "products")
	assert.True(t, ok, "sample tables back the files source")

	_, err = NewProvider(Config{Source: "sql", Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = NewProvider(Config{Source: "pebble"})
	assert.Error(t, err)

	_, err = NewProvider(Config{Source: "s3"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}
