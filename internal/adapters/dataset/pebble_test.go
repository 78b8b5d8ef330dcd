package dataset

import (
	"context"
	"testing"
	"time"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemStore(t *testing.T) *PebbleStore {
	t.Helper()
	s, err := OpenPebbleStore(PebbleConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestPebbleStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemStore(t)

	in := []domain.Row{
		domain.MakeRow("id", 1, "name", "Ada", "score", decimal.RequireFromString("9.75"), "active", true, "joined", domain.TimeValue("2021-04-01"), "city", nil),
		domain.MakeRow("name", "Linus", "id", 2, "extra", "x"),
	}
	info, err := s.Import(ctx, "people", in)
	require.NoError(t, err)
	assert.Equal(t, TableInfo{
		Name:       "people",
		Columns:    []string{"id", "name", "score", "active", "joined", "city", "extra"},
		Rows:       2,
		ImportedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}, info)

	out, ok, err := s.Rows(ctx, "people")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, out, 2)
	for i := range in {
		assert.True(t, in[i].Equal(out[i]), "row %d", i)
		assert.Equal(t, in[i].Columns(), out[i].Columns())
	}
	joined, _ := out[0].Get("joined")
	assert.Equal(t, domain.KindTime, joined.Kind())
}

func TestPebbleStoreReplaceAndDrop(t *testing.T) {
	ctx := context.Background()
	s := openMemStore(t)

	_, err := s.Import(ctx, "a", []domain.Row{domain.MakeRow("id", 1), domain.MakeRow("id", 2), domain.MakeRow("id", 3)})
	require.NoError(t, err)
	_, err = s.Import(ctx, "ab", []domain.Row{domain.MakeRow("id", 10)})
	require.NoError(t, err)
	_, err = s.Import(ctx, "a", []domain.Row{domain.MakeRow("id", 4)})
	require.NoError(t, err)

	rows, _, err := s.Rows(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rows, 1, "import replaces the table")

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ab"}, tables)

	dropped, err := s.Drop(ctx, "a")
	require.NoError(t, err)
	assert.True(t, dropped)
	dropped, err = s.Drop(ctx, "a")
	require.NoError(t, err)
	assert.False(t, dropped)

	_, ok, err := s.Rows(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	rows, ok, _ = s.Rows(ctx, "ab")
	assert.True(t, ok)
	assert.Len(t, rows, 1)

	_, err = s.Import(ctx, "bad name", nil)
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestPebbleStoreEmptyTableAndClose(t *testing.T) {
	ctx := context.Background()
	s := openMemStore(t)

	_, err := s.Import(ctx, "empty", nil)
	require.NoError(t, err)
	rows, ok, err := s.Rows(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rows)

	require.NoError(t, s.Close())
	_, _, err = s.Rows(ctx, "empty")
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, s.Close())
}
