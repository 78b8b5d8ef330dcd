package domain

import "context"

// RowSource supplies the mock rows of a table. The boolean is false when the
// table is unknown, which consumers treat as having no rows.
type RowSource interface {
	Rows(ctx context.Context, table string) ([]Row, bool, error)
}

// RowSourceFunc adapts a function to RowSource.
type RowSourceFunc func(ctx context.Context, table string) ([]Row, bool, error)

// Rows calls f.
func (f RowSourceFunc) Rows(ctx context.Context, table string) ([]Row, bool, error) {
	return f(ctx, table)
}

// StaticRows serves a fixed table map.
type StaticRows map[string][]Row

// Rows returns the rows stored under table.
func (s StaticRows) Rows(_ context.Context, table string) ([]Row, bool, error) {
	rows, ok := s[table]
	return rows, ok, nil
}
