package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/debug"
)

// DefaultMaxRows bounds how many rows SQLProvider copies per table.
const DefaultMaxRows = 1000

// SQLProvider snapshots tables from a live database. It only reads with
// SELECT * ... LIMIT and never runs a compiled statement.
type SQLProvider struct {
	db      *sql.DB
	driver  string
	maxRows int
}

// NewSQLProvider opens a database with one of the postgres, mysql or sqlite3
// drivers.
func NewSQLProvider(driver, dsn string, maxRows int) (*SQLProvider, error) {
	if !slices.Contains([]string{"postgres", "mysql", "sqlite3"}, driver) {
		return nil, fmt.Errorf("%w: sql driver %q", ErrUnknownSource, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	return NewSQLProviderFromDB(db, driver, maxRows), nil
}

// NewSQLProviderFromDB wraps an open handle.
func NewSQLProviderFromDB(db *sql.DB, driver string, maxRows int) *SQLProvider {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &SQLProvider{db: db, driver: driver, maxRows: maxRows}
}

func (p *SQLProvider) Name() string { return "sql" }

// Tables lists base tables in the current schema.
func (p *SQLProvider) Tables(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, p.tablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *SQLProvider) tablesQuery() string {
	switch p.driver {
	case "mysql":
		return `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name`
	case "sqlite3":
		return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	default:
		return `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`
	}
}

// Rows copies up to maxRows rows of table.
func (p *SQLProvider) Rows(ctx context.Context, table string) ([]domain.Row, bool, error) {
	if err := checkTable(table); err != nil {
		return nil, false, err
	}
	tables, err := p.Tables(ctx)
	if err != nil {
		return nil, false, err
	}
	if !slices.Contains(tables, table) {
		return nil, false, nil
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", p.quote(table), p.maxRows)
	debug.Debug("Snapshotting table", "driver", p.driver, "query", query)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, false, err
	}
	out := []domain.Row{}
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, false, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		var row domain.Row
		for i, col := range cols {
			row.Set(col, cellValue(cells[i]))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// quote quotes each dotted part of an identifier for the dialect.
func (p *SQLProvider) quote(name string) string {
	q := `"`
	if p.driver == "mysql" {
		q = "`"
	}
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = q + strings.ReplaceAll(part, q, q+q) + q
	}
	return strings.Join(parts, ".")
}

// cellValue converts a scanned cell. Text protocols hand numbers back as
// bytes, so byte slices holding a number become numbers.
func cellValue(cell any) domain.Value {
	if b, ok := cell.([]byte); ok {
		s := string(b)
		if d, ok := domain.ParseNumber(s); ok {
			return domain.NumberValue(d)
		}
		return domain.InferString(s)
	}
	return domain.ValueOf(cell)
}

func (p *SQLProvider) Close() error {
	return p.db.Close()
}

var _ Provider = (*SQLProvider)(nil)
