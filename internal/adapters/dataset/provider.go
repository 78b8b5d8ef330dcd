// Package dataset supplies the mock rows previews run against.
//
// Providers never execute a compiled statement. They hand back table
// snapshots and the engine simulates the query over them.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
)

var (
	// ErrUnknownSource is returned by NewProvider for unsupported sources.
	ErrUnknownSource = errors.New("unknown dataset source")
	// ErrInvalidTable is returned for table names that are not identifiers.
	ErrInvalidTable = errors.New("invalid table name")
	// ErrClosed is returned by providers used after Close.
	ErrClosed = errors.New("dataset closed")
)

// Provider is a named source of table snapshots.
type Provider interface {
	domain.RowSource

	// Name identifies the provider kind in logs and telemetry.
	Name() string

	// Tables lists the tables the provider can serve, sorted.
	Tables(ctx context.Context) ([]string, error)

	// Close releases any held resources.
	Close() error
}

var tableRe = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_$]*(\.[\p{L}_][\p{L}\p{N}_$]*)?$`)

// ValidTable reports whether name is a plain or schema-qualified identifier.
func ValidTable(name string) bool {
	return tableRe.MatchString(name)
}

func checkTable(name string) error {
	if !ValidTable(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	return nil
}

func cloneRows(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
