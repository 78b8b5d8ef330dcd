package dataset

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
)

// Chain asks each provider in turn. The first that knows a table serves it.
type Chain []Provider

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

// Rows returns the table from the first provider that has it.
func (c Chain) Rows(ctx context.Context, table string) ([]domain.Row, bool, error) {
	for _, p := range c {
		rows, ok, err := p.Rows(ctx, table)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return rows, true, nil
		}
	}
	return nil, false, nil
}

// Tables returns the union of every provider's tables.
func (c Chain) Tables(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	names := []string{}
	for _, p := range c {
		tables, err := p.Tables(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			if !seen[t] {
				seen[t] = true
				names = append(names, t)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close closes every provider.
func (c Chain) Close() error {
	var errs []error
	for _, p := range c {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

var _ Provider = Chain(nil)
