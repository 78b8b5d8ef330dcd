package dataset

import (
	"context"
	"sort"
	"sync"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
)

// MemoryProvider serves tables held in memory. It is safe for concurrent use.
type MemoryProvider struct {
	mu     sync.RWMutex
	tables map[string][]domain.Row
}

// NewMemoryProvider copies tables into a new provider.
func NewMemoryProvider(tables map[string][]domain.Row) *MemoryProvider {
	m := &MemoryProvider{tables: make(map[string][]domain.Row, len(tables))}
	for name, rows := range tables {
		m.tables[name] = cloneRows(rows)
	}
	return m
}

// NewSampleProvider returns a provider holding the built-in sample dataset.
func NewSampleProvider() *MemoryProvider {
	return NewMemoryProvider(SampleTables())
}

func (m *MemoryProvider) Name() string { return "memory" }

// Rows returns a copy of the table.
func (m *MemoryProvider) Rows(ctx context.Context, table string) ([]domain.Row, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, false, nil
	}
	return cloneRows(rows), true, nil
}

// Put replaces a table.
func (m *MemoryProvider) Put(table string, rows []domain.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = cloneRows(rows)
}

// Tables lists the stored tables.
func (m *MemoryProvider) Tables(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryProvider) Close() error { return nil }

var _ Provider = (*MemoryProvider)(nil)
