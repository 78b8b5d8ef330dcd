package dataset

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/debug"
	"github.com/vmihailenco/msgpack/v5"
)

// Key layout:
//
//	m/<table>                  table metadata
//	r/<table>\x00<seq uint64>  one row, in import order
const (
	metaPrefix = "m/"
	rowPrefix  = "r/"
)

// PebbleConfig configures a PebbleStore.
type PebbleConfig struct {
	// Path is the store directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps the store on an in-memory filesystem.
	InMemory bool
}

// TableInfo describes an imported table.
type TableInfo struct {
	Name       string    `msgpack:"n" json:"name"`
	Columns    []string  `msgpack:"c" json:"columns"`
	Rows       int       `msgpack:"r" json:"rows"`
	ImportedAt time.Time `msgpack:"t" json:"importedAt"`
}

type storedRow struct {
	Cols []string      `msgpack:"c"`
	Vals []storedValue `msgpack:"v"`
}

type storedValue struct {
	Kind domain.Kind `msgpack:"k"`
	Text string      `msgpack:"t,omitempty"`
}

// PebbleStore persists imported tables in a pebble database.
type PebbleStore struct {
	db     *pebble.DB
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// OpenPebbleStore opens or creates a store.
func OpenPebbleStore(cfg PebbleConfig) (*PebbleStore, error) {
	opts := &pebble.Options{}
	path := cfg.Path
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
		path = "querycraft"
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &PebbleStore{db: db, now: time.Now}, nil
}

func (s *PebbleStore) Name() string { return "pebble" }

// Import replaces table with rows.
func (s *PebbleStore) Import(ctx context.Context, table string, rows []domain.Row) (TableInfo, error) {
	if err := checkTable(table); err != nil {
		return TableInfo{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return TableInfo{}, ErrClosed
	}

	info := TableInfo{Name: table, Rows: len(rows), ImportedAt: s.now().UTC()}
	seen := make(map[string]bool)

	batch := s.db.NewBatch()
	defer batch.Close()

	lo, hi := rowBounds(table)
	if err := batch.DeleteRange(lo, hi, nil); err != nil {
		return TableInfo{}, fmt.Errorf("pebble delete range: %w", err)
	}
	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return TableInfo{}, err
		}
		data, err := msgpack.Marshal(encodeRow(r))
		if err != nil {
			return TableInfo{}, fmt.Errorf("encode row %d: %w", i+1, err)
		}
		if err := batch.Set(rowKey(table, uint64(i)), data, nil); err != nil {
			return TableInfo{}, fmt.Errorf("pebble set: %w", err)
		}
		for _, c := range r.Columns() {
			if !seen[c] {
				seen[c] = true
				info.Columns = append(info.Columns, c)
			}
		}
	}
	meta, err := msgpack.Marshal(info)
	if err != nil {
		return TableInfo{}, fmt.Errorf("encode table info: %w", err)
	}
	if err := batch.Set([]byte(metaPrefix+table), meta, nil); err != nil {
		return TableInfo{}, fmt.Errorf("pebble set: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return TableInfo{}, fmt.Errorf("pebble commit: %w", err)
	}
	debug.Debug("Imported table", "table", table, "rows", len(rows))
	return info, nil
}

// Drop deletes table. It reports whether the table existed.
func (s *PebbleStore) Drop(ctx context.Context, table string) (bool, error) {
	if err := checkTable(table); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}

	if _, ok, err := s.info(table); err != nil || !ok {
		return false, err
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	lo, hi := rowBounds(table)
	if err := batch.DeleteRange(lo, hi, nil); err != nil {
		return false, fmt.Errorf("pebble delete range: %w", err)
	}
	if err := batch.Delete([]byte(metaPrefix+table), nil); err != nil {
		return false, fmt.Errorf("pebble delete: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return false, fmt.Errorf("pebble commit: %w", err)
	}
	return true, nil
}

// Info returns the metadata of an imported table.
func (s *PebbleStore) Info(ctx context.Context, table string) (TableInfo, bool, error) {
	if err := checkTable(table); err != nil {
		return TableInfo{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return TableInfo{}, false, ErrClosed
	}
	return s.info(table)
}

func (s *PebbleStore) info(table string) (TableInfo, bool, error) {
	data, closer, err := s.db.Get([]byte(metaPrefix + table))
	if errors.Is(err, pebble.ErrNotFound) {
		return TableInfo{}, false, nil
	}
	if err != nil {
		return TableInfo{}, false, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()

	var info TableInfo
	if err := msgpack.Unmarshal(data, &info); err != nil {
		return TableInfo{}, false, fmt.Errorf("decode table info: %w", err)
	}
	return info, true, nil
}

// Rows reads an imported table in import order.
func (s *PebbleStore) Rows(ctx context.Context, table string) ([]domain.Row, bool, error) {
	if err := checkTable(table); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}

	info, ok, err := s.info(table)
	if err != nil || !ok {
		return nil, false, err
	}

	lo, hi := rowBounds(table)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, false, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	rows := make([]domain.Row, 0, info.Rows)
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		var sr storedRow
		if err := msgpack.Unmarshal(iter.Value(), &sr); err != nil {
			return nil, false, fmt.Errorf("decode row: %w", err)
		}
		rows = append(rows, decodeRow(sr))
	}
	if err := iter.Error(); err != nil {
		return nil, false, fmt.Errorf("pebble iter: %w", err)
	}
	return rows, true, nil
}

// Tables lists imported tables.
func (s *PebbleStore) Tables(ctx context.Context) ([]string, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names, nil
}

// List returns the metadata of every imported table, sorted by name.
func (s *PebbleStore) List(ctx context.Context) ([]TableInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(metaPrefix),
		UpperBound: prefixEnd([]byte(metaPrefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	infos := []TableInfo{}
	for iter.First(); iter.Valid(); iter.Next() {
		var info TableInfo
		if err := msgpack.Unmarshal(iter.Value(), &info); err != nil {
			return nil, fmt.Errorf("decode table info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, iter.Error()
}

// Close closes the database.
func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func rowKey(table string, seq uint64) []byte {
	key := append([]byte(rowPrefix+table), 0)
	return binary.BigEndian.AppendUint64(key, seq)
}

func rowBounds(table string) ([]byte, []byte) {
	lo := append([]byte(rowPrefix+table), 0)
	hi := append([]byte(rowPrefix+table), 1)
	return lo, hi
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	end[len(end)-1]++
	return end
}

func encodeRow(r domain.Row) storedRow {
	cols := r.Columns()
	sr := storedRow{Cols: cols, Vals: make([]storedValue, len(cols))}
	for i, c := range cols {
		v, _ := r.Get(c)
		sr.Vals[i] = storedValue{Kind: v.Kind(), Text: v.String()}
	}
	return sr
}

func decodeRow(sr storedRow) domain.Row {
	var r domain.Row
	for i, c := range sr.Cols {
		if i >= len(sr.Vals) {
			r.Set(c, domain.NullValue())
			continue
		}
		r.Set(c, decodeValue(sr.Vals[i]))
	}
	return r
}

func decodeValue(sv storedValue) domain.Value {
	switch sv.Kind {
	case domain.KindString:
		return domain.StringValue(sv.Text)
	case domain.KindNumber:
		if d, ok := domain.ParseNumber(sv.Text); ok {
			return domain.NumberValue(d)
		}
		return domain.StringValue(sv.Text)
	case domain.KindBool:
		return domain.BoolValue(sv.Text == "true")
	case domain.KindTime:
		return domain.TimeValue(sv.Text)
	default:
		return domain.NullValue()
	}
}

var _ Provider = (*PebbleStore)(nil)
