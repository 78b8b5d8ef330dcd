package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotObject is returned when a row document is not a JSON object.
var ErrNotObject = errors.New("row is not an object")

// Row is an ordered mapping from column name to value. The zero Row is empty
// and ready to use.
type Row struct {
	cols []string
	vals map[string]Value
}

// MakeRow builds a row from alternating column names and Go values:
// MakeRow("id", 1, "name", "Ada").
func MakeRow(kv ...any) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			name = fmt.Sprint(kv[i])
		}
		r.Set(name, ValueOf(kv[i+1]))
	}
	return r
}

// Set assigns a value, appending the column when it is new.
func (r *Row) Set(col string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, ok := r.vals[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.vals[col] = v
}

// Get returns the value stored under exactly col.
func (r Row) Get(col string) (Value, bool) {
	v, ok := r.vals[col]
	return v, ok
}

// Lookup resolves col, falling back to the part after the last dot for
// qualified names such as users.id.
func (r Row) Lookup(col string) (Value, bool) {
	col = strings.TrimSpace(col)
	if v, ok := r.vals[col]; ok {
		return v, true
	}
	if i := strings.LastIndexByte(col, '.'); i >= 0 {
		v, ok := r.vals[col[i+1:]]
		return v, ok
	}
	return Value{}, false
}

// Columns returns the column names in insertion order.
func (r Row) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// Len is the number of columns.
func (r Row) Len() int { return len(r.cols) }

// Clone returns an independent copy.
func (r Row) Clone() Row {
	out := Row{cols: make([]string, len(r.cols)), vals: make(map[string]Value, len(r.vals))}
	copy(out.cols, r.cols)
	for k, v := range r.vals {
		out.vals[k] = v
	}
	return out
}

// With returns a copy of r with col set to v.
func (r Row) With(col string, v Value) Row {
	out := r.Clone()
	out.Set(col, v)
	return out
}

// Project keeps only cols, in that order. Columns the row lacks become NULL.
func (r Row) Project(cols []string) Row {
	var out Row
	for _, c := range cols {
		v, ok := r.Lookup(c)
		if !ok {
			v = NullValue()
		}
		out.Set(c, v)
	}
	return out
}

// Map returns the row as native Go values.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.cols))
	for _, c := range r.cols {
		out[c] = r.vals[c].Interface()
	}
	return out
}

// Equal reports whether both rows hold the same columns in the same order.
func (r Row) Equal(o Row) bool {
	if len(r.cols) != len(o.cols) {
		return false
	}
	for i, c := range r.cols {
		if o.cols[i] != c || !r.vals[c].Equal(o.vals[c]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the row as an object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.vals[c].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping the key order of the document.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}
	var out Row
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		v, err := scalarValue(raw)
		if err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}
