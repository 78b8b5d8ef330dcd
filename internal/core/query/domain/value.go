package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a dynamically typed cell of a mock row.
//
// Numbers are exact decimals. Time values keep the text they were read from
// so they render back unchanged.
type Value struct {
	kind Kind
	text string
	num  decimal.Decimal
	b    bool
	t    time.Time
}

// NullValue returns the SQL NULL value.
func NullValue() Value { return Value{} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, text: s} }

// NumberValue wraps a decimal.
func NumberValue(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

// IntValue wraps an integer.
func IntValue(n int64) Value { return NumberValue(decimal.NewFromInt(n)) }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return NumberValue(decimal.NewFromFloat(f)) }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue parses s as a timestamp. It falls back to a string value when s
// is not a recognised timestamp.
func TimeValue(s string) Value {
	t, ok := ParseTime(s)
	if !ok {
		return StringValue(s)
	}
	return Value{kind: KindTime, text: s, t: t}
}

// InferString returns a time value for timestamp-shaped strings and a string
// value otherwise. Document loaders use it for quoted scalars.
func InferString(s string) Value {
	if t, ok := ParseTime(s); ok {
		return Value{kind: KindTime, text: s, t: t}
	}
	return StringValue(s)
}

// ValueOf converts a Go value into a Value.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return NullValue()
	case Value:
		return x
	case string:
		return StringValue(x)
	case []byte:
		return StringValue(string(x))
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return NumberValue(decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(x)), 0))
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		return NumberValue(decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0))
	case float32:
		return NumberValue(decimal.NewFromFloat32(x))
	case float64:
		return FloatValue(x)
	case decimal.Decimal:
		return NumberValue(x)
	case json.Number:
		if d, ok := ParseNumber(x.String()); ok {
			return NumberValue(d)
		}
		return StringValue(x.String())
	case time.Time:
		return Value{kind: KindTime, text: x.Format(time.RFC3339Nano), t: x}
	case fmt.Stringer:
		return StringValue(x.String())
	default:
		return StringValue(fmt.Sprint(v))
	}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBlank reports whether v is NULL or the empty string.
func (v Value) IsBlank() bool {
	return v.kind == KindNull || (v.kind == KindString && v.text == "")
}

// String renders the value as plain text. NULL renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString, KindTime:
		return v.text
	case KindNumber:
		return v.num.String()
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Number returns the numeric reading of v. Strings holding a number coerce.
func (v Value) Number() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		return ParseNumber(v.text)
	default:
		return decimal.Zero, false
	}
}

// Time returns the timestamp reading of v. Strings holding a timestamp
// coerce.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindTime:
		return v.t, true
	case KindString:
		return ParseTime(v.text)
	default:
		return time.Time{}, false
	}
}

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Interface returns the closest native Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindString, KindTime:
		return v.text
	case KindNumber:
		if v.num.IsInteger() && v.num.Abs().LessThan(maxExactInt) {
			return v.num.IntPart()
		}
		f, _ := v.num.Float64()
		return f
	case KindBool:
		return v.b
	default:
		return nil
	}
}

var maxExactInt = decimal.NewFromInt(1 << 53)

// Equal reports whether both values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num.Equal(o.num)
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindString:
		return v.text == o.text
	default:
		return true
	}
}

// MarshalJSON encodes numbers as JSON numbers and timestamps as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString, KindTime:
		return json.Marshal(v.text)
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := scalarValue(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func scalarValue(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return InferString(x), nil
	case nil, bool, json.Number:
		return ValueOf(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported cell type %T", raw)
	}
}

// MaxExponent bounds the decimal exponent ParseNumber accepts. Comparing
// decimals rescales them to a common exponent, so 1e100000000 would need a
// hundred-million digit integer.
const MaxExponent = 1000

// ParseNumber reads s as an exact decimal after trimming spaces. Readings
// whose exponent lies outside ±MaxExponent are not numbers.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > MaxExponent || exp < -MaxExponent {
		return decimal.Zero, false
	}
	return d, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime reads s as an ISO-8601 timestamp or date.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len("2006-01-02") {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
