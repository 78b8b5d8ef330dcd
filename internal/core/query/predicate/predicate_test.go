package predicate

import (
	"strings"
	"testing"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/stretchr/testify/assert"
)

func cond(col string, op domain.Operator, val string) domain.Condition {
	return domain.Condition{Column: col, Operator: op, Value: val}
}

func TestEvaluateOperators(t *testing.T) {
	row := domain.MakeRow(
		"id", 7,
		"name", "Alice",
		"age", "30",
		"email", "",
		"deleted_at", nil,
		"active", true,
		"created_at", domain.InferString("2024-03-10T08:00:00Z"),
	)

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"numeric equality", cond("id", domain.Eq, "7"), true},
		{"numeric equality ignores formatting", cond("id", domain.Eq, "7.0"), true},
		{"numeric ordering beats lexical", cond("age", domain.Gt, "4"), true},
		{"string equality is case-sensitive", cond("name", domain.Eq, "alice"), false},
		{"string inequality", cond("name", domain.NotEq, "Bob"), true},
		{"less or equal", cond("id", domain.Lte, "7"), true},
		{"greater or equal", cond("id", domain.Gte, "8"), false},
		{"string ordering", cond("name", domain.Lt, "Bob"), true},
		{"alias for not equal", cond("id", "<>", "8"), true},
		{"timestamps compare chronologically", cond("created_at", domain.Gt, "2024-03-09"), true},
		{"timestamps before", cond("created_at", domain.Lt, "2024-01-01T00:00:00Z"), false},
		{"boolean equality", cond("active", domain.Eq, "TRUE"), true},
		{"like contains", cond("name", domain.Like, "%lic%"), true},
		{"like single character", cond("name", domain.Like, "A_ice"), true},
		{"like is anchored", cond("name", domain.Like, "lic"), false},
		{"like is case-sensitive", cond("name", domain.Like, "a%"), false},
		{"lower case operator", cond("name", "like", "A%"), true},
		{"in list", cond("id", domain.In, "1, 7 ,9"), true},
		{"in list miss", cond("id", domain.In, "1,2"), false},
		{"not in list", cond("id", domain.NotIn, "1,2"), true},
		{"empty in list", cond("id", domain.In, ""), false},
		{"empty not in list", cond("id", domain.NotIn, " , "), true},
		{"is null on empty string", cond("email", domain.IsNull, ""), true},
		{"is null on null", cond("deleted_at", domain.IsNull, ""), true},
		{"is not null", cond("name", domain.IsNotNull, ""), true},
		{"is not null on null", cond("deleted_at", domain.IsNotNull, ""), false},
		{"null fails comparisons", cond("deleted_at", domain.NotEq, "x"), false},
		{"null fails not in", cond("deleted_at", domain.NotIn, "x"), false},
		{"missing column", cond("nope", domain.IsNull, ""), false},
		{"missing column inequality", cond("nope", domain.NotEq, "x"), false},
		{"qualified column", cond("users.name", domain.Eq, "Alice"), true},
		{"unknown operator", cond("name", "~", "Alice"), false},
		{"huge exponent compares as text", cond("age", domain.Gt, "1e100000000"), true},
		{"huge negative exponent compares as text", cond("age", domain.Lt, "1e-100000000"), false},
		{"largest exponent stays numeric", cond("age", domain.Lt, "1e1000"), true},
		{"tiny operand stays numeric", cond("age", domain.Gt, "1e-1000"), true},
		{"long integer operand", cond("id", domain.Lt, "123456789012345678901234567890"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.cond, row))
		})
	}
}

func TestChainIsFlatLeftFold(t *testing.T) {
	row := domain.MakeRow("a", 1, "b", 2, "c", 3)

	// a = 1 OR b = 0 AND c = 4 folds as (true OR false) AND false. SQL
	// precedence would read it as true OR (false AND false).
	chain := NewChain([]domain.Condition{
		cond("a", domain.Eq, "1"),
		{Column: "b", Operator: domain.Eq, Value: "0", Conjunction: domain.Or},
		{Column: "c", Operator: domain.Eq, Value: "4", Conjunction: domain.And},
	})
	assert.False(t, chain.Match(row))

	// true AND false OR true folds to true.
	chain = NewChain([]domain.Condition{
		cond("a", domain.Eq, "1"),
		{Column: "b", Operator: domain.Eq, Value: "0"},
		{Column: "c", Operator: domain.Eq, Value: "3", Conjunction: "or"},
	})
	assert.True(t, chain.Match(row))

	// The first conjunction is ignored.
	chain = NewChain([]domain.Condition{
		{Column: "a", Operator: domain.Eq, Value: "2", Conjunction: domain.Or},
	})
	assert.False(t, chain.Match(row))

	assert.True(t, NewChain(nil).Match(row))
}

func TestFilterKeepsOrder(t *testing.T) {
	rows := []domain.Row{
		domain.MakeRow("status", "active"),
		domain.MakeRow("status", "inactive"),
		domain.MakeRow("status", "active", "id", 3),
	}
	out := NewChain([]domain.Condition{cond("status", domain.Eq, "active")}).Filter(rows)
	assert.Len(t, out, 2)
	assert.True(t, out[0].Equal(rows[0]))
	assert.True(t, out[1].Equal(rows[2]))
}

func TestLikeProperty(t *testing.T) {
	values := []string{"abc", "xabcx", "ab", "ABC", "a.b.c", "zzabc", "abcabc"}
	for _, v := range values {
		assert.Equal(t, strings.Contains(v, "abc"), Like(v, "%abc%"), v)
	}
	assert.True(t, Like("a.b", "a.b"))
	assert.False(t, Like("axb", "a.b"))
	assert.True(t, Like("line\nbreak", "line%"))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(domain.NullValue(), domain.IntValue(1)))
	assert.Equal(t, 1, Compare(domain.StringValue("a"), domain.NullValue()))
	assert.Equal(t, 0, Compare(domain.NullValue(), domain.NullValue()))
	assert.Equal(t, -1, Compare(domain.StringValue("9"), domain.IntValue(10)))
	assert.Equal(t, 1, Compare(domain.StringValue("b"), domain.StringValue("B")))
	assert.Equal(t, -1, Compare(
		domain.InferString("2024-01-01T10:00:00+02:00"),
		domain.InferString("2024-01-01T09:00:00Z"),
	))
}

func TestCompareExtremeNumbers(t *testing.T) {
	huge := domain.StringValue("1e100000000")
	assert.Equal(t, -1, Compare(huge, domain.IntValue(5)))
	assert.Equal(t, 1, Compare(domain.IntValue(5), huge))
	assert.Equal(t, 0, Compare(huge, domain.StringValue("1e100000000")))
	assert.Equal(t, 1, Compare(domain.StringValue("1e1000"), domain.IntValue(5)))
	assert.Equal(t, -1, Compare(domain.StringValue("-1e1000"), domain.IntValue(-5)))
}
