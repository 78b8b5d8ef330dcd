package repl

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/domain"
)

// ParseList splits a comma-separated list, dropping blank items.
func ParseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseOrder reads "age desc, name" into sort keys.
func ParseOrder(s string) ([]domain.OrderBy, error) {
	var keys []domain.OrderBy
	for _, item := range ParseList(s) {
		fields := strings.Fields(item)
		key := domain.OrderBy{Column: fields[0], Direction: domain.Asc}
		switch {
		case len(fields) == 1:
		case len(fields) == 2 && strings.EqualFold(fields[1], "desc"):
			key.Direction = domain.Desc
		case len(fields) == 2 && strings.EqualFold(fields[1], "asc"):
		default:
			return nil, fmt.Errorf("%w: order <col> [asc|desc], got %q", ErrUsage, item)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ParseAggregate reads "COUNT(*) AS total" or "sum(amount)".
func ParseAggregate(s string) (domain.Aggregate, error) {
	bad := fmt.Errorf("%w: agg <FUNC(col)> [as alias], got %q", ErrUsage, s)
	open, closing := strings.Index(s, "("), strings.Index(s, ")")
	if open <= 0 || closing < open {
		return domain.Aggregate{}, bad
	}
	agg := domain.Aggregate{
		Function: domain.AggregateFunc(strings.TrimSpace(s[:open])).Normalize(),
		Column:   strings.TrimSpace(s[open+1 : closing]),
	}
	if agg.Column == "" {
		agg.Column = domain.Wildcard
	}
	rest := strings.Fields(s[closing+1:])
	switch {
	case len(rest) == 0:
	case len(rest) == 2 && strings.EqualFold(rest[0], "as"):
		agg.Alias = rest[1]
	case len(rest) == 1:
		agg.Alias = rest[0]
	default:
		return domain.Aggregate{}, bad
	}
	return agg, nil
}

// ParseJoin reads "[inner|left|right] <table> on <a> = <b>".
func ParseJoin(s string) (domain.Join, error) {
	bad := fmt.Errorf("%w: join [inner|left|right] <table> on <a> = <b>, got %q", ErrUsage, s)
	fields := strings.Fields(strings.Replace(s, "=", " = ", 1))
	j := domain.Join{Type: domain.InnerJoin}
	if len(fields) > 0 {
		switch strings.ToUpper(fields[0]) {
		case string(domain.InnerJoin), string(domain.LeftJoin), string(domain.RightJoin):
			j.Type = domain.JoinType(fields[0]).Normalize()
			fields = fields[1:]
		}
	}
	if len(fields) != 5 || !strings.EqualFold(fields[1], "on") || fields[3] != "=" {
		return domain.Join{}, bad
	}
	j.Table, j.OnLeft, j.OnRight = fields[0], fields[2], fields[4]
	return j, nil
}

// ParseAssignments reads "name=Ada 'city=New York'"-style pairs. Values may
// be single or double quoted to keep spaces.
func ParseAssignments(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, tok := range splitQuoted(s) {
		k, v, ok := strings.Cut(tok, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", ErrUsage, tok)
		}
		out[k] = v
	}
	return out, nil
}

func splitQuoted(s string) []string {
	var (
		out    []string
		cur    strings.Builder
		quote  rune
		quoted bool
	)
	for _, r := range s {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"'):
			quote, quoted = r, true
		case quote == 0 && (r == ' ' || r == '\t'):
			if cur.Len() > 0 || quoted {
				out = append(out, cur.String())
				cur.Reset()
				quoted = false
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 || quoted {
		out = append(out, cur.String())
	}
	return out
}
