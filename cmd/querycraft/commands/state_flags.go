package commands

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/querycraft/internal/config"
	"github.com/satishbabariya/querycraft/internal/core/query/condparse"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/repl"
	"github.com/satishbabariya/querycraft/internal/statefile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// stateFlags builds a query state from an optional state file plus flag
// overrides. Only flags given on the command line override the file.
type stateFlags struct {
	file       string
	queryType  string
	table      string
	columns    []string
	aggregates []string
	distinct   bool
	where      string
	joins      []string
	groupBy    []string
	having     string
	order      string
	limit      int
	offset     int
	set        []string

	flags *pflag.FlagSet
}

func (f *stateFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.file, "state", "s", "", "State document (YAML or JSON)")
	fs.StringVar(&f.queryType, "type", "", "Statement kind: select, insert, update or delete")
	fs.StringVarP(&f.table, "table", "t", "", "Table name")
	fs.StringSliceVarP(&f.columns, "columns", "c", nil, "Columns, comma separated")
	fs.StringArrayVar(&f.aggregates, "agg", nil, "Aggregate such as 'COUNT(*) AS total' (repeatable)")
	fs.BoolVar(&f.distinct, "distinct", false, "Select distinct rows")
	fs.StringVarP(&f.where, "where", "w", "", "WHERE conditions, e.g. \"age > 18 AND city = 'Oslo'\"")
	fs.StringArrayVar(&f.joins, "join", nil, "Join such as 'left users on orders.user_id = users.id' (repeatable)")
	fs.StringSliceVar(&f.groupBy, "group", nil, "GROUP BY columns, comma separated")
	fs.StringVar(&f.having, "having", "", "HAVING conditions, e.g. 'COUNT(*) > 1'")
	fs.StringVarP(&f.order, "order", "o", "", "Sort keys, e.g. 'age desc, name'")
	fs.IntVarP(&f.limit, "limit", "l", 0, "LIMIT; negative clears it")
	fs.IntVar(&f.offset, "offset", 0, "OFFSET; negative clears it")
	fs.StringArrayVar(&f.set, "set", nil, "INSERT/UPDATE value as col=value (repeatable)")
	f.flags = fs
}

func (f *stateFlags) changed(name string) bool {
	return f.flags != nil && f.flags.Changed(name)
}

// resolve returns the state described by the file and flags.
func (f *stateFlags) resolve() (domain.State, error) {
	var state domain.State
	if f.file != "" {
		loaded, err := statefile.Load(config.AppFs, f.file)
		if err != nil {
			return domain.State{}, err
		}
		state = loaded
	}

	if f.changed("type") {
		qt := domain.QueryType(strings.ToUpper(strings.TrimSpace(f.queryType)))
		switch qt {
		case domain.Select, domain.Insert, domain.Update, domain.Delete:
			state.QueryType = qt
		default:
			return domain.State{}, fmt.Errorf("--type must be select, insert, update or delete, got %q", f.queryType)
		}
	}
	if f.changed("table") {
		state.Table = f.table
	}
	if f.changed("columns") {
		state.Columns = trimAll(f.columns)
	}
	if f.changed("agg") {
		state.Aggregates = nil
		for _, text := range f.aggregates {
			agg, err := repl.ParseAggregate(text)
			if err != nil {
				return domain.State{}, fmt.Errorf("--agg: %w", err)
			}
			state.Aggregates = append(state.Aggregates, agg)
		}
	}
	if f.changed("distinct") {
		state.Distinct = f.distinct
	}
	if f.changed("where") {
		conds, err := condparse.ParseWhere(f.where)
		if err != nil {
			return domain.State{}, fmt.Errorf("--where: %w", err)
		}
		state.WhereConditions = conds
	}
	if f.changed("join") {
		state.Joins = nil
		for _, text := range f.joins {
			j, err := repl.ParseJoin(text)
			if err != nil {
				return domain.State{}, fmt.Errorf("--join: %w", err)
			}
			state.Joins = append(state.Joins, j)
		}
	}
	if f.changed("group") {
		state.GroupBy = trimAll(f.groupBy)
	}
	if f.changed("having") {
		having, err := condparse.ParseHaving(f.having)
		if err != nil {
			return domain.State{}, fmt.Errorf("--having: %w", err)
		}
		state.Having = having
	}
	if f.changed("order") {
		keys, err := repl.ParseOrder(f.order)
		if err != nil {
			return domain.State{}, fmt.Errorf("--order: %w", err)
		}
		state.OrderBy = keys
	}
	if f.changed("limit") {
		state.Limit = optionalCount(f.limit)
	}
	if f.changed("offset") {
		state.Offset = optionalCount(f.offset)
	}
	if f.changed("set") {
		values := make(map[string]string, len(state.InsertValues)+len(f.set))
		for k, v := range state.InsertValues {
			values[k] = v
		}
		for _, pair := range f.set {
			k, v, ok := strings.Cut(pair, "=")
			if k = strings.TrimSpace(k); !ok || k == "" {
				return domain.State{}, fmt.Errorf("--set expects col=value, got %q", pair)
			}
			values[k] = v
		}
		state.InsertValues = values
	}
	return state, nil
}

func optionalCount(n int) *int {
	if n < 0 {
		return nil
	}
	return domain.IntPtr(n)
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
