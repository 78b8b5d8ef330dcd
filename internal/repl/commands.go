// Package repl edits a query state one command at a time.
package repl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/querycraft/internal/core/query/condparse"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
)

// ErrUnknownCommand is returned for lines that start with no known command.
var ErrUnknownCommand = errors.New("unknown command")

// ErrUsage is wrapped by every malformed-argument error.
var ErrUsage = errors.New("usage")

// ActionKind says what the caller should do after a command.
type ActionKind int

const (
	// ActionEdit means the state changed and the statement should be
	// redisplayed.
	ActionEdit ActionKind = iota
	// ActionNone means nothing changed.
	ActionNone
	ActionShow
	ActionExplain
	ActionLint
	ActionRun
	ActionState
	ActionTables
	ActionRecipes
	ActionRecipe
	ActionSave
	ActionLoad
	ActionUndo
	ActionHelp
	ActionQuit
)

// Action is the side effect requested by a command.
type Action struct {
	Kind ActionKind
	// Arg is the path of save/load or the id of a recipe.
	Arg string
	// Params are recipe parameters.
	Params map[string]string
}

type command struct {
	name  string
	usage string
	help  string
	run   func(state domain.State, args string) (domain.State, Action, error)
}

var commands []command

func init() {
	commands = []command{
		{"type", "type select|insert|update|delete", "Set the statement kind", cmdType},
		{"from", "from <table>", "Set the table", cmdFrom},
		{"select", "select <col, ...>|*", "Set the projected columns", cmdSelect},
		{"agg", "agg <FUNC(col)> [as alias]", "Add an aggregate; 'agg clear' removes all", cmdAggregate},
		{"distinct", "distinct [on|off]", "Toggle DISTINCT", cmdDistinct},
		{"where", "where <conditions>|clear", "Add AND conditions, e.g. where age > 18", cmdWhere},
		{"or", "or <conditions>", "Add conditions linked with OR", cmdOr},
		{"join", "join [inner|left|right] <table> on <a> = <b>|clear", "Add a join", cmdJoin},
		{"group", "group <col, ...>|clear", "Set GROUP BY columns", cmdGroup},
		{"having", "having <FUNC(col) op value>|clear", "Add HAVING conditions", cmdHaving},
		{"order", "order <col> [asc|desc], ...|clear", "Set the sort keys", cmdOrder},
		{"limit", "limit <n>|none", "Set or clear LIMIT", cmdLimit},
		{"offset", "offset <n>|none", "Set or clear OFFSET", cmdOffset},
		{"set", "set <col>=<value> ...", "Set INSERT/UPDATE values", cmdSet},
		{"unset", "unset <col> ...", "Remove INSERT/UPDATE values", cmdUnset},
		{"reset", "reset", "Start over from an empty state", cmdReset},
		{"undo", "undo", "Revert the last edit", simple(ActionUndo)},
		{"sql", "sql", "Show the compiled statement", simple(ActionShow)},
		{"explain", "explain", "Explain the statement", simple(ActionExplain)},
		{"lint", "lint", "Show hints", simple(ActionLint)},
		{"run", "run", "Preview the result rows", simple(ActionRun)},
		{"state", "state", "Print the state document", simple(ActionState)},
		{"tables", "tables", "List dataset tables", simple(ActionTables)},
		{"recipes", "recipes", "List recipes", simple(ActionRecipes)},
		{"recipe", "recipe <id> [param=value ...]", "Replace the state with a recipe", cmdRecipe},
		{"save", "save <file>", "Write the state to a YAML or JSON file", withPath(ActionSave)},
		{"load", "load <file>", "Read the state from a file", withPath(ActionLoad)},
		{"help", "help", "List commands", simple(ActionHelp)},
		{"quit", "quit", "Leave the REPL", simple(ActionQuit)},
		{"exit", "exit", "Leave the REPL", simple(ActionQuit)},
	}
}

// Commands returns the command names in help order.
func Commands() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

// Help returns one usage line per command.
func Help() []string {
	lines := make([]string, len(commands))
	for i, c := range commands {
		lines[i] = fmt.Sprintf("%-52s %s", c.usage, c.help)
	}
	return lines
}

// Apply interprets one line against state. It never mutates state; the
// returned state is a new value. Blank lines and # comments are no-ops.
func Apply(state domain.State, line string) (domain.State, Action, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return state, Action{Kind: ActionNone}, nil
	}
	name, args, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	for _, c := range commands {
		if c.name == name {
			next, action, err := c.run(state.Clone(), strings.TrimSpace(args))
			if err != nil {
				return state, Action{Kind: ActionNone}, err
			}
			return next, action, nil
		}
	}
	return state, Action{Kind: ActionNone}, fmt.Errorf("%w: %s (type 'help' for commands)", ErrUnknownCommand, name)
}

func usage(cmd string) error {
	for _, c := range commands {
		if c.name == cmd {
			return fmt.Errorf("%w: %s", ErrUsage, c.usage)
		}
	}
	return ErrUsage
}

func edit(state domain.State) (domain.State, Action, error) {
	return state, Action{Kind: ActionEdit}, nil
}

func simple(kind ActionKind) func(domain.State, string) (domain.State, Action, error) {
	return func(state domain.State, _ string) (domain.State, Action, error) {
		return state, Action{Kind: kind}, nil
	}
}

func withPath(kind ActionKind) func(domain.State, string) (domain.State, Action, error) {
	return func(state domain.State, args string) (domain.State, Action, error) {
		if args == "" {
			if kind == ActionSave {
				return state, Action{}, usage("save")
			}
			return state, Action{}, usage("load")
		}
		return state, Action{Kind: kind, Arg: args}, nil
	}
}

func cmdType(state domain.State, args string) (domain.State, Action, error) {
	qt := domain.QueryType(strings.ToUpper(args))
	switch qt {
	case domain.Select, domain.Insert, domain.Update, domain.Delete:
		state.QueryType = qt
		return edit(state)
	}
	return state, Action{}, usage("type")
}

func cmdFrom(state domain.State, args string) (domain.State, Action, error) {
	if args == "" || strings.ContainsAny(args, " \t") {
		return state, Action{}, usage("from")
	}
	state.Table = args
	return edit(state)
}

func cmdSelect(state domain.State, args string) (domain.State, Action, error) {
	state.Columns = ParseList(args)
	return edit(state)
}

func cmdAggregate(state domain.State, args string) (domain.State, Action, error) {
	if strings.EqualFold(args, "clear") {
		state.Aggregates = nil
		return edit(state)
	}
	agg, err := ParseAggregate(args)
	if err != nil {
		return state, Action{}, err
	}
	state.Aggregates = append(state.Aggregates, agg)
	return edit(state)
}

func cmdDistinct(state domain.State, args string) (domain.State, Action, error) {
	switch strings.ToLower(args) {
	case "", "on", "true":
		state.Distinct = true
	case "off", "false":
		state.Distinct = false
	default:
		return state, Action{}, usage("distinct")
	}
	return edit(state)
}

func cmdWhere(state domain.State, args string) (domain.State, Action, error) {
	return addConditions(state, args, domain.And)
}

func cmdOr(state domain.State, args string) (domain.State, Action, error) {
	if args == "" {
		return state, Action{}, usage("or")
	}
	return addConditions(state, args, domain.Or)
}

func addConditions(state domain.State, args string, link domain.Conjunction) (domain.State, Action, error) {
	if strings.EqualFold(args, "clear") {
		state.WhereConditions = nil
		return edit(state)
	}
	if args == "" {
		return state, Action{}, usage("where")
	}
	conds, err := condparse.ParseWhere(args)
	if err != nil {
		return state, Action{}, err
	}
	conds[0].Conjunction = link
	state.WhereConditions = append(state.WhereConditions, conds...)
	return edit(state)
}

func cmdJoin(state domain.State, args string) (domain.State, Action, error) {
	if strings.EqualFold(args, "clear") {
		state.Joins = nil
		return edit(state)
	}
	j, err := ParseJoin(args)
	if err != nil {
		return state, Action{}, err
	}
	state.Joins = append(state.Joins, j)
	return edit(state)
}

func cmdGroup(state domain.State, args string) (domain.State, Action, error) {
	if strings.EqualFold(args, "clear") {
		state.GroupBy = nil
		return edit(state)
	}
	state.GroupBy = ParseList(args)
	return edit(state)
}

func cmdHaving(state domain.State, args string) (domain.State, Action, error) {
	if strings.EqualFold(args, "clear") {
		state.Having = nil
		return edit(state)
	}
	if args == "" {
		return state, Action{}, usage("having")
	}
	conds, err := condparse.ParseHaving(args)
	if err != nil {
		return state, Action{}, err
	}
	state.Having = append(state.Having, conds...)
	return edit(state)
}

func cmdOrder(state domain.State, args string) (domain.State, Action, error) {
	if strings.EqualFold(args, "clear") || args == "" {
		state.OrderBy = nil
		return edit(state)
	}
	keys, err := ParseOrder(args)
	if err != nil {
		return state, Action{}, err
	}
	state.OrderBy = keys
	return edit(state)
}

func cmdLimit(state domain.State, args string) (domain.State, Action, error) {
	n, err := parseCount(args)
	if err != nil {
		return state, Action{}, usage("limit")
	}
	state.Limit = n
	return edit(state)
}

func cmdOffset(state domain.State, args string) (domain.State, Action, error) {
	n, err := parseCount(args)
	if err != nil {
		return state, Action{}, usage("offset")
	}
	state.Offset = n
	return edit(state)
}

func parseCount(args string) (*int, error) {
	if strings.EqualFold(args, "none") {
		return nil, nil
	}
	n, err := strconv.Atoi(args)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%q is not a non-negative integer", args)
	}
	return domain.IntPtr(n), nil
}

func cmdSet(state domain.State, args string) (domain.State, Action, error) {
	pairs, err := ParseAssignments(args)
	if err != nil || len(pairs) == 0 {
		return state, Action{}, usage("set")
	}
	if state.InsertValues == nil {
		state.InsertValues = make(map[string]string, len(pairs))
	}
	for k, v := range pairs {
		state.InsertValues[k] = v
	}
	return edit(state)
}

func cmdUnset(state domain.State, args string) (domain.State, Action, error) {
	cols := strings.Fields(args)
	if len(cols) == 0 {
		return state, Action{}, usage("unset")
	}
	for _, c := range cols {
		delete(state.InsertValues, c)
	}
	return edit(state)
}

func cmdReset(domain.State, string) (domain.State, Action, error) {
	return edit(domain.State{QueryType: domain.Select})
}

func cmdRecipe(state domain.State, args string) (domain.State, Action, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return state, Action{}, usage("recipe")
	}
	params, err := ParseAssignments(strings.Join(fields[1:], " "))
	if err != nil {
		return state, Action{}, err
	}
	return state, Action{Kind: ActionRecipe, Arg: fields[0], Params: params}, nil
}
