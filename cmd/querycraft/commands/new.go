package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/satishbabariya/querycraft/internal/config"
	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/condparse"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/repl"
	"github.com/satishbabariya/querycraft/internal/statefile"
	"github.com/spf13/cobra"
)

// Asker asks the wizard's questions.
type Asker interface {
	Select(message string, options []string, def string) (string, error)
	MultiSelect(message string, options []string) ([]string, error)
	Input(message, def string, validate func(string) error) (string, error)
}

type surveyAsker struct{}

func (surveyAsker) Select(message string, options []string, def string) (string, error) {
	var answer string
	prompt := &survey.Select{Message: message, Options: options}
	if def != "" {
		prompt.Default = def
	}
	err := survey.AskOne(prompt, &answer)
	return answer, err
}

func (surveyAsker) MultiSelect(message string, options []string) ([]string, error) {
	var answer []string
	err := survey.AskOne(&survey.MultiSelect{Message: message, Options: options}, &answer)
	return answer, err
}

func (surveyAsker) Input(message, def string, validate func(string) error) (string, error) {
	var answer string
	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &answer, opts...)
	return answer, err
}

// tableSource lists tables and loads their rows for column suggestions.
type tableSource interface {
	Tables(ctx context.Context) ([]string, error)
	Rows(ctx context.Context, table string) ([]domain.Row, bool, error)
}

func newNewCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Build a query state interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := a.c.Provider()
			if err != nil {
				return err
			}
			state, err := runWizard(cmd.Context(), surveyAsker{}, provider)
			if err != nil {
				return err
			}
			if err := statefile.Save(config.AppFs, out, state); err != nil {
				return err
			}
			a.out.SQL(compiler.Compile(state))
			a.out.Success("saved %s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "O", "query.yaml", "Where to write the state document")
	return cmd
}

func runWizard(ctx context.Context, ask Asker, src tableSource) (domain.State, error) {
	var state domain.State

	kind, err := ask.Select("Statement kind:", []string{"SELECT", "INSERT", "UPDATE", "DELETE"}, "SELECT")
	if err != nil {
		return state, err
	}
	state.QueryType = domain.QueryType(kind)

	tables, err := src.Tables(ctx)
	if err != nil {
		return state, err
	}
	if len(tables) > 0 {
		state.Table, err = ask.Select("Table:", tables, "")
	} else {
		state.Table, err = ask.Input("Table:", "", required)
	}
	if err != nil {
		return state, err
	}

	columns, err := knownColumns(ctx, src, state.Table)
	if err != nil {
		return state, err
	}

	switch state.QueryType {
	case domain.Select:
		if len(columns) > 0 {
			state.Columns, err = ask.MultiSelect("Columns (none selects all):", columns)
		} else {
			var text string
			text, err = ask.Input("Columns, comma separated (blank selects all):", "", nil)
			state.Columns = repl.ParseList(text)
		}
		if err != nil {
			return state, err
		}
	case domain.Insert, domain.Update:
		if len(columns) == 0 {
			text, err := ask.Input("Values as col=value, space separated:", "", validAssignments)
			if err != nil {
				return state, err
			}
			if state.InsertValues, err = repl.ParseAssignments(text); err != nil {
				return state, err
			}
			break
		}
		targets, err := ask.MultiSelect("Columns to set:", columns)
		if err != nil {
			return state, err
		}
		state.Columns = targets
		state.InsertValues = make(map[string]string, len(targets))
		for _, col := range targets {
			v, err := ask.Input(fmt.Sprintf("Value for %s:", col), "", nil)
			if err != nil {
				return state, err
			}
			state.InsertValues[col] = v
		}
	}

	if state.QueryType != domain.Insert {
		where, err := ask.Input("Filter (e.g. age > 18 AND city = 'Oslo', blank for none):", "", validWhere)
		if err != nil {
			return state, err
		}
		if state.WhereConditions, err = condparse.ParseWhere(where); err != nil {
			return state, err
		}
	}

	if state.QueryType == domain.Select {
		order, err := ask.Input("Order by (e.g. age desc, blank for none):", "", validOrder)
		if err != nil {
			return state, err
		}
		if state.OrderBy, err = repl.ParseOrder(order); err != nil {
			return state, err
		}
		limit, err := ask.Input("Limit (blank for none):", "", validCount)
		if err != nil {
			return state, err
		}
		if limit = strings.TrimSpace(limit); limit != "" {
			n, _ := strconv.Atoi(limit)
			state.Limit = domain.IntPtr(n)
		}
	}
	return state, nil
}

func knownColumns(ctx context.Context, src tableSource, table string) ([]string, error) {
	rows, ok, err := src.Rows(ctx, table)
	if err != nil || !ok || len(rows) == 0 {
		return nil, err
	}
	return rows[0].Columns(), nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("a value is required")
	}
	return nil
}

func validWhere(s string) error {
	_, err := condparse.ParseWhere(s)
	return err
}

func validOrder(s string) error {
	_, err := repl.ParseOrder(s)
	return err
}

func validAssignments(s string) error {
	_, err := repl.ParseAssignments(s)
	return err
}

func validCount(s string) error {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err != nil || n < 0 {
		return fmt.Errorf("enter a non-negative integer")
	}
	return nil
}
