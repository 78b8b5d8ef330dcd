package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/satishbabariya/querycraft/internal/adapters/dataset"
	"github.com/satishbabariya/querycraft/internal/config"
	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/explainer"
	"github.com/satishbabariya/querycraft/internal/core/query/lint"
	"github.com/satishbabariya/querycraft/internal/service"
	"github.com/spf13/cobra"
)

// ErrLintWarnings is returned by lint --strict when a warning was found.
var ErrLintWarnings = errors.New("lint found warnings")

func newCompileCommand(a *app) *cobra.Command {
	var (
		sf     stateFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the SQL for a query state",
		Example: `  querycraft compile --table users --columns name,age --where "age >= 18" --order "age desc" --limit 10
  querycraft compile --state query.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := sf.resolve()
			if err != nil {
				return err
			}
			stmt := compiler.Render(state)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stmt)
			}
			if stmt.Empty() {
				a.out.Muted("(nothing to compile yet)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), stmt.SQL)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the statement and its clauses as JSON")
	return cmd
}

func newExplainCommand(a *app) *cobra.Command {
	var (
		sf    stateFlags
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain a query state in plain language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := sf.resolve()
			if err != nil {
				return err
			}
			if plain {
				if text := explainer.Explain(state); text != "" {
					fmt.Fprintln(cmd.OutOrStdout(), text)
				}
				return nil
			}
			a.out.Explanation(explainer.Describe(state))
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&plain, "plain", false, "Print plain text without markdown rendering")
	return cmd
}

func newLintCommand(a *app) *cobra.Command {
	var (
		sf     stateFlags
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report suspicious clause combinations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := sf.resolve()
			if err != nil {
				return err
			}
			hints := lint.Lint(state)
			a.out.Hints(hints)
			if strict && lint.HasWarnings(hints) {
				return ErrLintWarnings
			}
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a warning is reported")
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	var (
		sf       stateFlags
		rowsFile string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compile, explain and preview a query state against the dataset",
		Example: `  querycraft run --table orders --agg "COUNT(*) AS n" --columns user_id --group user_id
  querycraft run --state query.yaml --rows fixtures/users.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := sf.resolve()
			if err != nil {
				return err
			}
			p, err := a.preview(cmd, state, rowsFile)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			a.printPreview(p)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&rowsFile, "rows", "", "Read the table's rows from a JSON or YAML file instead of the dataset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the preview as JSON")
	return cmd
}

// preview runs state over the dataset, or over rowsFile when given.
func (a *app) preview(cmd *cobra.Command, state domain.State, rowsFile string) (*service.Preview, error) {
	if rowsFile != "" {
		rows, err := readRows(rowsFile)
		if err != nil {
			return nil, err
		}
		return a.c.AnalysisService().PreviewRows(cmd.Context(), state, rows)
	}
	svc, err := a.c.PreviewService()
	if err != nil {
		return nil, err
	}
	return svc.Preview(cmd.Context(), state)
}

func (a *app) printPreview(p *service.Preview) {
	a.out.Section("sql")
	a.out.SQL(p.SQL)
	a.out.Section("explanation")
	a.out.Explanation(p.Lines)
	a.out.Section("preview")
	if err := a.out.Rows(p.Rows); err != nil {
		a.out.Warning("could not render rows: %v", err)
	}
	switch {
	case p.Capped:
		a.out.Muted("showing %d of %d matching rows", len(p.Rows), p.MatchCount)
	default:
		a.out.Muted("%d rows returned, %d matched", len(p.Rows), p.MatchCount)
	}
	if len(p.Hints) > 0 {
		a.out.Section("hints")
		a.out.Hints(p.Hints)
	}
}

func readRows(path string) ([]domain.Row, error) {
	f, err := config.AppFs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := dataset.DecodeRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
