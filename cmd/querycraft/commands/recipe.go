package commands

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/querycraft/internal/config"
	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/recipe"
	"github.com/satishbabariya/querycraft/internal/repl"
	"github.com/satishbabariya/querycraft/internal/statefile"
	"github.com/spf13/cobra"
)

func newRecipeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipe",
		Aliases: []string{"recipes"},
		Short:   "List, inspect and expand query recipes",
	}
	cmd.AddCommand(newRecipeListCommand(a), newRecipeShowCommand(a), newRecipeExpandCommand(a))
	return cmd
}

func newRecipeListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			headers := []string{"ID", "TITLE", "PARAMS", "STATUS"}
			var rows [][]string
			for _, r := range a.c.Recipes().List() {
				rows = append(rows, []string{r.ID, r.Title, paramNames(r), recipeStatus(r)})
			}
			return a.out.Table(headers, rows)
		},
	}
}

func newRecipeShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Describe a recipe and its parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.c.Recipes().Get(args[0])
			if err != nil {
				return err
			}
			a.out.Section(r.Title)
			fmt.Fprintln(cmd.OutOrStdout(), r.Description)
			a.out.Muted("since %s, %s", r.MinVersion, recipeStatus(r))
			var items []string
			for _, p := range r.Params {
				item := p.Name
				switch {
				case p.Required:
					item += " (required)"
				case p.Default != "":
					item += fmt.Sprintf(" (default %q)", p.Default)
				}
				if p.Description != "" {
					item += ": " + p.Description
				}
				items = append(items, item)
			}
			a.out.Section("parameters")
			a.out.List(items)
			return nil
		},
	}
}

func newRecipeExpandCommand(a *app) *cobra.Command {
	var (
		save string
		run  bool
	)
	cmd := &cobra.Command{
		Use:     "expand <id> [param=value ...]",
		Short:   "Expand a recipe into a query state",
		Example: `  querycraft recipe expand top-n table=orders column=amount n=5 --run`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := repl.ParseAssignments(strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			state, err := a.c.Recipes().Expand(args[0], params)
			if err != nil {
				return err
			}
			if save != "" {
				if err := statefile.Save(config.AppFs, save, state); err != nil {
					return err
				}
				a.out.Success("saved %s", save)
			}
			if run {
				p, err := a.preview(cmd, state, "")
				if err != nil {
					return err
				}
				a.printPreview(p)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), compiler.Compile(state))
			return nil
		},
	}
	cmd.Flags().StringVar(&save, "save", "", "Write the expanded state to a file")
	cmd.Flags().BoolVar(&run, "run", false, "Preview the expanded state against the dataset")
	return cmd
}

func paramNames(r recipe.Recipe) string {
	names := make([]string, len(r.Params))
	for i, p := range r.Params {
		names[i] = p.Name
		if p.Required {
			names[i] += "*"
		}
	}
	return strings.Join(names, ", ")
}

func recipeStatus(r recipe.Recipe) string {
	switch {
	case !r.Available:
		return "needs " + r.MinVersion
	case len(r.Unsupported) > 0:
		parts := make([]string, len(r.Unsupported))
		for i, f := range r.Unsupported {
			parts[i] = string(f)
		}
		return "unsupported: " + strings.Join(parts, ", ")
	default:
		return "ready"
	}
}
