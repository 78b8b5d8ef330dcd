package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/satishbabariya/querycraft/internal/core/query/compiler"
	"github.com/satishbabariya/querycraft/internal/core/query/domain"
	"github.com/satishbabariya/querycraft/internal/core/query/explainer"
	"github.com/satishbabariya/querycraft/internal/core/query/lint"
	"github.com/satishbabariya/querycraft/internal/core/recipe"
	"github.com/satishbabariya/querycraft/internal/debug"
	"github.com/satishbabariya/querycraft/internal/service"
	"github.com/satishbabariya/querycraft/internal/statefile"
	"github.com/satishbabariya/querycraft/internal/ui"
	"github.com/spf13/afero"
)

// maxUndo bounds the undo history.
const maxUndo = 50

// LineReader supplies input lines. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// Session is an interactive editing session over one state.
type Session struct {
	state    domain.State
	history  []domain.State
	previews *service.PreviewService
	recipes  *recipe.Catalog
	fs       afero.Fs
	out      *ui.Printer
}

// NewSession starts a session at initial. recipes may be nil.
func NewSession(initial domain.State, previews *service.PreviewService, recipes *recipe.Catalog, fs afero.Fs, out *ui.Printer) *Session {
	if previews == nil {
		previews = service.NewPreviewService(nil)
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if out == nil {
		out = ui.NewPrinter(nil, nil)
	}
	return &Session{state: initial, previews: previews, recipes: recipes, fs: fs, out: out}
}

// State returns the current state.
func (s *Session) State() domain.State {
	return s.state
}

// Prompt shows the table being edited.
func (s *Session) Prompt() string {
	if t := strings.TrimSpace(s.state.Table); t != "" {
		return fmt.Sprintf("querycraft(%s)> ", t)
	}
	return "querycraft> "
}

// Execute runs one line. It reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	next, action, err := Apply(s.state, line)
	if err != nil {
		return false, err
	}

	switch action.Kind {
	case ActionEdit:
		s.push(next)
		s.out.SQL(compiler.Compile(s.state))
	case ActionShow:
		s.out.SQL(compiler.Compile(s.state))
	case ActionExplain:
		s.out.Explanation(explainer.Describe(s.state))
	case ActionLint:
		s.out.Hints(lint.Lint(s.state))
	case ActionRun:
		return false, s.run(ctx)
	case ActionState:
		return false, statefile.Encode(s.out.Out, s.state, statefile.YAML)
	case ActionTables:
		tables, err := s.previews.Tables(ctx)
		if err != nil {
			return false, err
		}
		s.out.List(tables)
	case ActionRecipes:
		s.listRecipes()
	case ActionRecipe:
		if s.recipes == nil {
			return false, recipe.ErrUnknownRecipe
		}
		state, err := s.recipes.Expand(action.Arg, action.Params)
		if err != nil {
			return false, err
		}
		s.push(state)
		s.out.SQL(compiler.Compile(s.state))
	case ActionSave:
		if err := statefile.Save(s.fs, action.Arg, s.state); err != nil {
			return false, err
		}
		s.out.Success("saved %s", action.Arg)
	case ActionLoad:
		state, err := statefile.Load(s.fs, action.Arg)
		if err != nil {
			return false, err
		}
		s.push(state)
		s.out.SQL(compiler.Compile(s.state))
	case ActionUndo:
		if len(s.history) == 0 {
			s.out.Muted("nothing to undo")
			return false, nil
		}
		s.state = s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		s.out.SQL(compiler.Compile(s.state))
	case ActionHelp:
		s.out.List(Help())
	case ActionQuit:
		return true, nil
	}
	return false, nil
}

func (s *Session) push(next domain.State) {
	s.history = append(s.history, s.state)
	if len(s.history) > maxUndo {
		s.history = s.history[1:]
	}
	s.state = next
}

func (s *Session) run(ctx context.Context) error {
	p, err := s.previews.Preview(ctx, s.state)
	if err != nil {
		return err
	}
	s.out.SQL(p.SQL)
	if err := s.out.Rows(p.Rows); err != nil {
		return err
	}
	if p.Capped {
		s.out.Muted("showing %d of %d matching rows", len(p.Rows), p.MatchCount)
	} else {
		s.out.Muted("%d matching rows", p.MatchCount)
	}
	if len(p.Hints) > 0 {
		s.out.Hints(p.Hints)
	}
	return nil
}

func (s *Session) listRecipes() {
	if s.recipes == nil {
		s.out.Muted("(no recipes)")
		return
	}
	var items []string
	for _, r := range s.recipes.List() {
		line := fmt.Sprintf("%-18s %s", r.ID, r.Title)
		if !r.Available || len(r.Unsupported) > 0 {
			line += " (unavailable)"
		}
		items = append(items, line)
	}
	s.out.List(items)
}

// Run reads lines until quit, EOF or ctx is done. Command errors are
// printed and do not end the loop.
func (s *Session) Run(ctx context.Context, in LineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		in.SetPrompt(s.Prompt())
		line, err := in.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		quit, err := s.Execute(ctx, line)
		if err != nil {
			debug.Debug("REPL command failed", "line", line, "error", err)
			s.out.Error("%v", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

// NewReadline opens a readline instance with history and completion of
// command names, recipe ids and tables.
func NewReadline(historyFile string, recipes *recipe.Catalog, tables []string) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:            "querycraft> ",
		HistoryFile:       historyFile,
		AutoComplete:      Completer(recipes, tables),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}

// Completer completes command names, then tables after from/join and recipe
// ids after recipe.
func Completer(recipes *recipe.Catalog, tables []string) *readline.PrefixCompleter {
	var tableItems []readline.PrefixCompleterInterface
	for _, t := range tables {
		tableItems = append(tableItems, readline.PcItem(t))
	}
	var recipeItems []readline.PrefixCompleterInterface
	if recipes != nil {
		for _, r := range recipes.List() {
			recipeItems = append(recipeItems, readline.PcItem(r.ID))
		}
	}

	var items []readline.PrefixCompleterInterface
	for _, name := range Commands() {
		switch name {
		case "from":
			items = append(items, readline.PcItem(name, tableItems...))
		case "join":
			joinItems := append([]readline.PrefixCompleterInterface{
				readline.PcItem("inner", tableItems...),
				readline.PcItem("left", tableItems...),
				readline.PcItem("right", tableItems...),
			}, tableItems...)
			items = append(items, readline.PcItem(name, joinItems...))
		case "recipe":
			items = append(items, readline.PcItem(name, recipeItems...))
		case "type":
			items = append(items, readline.PcItem(name,
				readline.PcItem("select"), readline.PcItem("insert"),
				readline.PcItem("update"), readline.PcItem("delete")))
		default:
			items = append(items, readline.PcItem(name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
