package commands

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/satishbabariya/querycraft/internal/config"
	"github.com/satishbabariya/querycraft/internal/repl"
	"github.com/spf13/cobra"
)

func newReplCommand(a *app) *cobra.Command {
	var (
		sf      stateFlags
		history string
	)
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Edit a query state interactively and preview it as you go",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := sf.resolve()
			if err != nil {
				return err
			}
			svc, err := a.c.PreviewService()
			if err != nil {
				return err
			}
			tables, err := svc.Tables(cmd.Context())
			if err != nil {
				return err
			}

			if history == "" {
				if home, err := homedir.Dir(); err == nil {
					history = filepath.Join(home, ".querycraft_history")
				}
			}
			rl, err := repl.NewReadline(history, a.c.Recipes(), tables)
			if err != nil {
				return err
			}
			defer rl.Close()

			a.out.Info("type 'help' for commands, 'quit' to leave")
			session := repl.NewSession(state, svc, a.c.Recipes(), config.AppFs, a.out)
			return session.Run(cmd.Context(), rl)
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&history, "history", "", "History file (default ~/.querycraft_history)")
	return cmd
}
