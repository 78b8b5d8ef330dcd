package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/satishbabariya/querycraft/internal/config"
	"github.com/satishbabariya/querycraft/internal/statefile"
	"github.com/satishbabariya/querycraft/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCommand(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <state-file>",
		Short: "Recompute the preview whenever a state file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			refresh := func(ctx context.Context, path string) error {
				state, err := statefile.Load(config.AppFs, path)
				if err != nil {
					return err
				}
				p, err := a.preview(cmd, state, "")
				if err != nil {
					return err
				}
				a.out.Muted("%s  %s", time.Now().Format(time.TimeOnly), path)
				a.printPreview(p)
				return nil
			}

			w, err := watch.NewWatcher(args[0], debounce, refresh)
			if err != nil {
				return err
			}
			w.OnError = func(err error) { a.out.Error("%v", err) }
			a.out.Info("watching %s (Ctrl+C to stop)", w.File())
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before recomputing")
	return cmd
}
