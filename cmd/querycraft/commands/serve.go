package commands

import (
	"os/signal"
	"syscall"

	"github.com/satishbabariya/querycraft/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile, explain and preview API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			svc, err := a.c.PreviewService()
			if err != nil {
				return err
			}
			var opts []server.Option
			if m, ok := a.c.Metrics(); ok {
				opts = append(opts, server.WithMetrics(m))
			}
			srv := server.New(svc, a.c.Recipes(), opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a.out.Info("listening on http://%s", addr)
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	return cmd
}
