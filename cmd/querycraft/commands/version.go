package commands

import (
	"fmt"

	"github.com/satishbabariya/querycraft/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), info.FullString())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Include build date and commit")
	return cmd
}
