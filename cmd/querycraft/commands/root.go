// Package commands implements the querycraft CLI commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/satishbabariya/querycraft/internal/config"
	"github.com/satishbabariya/querycraft/internal/container"
	"github.com/satishbabariya/querycraft/internal/debug"
	"github.com/satishbabariya/querycraft/internal/ui"
	"github.com/satishbabariya/querycraft/internal/version"
	"github.com/spf13/cobra"
)

// app is the state shared by every command of one invocation.
type app struct {
	configFile string
	debug      bool

	cfg *config.Config
	c   *container.Container
	out *ui.Printer
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "querycraft",
		Short: "Build, explain and preview SQL from a structured query state",
		Long: `querycraft turns a structured query description into SQL, explains it in
plain language and simulates it against a dataset.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd.Context())
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default .querycraft.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newCompileCommand(a),
		newExplainCommand(a),
		newLintCommand(a),
		newRunCommand(a),
		newRecipeCommand(a),
		newTablesCommand(a),
		newDataCommand(a),
		newNewCommand(a),
		newReplCommand(a),
		newWatchCommand(a),
		newServeCommand(a),
		newVersionCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.out = ui.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
	}
	debug.Setup(debug.Options{Enabled: cfg.Debug, Writer: cmd.ErrOrStderr(), Level: slog.LevelDebug})
	if cfg.File != "" {
		debug.Debug("Config loaded", "file", cfg.File)
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	a.cfg, a.c = cfg, c
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.c == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := a.c.Close(ctx)
	a.c = nil
	return err
}
