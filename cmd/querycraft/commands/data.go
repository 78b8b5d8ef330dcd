package commands

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/querycraft/internal/adapters/dataset"
	"github.com/spf13/cobra"
)

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the configured dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.c.PreviewService()
			if err != nil {
				return err
			}
			tables, err := svc.Tables(cmd.Context())
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				a.out.Muted("(no tables)")
				return nil
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func newDataCommand(a *app) *cobra.Command {
	var store string
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage tables in the local pebble dataset store",
		Long: `Import row files into the local dataset store. Set dataset.source to
"pebble" and dataset.dir to the same directory to preview against it.`,
	}
	cmd.PersistentFlags().StringVar(&store, "store", "", "Store directory (default dataset.dir)")

	open := func() (*dataset.PebbleStore, error) {
		dir := store
		if dir == "" {
			dir = a.cfg.Dataset.Dir
		}
		return dataset.OpenPebbleStore(dataset.PebbleConfig{Path: dir})
	}

	importCmd := &cobra.Command{
		Use:   "import <file> [table]",
		Short: "Import a JSON or YAML row file, replacing the table",
		Long:  "The table name defaults to the file name without its extension.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			if len(args) == 2 {
				table = args[1]
			}
			rows, err := readRows(args[0])
			if err != nil {
				return err
			}
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()
			info, err := s.Import(cmd.Context(), table, rows)
			if err != nil {
				return err
			}
			a.out.Success("imported %d rows into %s", info.Rows, info.Name)
			return nil
		},
	}

	dropCmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Remove a table from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()
			existed, err := s.Drop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !existed {
				a.out.Warning("table %s was not in the store", args[0])
				return nil
			}
			a.out.Success("dropped %s", args[0])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.Close()
			infos, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				a.out.Muted("(store is empty)")
				return nil
			}
			var rows [][]string
			for _, info := range infos {
				rows = append(rows, []string{
					info.Name,
					strconv.Itoa(info.Rows),
					strings.Join(info.Columns, ", "),
					info.ImportedAt.Format(time.RFC3339),
				})
			}
			return a.out.Table([]string{"TABLE", "ROWS", "COLUMNS", "IMPORTED"}, rows)
		},
	}

	cmd.AddCommand(importCmd, dropCmd, listCmd)
	return cmd
}
