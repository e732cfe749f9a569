package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/similarity"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show similarity store contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := similarity.Open(cfg)
			if err != nil {
				return fmt.Errorf("open similarity store: %w", err)
			}
			defer store.Close() //nolint:errcheck

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read store stats: %w", err)
			}

			tables := make([]string, 0, len(stats))
			for name := range stats {
				tables = append(tables, name)
			}
			sort.Strings(tables)

			rows := make([][]string, 0, len(tables))
			for _, name := range tables {
				rows = append(rows, []string{name, strconv.Itoa(stats[name])})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store: %s\n", store.Path())
			fmt.Fprintln(out, renderTable(
				[]string{"Table", "Rows"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
