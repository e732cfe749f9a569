package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/similarity"
)

func newNeighboursCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "neighbours <artist> <title>",
		Short: "Show the acoustic neighbours of a stored track",
		Args:  cobra.ExactArgs(2),
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

			n := count
			if n <= 0 {
				n = cfg.Similarity.NeighbourCount
			}

			track, err := store.GetOrCreateTrack(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("look up track: %w", err)
			}
			edges, err := store.Neighbours(cmd.Context(), track.ID, n)
			if err != nil {
				return fmt.Errorf("load neighbours: %w", err)
			}
			if len(edges) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No neighbours recorded yet. Run the daemon to build the index.")
				return nil
			}

			rows := make([][]string, 0, len(edges))
			for _, edge := range edges {
				peer, err := store.TrackByID(cmd.Context(), edge.OtherID)
				if err != nil || peer == nil {
					continue
				}
				rows = append(rows, []string{
					peer.Artist,
					peer.Title,
					strconv.FormatInt(edge.Distance, 10),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Artist", "Title", "Distance"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Neighbours to show (default: configured neighbour_count)")
	return cmd
}
