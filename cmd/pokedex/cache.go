package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newCacheCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local cache",
	}
	cmd.PersistentFlags().Duration("stale-after", 24*time.Hour, "Age after which cached rows count as stale")

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count cached and stale rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.repo.Stats(cmd.Context(), c.cfg.StaleAfter)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.cfg.Format, stats)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stale",
		Short: "List cached rows older than --stale-after",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.repo.Stale(cmd.Context(), c.cfg.StaleAfter)
			if err != nil {
				return err
			}
			type staleRow struct {
				ID            int       `json:"id"`
				Name          string    `json:"name"`
				LastFetchedAt time.Time `json:"last_fetched_at"`
			}
			out := make([]staleRow, 0, len(rows))
			for _, r := range rows {
				out = append(out, staleRow{ID: r.ID, Name: r.Name, LastFetchedAt: time.UnixMilli(r.LastFetchedAt).UTC()})
			}
			return render(cmd.OutOrStdout(), c.cfg.Format, out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context(), openOptions{exclusive: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.repo.ClearCache(cmd.Context()); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.cfg.Format, map[string]bool{"cleared": true})
		},
	})
	return cmd
}
