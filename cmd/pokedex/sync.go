package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/pokedex/internal/repository"
)

func newSyncCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the first 100 entries into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context(), openOptions{exclusive: true})
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.repo.ForceSync(cmd.Context())
			if errors.Is(err, repository.ErrNoConnectivity) {
				return fmt.Errorf("sync: %w (is the network reachable?)", err)
			}
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.cfg.Format, map[string]int{"synced": n})
		},
	}
}
