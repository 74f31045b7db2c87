package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dukerupert/pokedex/internal/catalog"
)

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one Pokemon by number, cache first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}

			a, err := c.open(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			v := catalog.NewDetail(a.repo).Load(cmd.Context(), id, func(dv catalog.DetailView) {
				c.logger.Debug("state", "state", dv.Kind, "from_cache", dv.FromCache)
			})
			if err := render(cmd.OutOrStdout(), c.cfg.Format, v); err != nil {
				return err
			}
			if v.Kind == catalog.ViewError {
				return errors.New(v.Message)
			}
			return nil
		},
	}
}

func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "search <name>",
		Short: "Find a Pokemon by name prefix, cache first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context(), openOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			v := a.newCatalog(c).Search(cmd.Context(), args[0])
			if err := render(cmd.OutOrStdout(), c.cfg.Format, v); err != nil {
				return err
			}
			if v.Kind == catalog.ViewError {
				return errors.New(v.Message)
			}
			return nil
		},
	}
}
