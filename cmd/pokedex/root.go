package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dukerupert/pokedex/internal/config"
	"github.com/dukerupert/pokedex/internal/logging"
)

// cli carries what every subcommand needs once flags are parsed.
type cli struct {
	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:   "pokedex",
		Short: "Offline-first Pokedex cache and synchronizer",
		Long: `pokedex keeps a local SQLite copy of PokeAPI data and serves it
offline-first: cached entries are shown at once and refreshed from the
network when it is reachable.

Configuration sources (in order of precedence):
  1. Command line flags
  2. Environment variables (POKEDEX_*)
  3. Config file: $POKEDEX_CONFIG, or pokedex.{yaml,json,toml} in
     ".", "$HOME/.pokedex" or "/etc/pokedex"
  4. Defaults`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(c.v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(c.v)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logging.Setup(cfg.LogLevel)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("db", "d", "pokedex.db", "SQLite database path")
	flags.String("api-base-url", "https://pokeapi.co/api/v2/", "PokeAPI base URL")
	flags.Duration("http-timeout", 0, "HTTP timeout for PokeAPI requests (default 10s)")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
	flags.Bool("offline", false, "Never touch the network")
	flags.StringP("format", "f", "json", "Output format (json|yaml)")

	root.AddCommand(
		newServeCmd(c),
		newSyncCmd(c),
		newShowCmd(c),
		newSearchCmd(c),
		newCacheCmd(c),
	)
	return root
}
