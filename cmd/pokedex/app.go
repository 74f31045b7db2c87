package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/pokedex/internal/catalog"
	"github.com/dukerupert/pokedex/internal/connectivity"
	"github.com/dukerupert/pokedex/internal/database"
	"github.com/dukerupert/pokedex/internal/pokeapi"
	"github.com/dukerupert/pokedex/internal/preference"
	"github.com/dukerupert/pokedex/internal/repository"
	"github.com/dukerupert/pokedex/internal/store"
)

const lockTimeout = 2 * time.Second

// app is the wired stack shared by the subcommands.
type app struct {
	db      *sql.DB
	lock    *database.Lock
	client  *pokeapi.Client
	monitor connectivity.Monitor
	prober  *connectivity.Prober
	repo    *repository.Repository
}

type openOptions struct {
	// exclusive takes the database lock for the lifetime of the app.
	exclusive bool
	// watch keeps probing connectivity in the background instead of
	// probing once.
	watch bool
}

func (c *cli) open(ctx context.Context, opts openOptions) (*app, error) {
	a := &app{}

	if opts.exclusive {
		lctx, cancel := context.WithTimeout(ctx, lockTimeout)
		lock, err := database.AcquireLock(lctx, c.cfg.DB)
		cancel()
		if err != nil {
			return nil, err
		}
		a.lock = lock
	}

	db, err := database.Open(c.cfg.DB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db

	a.client = pokeapi.NewClient(pokeapi.Config{
		BaseURL: c.cfg.APIBaseURL,
		Timeout: c.cfg.HTTPTimeout,
	}, c.logger.With("component", "pokeapi"))

	if c.cfg.Offline {
		a.monitor = connectivity.NewStatic(false)
	} else {
		a.prober = connectivity.NewProber(connectivity.ProberConfig{
			URL:      a.client.BaseURL(),
			Interval: c.cfg.ProbeInterval,
		}, c.logger.With("component", "connectivity"))
		if opts.watch {
			a.prober.Start(ctx)
		} else {
			a.prober.Probe(ctx)
		}
		a.monitor = a.prober
	}

	a.repo = repository.New(
		store.NewPokemonStore(db),
		a.client,
		a.monitor,
		preference.NewStore(store.NewSettingsStore(db)),
		c.logger.With("component", "repository"),
	)
	return a, nil
}

func (a *app) newCatalog(c *cli) *catalog.Catalog {
	return catalog.New(a.repo, c.cfg.PageSize, c.logger.With("component", "catalog"))
}

// Close stops probing, closes the database and releases the lock.
func (a *app) Close() {
	if a.prober != nil {
		a.prober.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.lock != nil {
		a.lock.Release()
	}
}
