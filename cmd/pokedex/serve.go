package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/pokedex/internal/catalog"
	"github.com/dukerupert/pokedex/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
	flags := cmd.Flags()
	flags.StringP("port", "p", "8080", "Listen port")
	flags.Int("page-size", 20, "Items per page")
	flags.Duration("probe-interval", 15*time.Second, "Connectivity probe interval")
	flags.Duration("stale-after", 24*time.Hour, "Age after which cached rows count as stale")
	flags.StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")
	flags.Int("sync-limit", 6, "Forced syncs allowed per client per minute")
	return cmd
}

func (c *cli) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := c.open(ctx, openOptions{exclusive: true, watch: true})
	if err != nil {
		return err
	}
	defer a.Close()

	cat := a.newCatalog(c)
	srv := server.New(server.Config{
		AllowedOrigins: c.cfg.AllowedOrigins,
		StaleAfter:     c.cfg.StaleAfter,
		SyncLimit:      c.cfg.SyncLimit,
	}, cat, catalog.NewDetail(a.repo), a.repo, c.logger)
	defer srv.Close()

	if err := cat.Start(ctx); err != nil {
		return err
	}
	defer cat.Stop()

	go srv.RateLimiter().RunCleanup(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + c.cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("pokedex listening", "addr", httpServer.Addr, "db", c.cfg.DB, "offline", c.cfg.Offline)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	c.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
