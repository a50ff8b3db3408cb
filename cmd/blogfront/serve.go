package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/eringen/blogfront"
	"github.com/eringen/blogfront/store"
	"github.com/eringen/blogfront/stubserver"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web front",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if addr != "" {
				cfg.Addr = addr
			}
			app := blogfront.New(cfg)
			defer app.Close()
			if err := app.Setup(); err != nil {
				return err
			}
			return serveUntilSignal(app.Echo, cfg.Addr, app.Start)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides addr)")
	return cmd
}

func newStubCmd(c *cli) *cobra.Command {
	var (
		addr   string
		legacy bool
	)
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a stub posts service backed by SQLite",
		Long: "stub serves the posts/auth API the web front talks to, seeded with a demo\n" +
			"account (demo/demo) and a few posts. Use it for local development.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.StubAddr
			}
			if err := os.MkdirAll(filepath.Dir(c.cfg.StubDatabasePath), 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			st, err := store.Open(c.cfg.StubDatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := stubserver.Seed(cmd.Context(), st); err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			var opts []stubserver.Option
			if legacy {
				opts = append(opts, stubserver.WithLegacyListing())
			}
			srv := stubserver.New(st, opts...)
			slog.Info("stub posts service listening", "addr", addr, "database", c.cfg.StubDatabasePath, "legacy_listing", legacy)
			return serveUntilSignal(srv.Echo, addr, func() error { return srv.Start(addr) })
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides stub_addr)")
	cmd.Flags().BoolVar(&legacy, "legacy-listing", false, "answer listings with a bare array instead of the paginated envelope")
	return cmd
}

// serveUntilSignal runs start until SIGINT/SIGTERM, then shuts e down.
func serveUntilSignal(e *echo.Echo, addr string, start func() error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "addr", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
