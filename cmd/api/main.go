package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/ledgerengine/internal/api"
	"github.com/fastprodman/ledgerengine/internal/infra/logging"
	"github.com/fastprodman/ledgerengine/internal/infra/metrics"
	"github.com/fastprodman/ledgerengine/internal/infra/pgutils"
	"github.com/fastprodman/ledgerengine/internal/services/processor"
	"github.com/fastprodman/ledgerengine/internal/services/snapshot"
	"github.com/fastprodman/ledgerengine/pkg/shutdownqueue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg, err := readConfig()
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logger := logging.SetupJSON(cfg.LogLevel, os.Stdout)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	proc := processor.New(processor.Options{
		BatchSize: cfg.Ledger.BatchSize,
		Workers:   cfg.Ledger.Workers,
		Logger:    logger,
		Metrics:   metrics.NewLedgerMetrics(reg),
	})

	// --- Optional export ---
	var snaps api.SnapshotStore

	if cfg.Postgres != nil {
		db, err := pgutils.OpenDB(ctx, *cfg.Postgres)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}

		shutdownqueue.Add("postgres", func(context.Context) error {
			return db.Close()
		})

		snaps = snapshot.New(db)

		slog.Info("snapshot export enabled")
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.NewRouter(api.NewHandler(proc, snaps), reg))

	shutdownqueue.Add("http server", func(c context.Context) error {
		slog.Info("Shut down server")

		return srv.Shutdown(c)
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
