// Command ledger replays a transaction CSV and prints the final account
// states as CSV on stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastprodman/ledgerengine/internal/config"
	"github.com/fastprodman/ledgerengine/internal/csvio"
	"github.com/fastprodman/ledgerengine/internal/infra/logging"
	"github.com/fastprodman/ledgerengine/internal/infra/pgutils"
	"github.com/fastprodman/ledgerengine/internal/services/processor"
	"github.com/fastprodman/ledgerengine/internal/services/snapshot"
	"github.com/fastprodman/ledgerengine/pkg/envconf"
	"github.com/joho/godotenv"
)

var errUsage = errors.New("usage: ledger [flags] FILE")

type cliConfig struct {
	logDir    string
	logLevel  slog.Level
	batchSize int
	workers   int
	export    bool
	input     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func parseFlags(args []string) (cliConfig, error) {
	var cfg cliConfig

	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	fs.StringVar(&cfg.logDir, "log-dir", "logs", "directory for run log files")
	fs.TextVar(&cfg.logLevel, "log-level", slog.LevelInfo, "log level (DEBUG, INFO, WARN, ERROR)")
	fs.IntVar(&cfg.batchSize, "batch-size", csvio.DefaultBatchSize, "rows decoded per batch")
	fs.IntVar(&cfg.workers, "workers", csvio.DefaultWorkers, "concurrent batch decoders")
	fs.BoolVar(&cfg.export, "export", false, "write the final accounts to Postgres (PG_* env)")

	err := fs.Parse(args)
	if err != nil {
		return cliConfig{}, err
	}

	if fs.NArg() != 1 {
		return cliConfig{}, errUsage
	}

	cfg.input = fs.Arg(0)

	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) (retErr error) {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	logFile, err := logging.OpenRunFile(cfg.logDir, time.Now())
	if err != nil {
		return err
	}

	defer func() {
		retErr = errors.Join(retErr, logFile.Close())
	}()

	logger := logging.SetupJSON(cfg.logLevel, logFile)

	in, err := os.Open(cfg.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	//nolint:errcheck
	defer in.Close()

	proc := processor.New(processor.Options{
		BatchSize: cfg.batchSize,
		Workers:   cfg.workers,
		Logger:    logger,
	})

	res, err := proc.Process(ctx, in)
	if err != nil {
		return err
	}

	err = csvio.WriteAccounts(stdout, res.Accounts)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if cfg.export {
		err = export(ctx, res)
		if err != nil {
			return err
		}

		logger.Info("run exported", "run_id", res.RunID.String())
	}

	return nil
}

func export(ctx context.Context, res processor.Result) error {
	_ = godotenv.Load()

	pg := new(config.PostgresConfig)

	err := envconf.Load(pg)
	if err != nil {
		return fmt.Errorf("load postgres config: %w", err)
	}

	db, err := pgutils.OpenDB(ctx, *pg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	return snapshot.New(db).Export(ctx, res)
}
