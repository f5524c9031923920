// Command gencsv writes a random, referentially consistent transaction CSV
// for load testing the ledger.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/fastprodman/ledgerengine/internal/infra/logging"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		slog.Error("generate failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) (retErr error) {
	logging.SetupJSON(slog.LevelInfo, os.Stderr)

	opts := genOptions{Weights: defaultWeights}

	var (
		out  string
		seed uint64
	)

	fs := flag.NewFlagSet("gencsv", flag.ContinueOnError)
	fs.IntVar(&opts.Clients, "clients", 1000, "number of distinct clients")
	fs.IntVar(&opts.Transactions, "transactions", 500_000, "number of rows to attempt")
	fs.StringVar(&out, "out", "transactions.csv", "output file")
	fs.Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "random seed")

	err := fs.Parse(args)
	if err != nil {
		return err
	}

	if opts.Clients > 1<<16-1 {
		return fmt.Errorf("clients must be at most %d", 1<<16-1)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	defer func() {
		retErr = errors.Join(retErr, f.Close())
	}()

	bw := bufio.NewWriter(f)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	written, err := generate(bw, opts, rng)
	if err != nil {
		return err
	}

	err = bw.Flush()
	if err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	slog.Info("generated transactions", "rows", written, "clients", opts.Clients, "file", out, "seed", seed)

	return nil
}
