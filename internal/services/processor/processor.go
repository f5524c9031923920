package processor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fastprodman/ledgerengine/internal/csvio"
	"github.com/fastprodman/ledgerengine/internal/infra/metrics"
	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/fastprodman/ledgerengine/internal/repos/transactions/memory"
	"github.com/fastprodman/ledgerengine/internal/services/ledger"
	"github.com/google/uuid"
)

type Options struct {
	BatchSize int
	Workers   int
	Logger    *slog.Logger
	Metrics   *metrics.LedgerMetrics
	// Sink receives engine diagnostics in addition to the log and metrics.
	Sink ledger.Sink
}

// Result is the outcome of one completed run.
type Result struct {
	RunID      uuid.UUID
	Accounts   []models.Account // ordered by client id
	Stats      ledger.Stats
	Malformed  uint64
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Processor runs CSV input through a fresh ledger engine per call.
type Processor struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{opts: opts, logger: logger}
}

// Process decodes r and applies every well-formed row in input order.
//
// Malformed rows are logged and skipped. A fatal engine error aborts the run
// and is returned with the offending input line.
func (p *Processor) Process(ctx context.Context, r io.Reader) (Result, error) {
	res := Result{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	logger := p.logger.With("run_id", res.RunID.String())
	logger.Info("run started", "batch_size", p.opts.BatchSize, "workers", p.opts.Workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := memory.New()
	engine := ledger.New(store, ledger.MultiSink(
		ledger.NewLogSink(logger),
		p.opts.Metrics,
		p.opts.Sink,
	))

	runErr := p.consume(ctx, logger, r, engine, &res)

	res.FinishedAt = time.Now()
	res.Stats = engine.Stats()
	p.opts.Metrics.ObserveRun(res.Stats, res.Duration(), runErr)

	if runErr != nil {
		logger.Error("run aborted", "error", runErr, "records", res.Stats.Records)
		return Result{}, fmt.Errorf("run %s: %w", res.RunID, runErr)
	}

	res.Accounts = models.SortAccounts(engine.Accounts())

	logger.Info("run finished",
		"records", res.Stats.Records,
		"rejected", res.Stats.RejectedTotal(),
		"malformed", res.Malformed,
		"stored", store.Len(),
		"accounts", len(res.Accounts),
		"duration", res.Duration().String(),
	)

	return res, nil
}

func (p *Processor) consume(ctx context.Context, logger *slog.Logger, r io.Reader, engine *ledger.Engine, res *Result) error {
	dec := csvio.NewDecoder(r, csvio.DecoderOptions{
		BatchSize: p.opts.BatchSize,
		Workers:   p.opts.Workers,
	})

	for batch := range dec.Stream(ctx) {
		for _, row := range batch {
			if row.Err != nil {
				res.Malformed++
				p.opts.Metrics.IncMalformed()
				logger.Warn("skipping malformed row", "line", row.Line, "error", row.Err)

				continue
			}

			_, err := engine.Apply(row.Record)
			if err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
		}
	}

	err := dec.Err()
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	return nil
}
