package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fastprodman/ledgerengine/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 1000
	DefaultWorkers   = 4
)

type DecoderOptions struct {
	// BatchSize is the number of input rows decoded as one unit.
	BatchSize int
	// Workers bounds how many batches are decoded at the same time.
	Workers int
}

func (o DecoderOptions) withDefaults() DecoderOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}

	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}

	return o
}

// Row is one decoded input line. When Err is set the line could not be
// decoded and Record is empty.
type Row struct {
	Line   int
	Record models.Record
	Err    error
}

type Batch []Row

type rawRow struct {
	line   int
	fields []string
	err    error
}

// Decoder turns a CSV stream into batches of rows.
//
// Batches are decoded concurrently but always delivered in input order.
type Decoder struct {
	r    *csv.Reader
	opts DecoderOptions

	mu  sync.Mutex
	err error
}

func NewDecoder(r io.Reader, opts DecoderOptions) *Decoder {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	return &Decoder{
		r:    cr,
		opts: opts.withDefaults(),
	}
}

// Stream starts decoding and returns the batch channel. The channel is
// closed at end of input, on a read error, or when ctx is done; Err reports
// why. Callers that stop reading early must cancel ctx.
func (d *Decoder) Stream(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	pending := make(chan chan Batch, d.opts.Workers)

	go d.produce(ctx, pending)

	go func() {
		defer func() {
			// Wait for the producer so Err is settled once out is closed.
			for range pending {
			}

			close(out)
		}()

		for res := range pending {
			var b Batch

			select {
			case b = <-res:
			case <-ctx.Done():
				return
			}

			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Err returns the error that ended the stream, if any. It is meaningful
// once the channel returned by Stream is closed.
func (d *Decoder) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.err
}

func (d *Decoder) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.err = err
}

// produce reads raw chunks sequentially and hands each to a decode worker.
// The per-chunk result channel is queued on pending in read order, which is
// what keeps the output ordered regardless of which worker finishes first.
func (d *Decoder) produce(ctx context.Context, pending chan<- chan Batch) {
	defer close(pending)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	readErr := d.readChunks(gctx, func(chunk []rawRow) error {
		res := make(chan Batch, 1)

		select {
		case pending <- res:
		case <-gctx.Done():
			return gctx.Err()
		}

		g.Go(func() error {
			res <- decodeChunk(chunk)
			return nil
		})

		return nil
	})

	err := errors.Join(readErr, g.Wait())
	if err == nil {
		err = ctx.Err()
	}

	d.setErr(err)
}

func (d *Decoder) readChunks(ctx context.Context, emit func([]rawRow) error) error {
	chunk := make([]rawRow, 0, d.opts.BatchSize)
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := d.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return fmt.Errorf("read csv: %w", err)
			}

			chunk = append(chunk, rawRow{line: pe.StartLine, err: fmt.Errorf("%w: %w", ErrMalformedRow, pe.Err)})
		} else {
			line, _ := d.r.FieldPos(0)

			if first && isHeader(fields) {
				first = false
				continue
			}

			chunk = append(chunk, rawRow{line: line, fields: fields})
		}

		first = false

		if len(chunk) >= d.opts.BatchSize {
			err = emit(chunk)
			if err != nil {
				return err
			}

			chunk = make([]rawRow, 0, d.opts.BatchSize)
		}
	}

	if len(chunk) > 0 {
		return emit(chunk)
	}

	return nil
}

func decodeChunk(chunk []rawRow) Batch {
	batch := make(Batch, 0, len(chunk))

	for _, raw := range chunk {
		row := Row{Line: raw.line}

		if raw.err != nil {
			row.Err = &RowError{Line: raw.line, Err: raw.err}
		} else {
			record, err := ParseLine(raw.fields)
			if err != nil {
				row.Err = &RowError{Line: raw.line, Err: err}
			} else {
				row.Record = record
			}
		}

		batch = append(batch, row)
	}

	return batch
}
