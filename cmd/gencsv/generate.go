package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/shopspring/decimal"
)

type genOptions struct {
	Clients      int
	Transactions int
	// Weights for deposit, withdrawal, dispute, resolve and chargeback.
	Weights [5]int
}

var defaultWeights = [5]int{60, 30, 5, 3, 2}

var kinds = [5]models.Kind{
	models.KindDeposit,
	models.KindWithdrawal,
	models.KindDispute,
	models.KindResolve,
	models.KindChargeback,
}

type clientHistory struct {
	deposits []uint32
	open     []uint32 // disputed, not yet settled
	settled  map[uint32]bool
}

// generate writes a header plus up to opts.Transactions rows. Rows that
// would reference nothing (a dispute with no deposit to dispute, say) are
// skipped, so the output is usually shorter than requested.
func generate(w io.Writer, opts genOptions, rng *rand.Rand) (int, error) {
	cw := csv.NewWriter(w)

	err := cw.Write([]string{"type", "client", "tx", "amount"})
	if err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	total := 0
	for _, wt := range opts.Weights {
		total += wt
	}

	if total <= 0 || opts.Clients <= 0 {
		return 0, fmt.Errorf("invalid options: clients=%d weights=%v", opts.Clients, opts.Weights)
	}

	history := make(map[uint16]*clientHistory)
	nextTx := uint32(1)
	written := 0

	for range opts.Transactions {
		kind := pickKind(rng, opts.Weights, total)
		client := uint16(rng.IntN(opts.Clients) + 1)

		h, ok := history[client]
		if !ok {
			h = &clientHistory{settled: make(map[uint32]bool)}
			history[client] = h
		}

		var row []string

		switch kind {
		case models.KindDeposit:
			row = amountRow(kind, client, nextTx, randomAmount(rng))
			h.deposits = append(h.deposits, nextTx)
			nextTx++
		case models.KindWithdrawal:
			if len(h.deposits) == 0 {
				continue
			}

			row = amountRow(kind, client, nextTx, randomAmount(rng).Div(decimal.NewFromInt(2)).Truncate(models.AmountPlaces))
			nextTx++
		case models.KindDispute:
			candidates := slices.DeleteFunc(slices.Clone(h.deposits), func(id uint32) bool {
				return h.settled[id] || slices.Contains(h.open, id)
			})
			if len(candidates) == 0 {
				continue
			}

			id := candidates[rng.IntN(len(candidates))]
			h.open = append(h.open, id)
			row = refRow(kind, client, id)
		case models.KindResolve, models.KindChargeback:
			if len(h.open) == 0 {
				continue
			}

			i := rng.IntN(len(h.open))
			id := h.open[i]
			h.open = slices.Delete(h.open, i, i+1)
			h.settled[id] = true
			row = refRow(kind, client, id)
		}

		err = cw.Write(row)
		if err != nil {
			return written, fmt.Errorf("write row: %w", err)
		}

		written++
	}

	cw.Flush()

	err = cw.Error()
	if err != nil {
		return written, fmt.Errorf("flush: %w", err)
	}

	return written, nil
}

func pickKind(rng *rand.Rand, weights [5]int, total int) models.Kind {
	n := rng.IntN(total)

	for i, wt := range weights {
		if n < wt {
			return kinds[i]
		}

		n -= wt
	}

	return models.KindDeposit
}

// randomAmount returns a value in [1, 10000) with four decimal places.
func randomAmount(rng *rand.Rand) decimal.Decimal {
	units := 10_000 + rng.Int64N(99_990_000)
	return decimal.New(units, -models.AmountPlaces)
}

func amountRow(kind models.Kind, client uint16, tx uint32, amount decimal.Decimal) []string {
	return []string{
		string(kind),
		strconv.FormatUint(uint64(client), 10),
		strconv.FormatUint(uint64(tx), 10),
		amount.StringFixed(models.AmountPlaces),
	}
}

func refRow(kind models.Kind, client uint16, tx uint32) []string {
	return []string{
		string(kind),
		strconv.FormatUint(uint64(client), 10),
		strconv.FormatUint(uint64(tx), 10),
		"",
	}
}
