package csvio

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		want    models.Record
		wantErr bool
	}{
		{
			name: "deposit",
			line: "deposit,1,1,100.50",
			want: models.Record{ID: 1, ClientID: 1, Kind: models.KindDeposit, Amount: decimal.RequireFromString("100.50"), HasAmount: true},
		},
		{
			name: "withdrawal_spaces",
			line: "withdrawal, 2, 5, 20.75",
			want: models.Record{ID: 5, ClientID: 2, Kind: models.KindWithdrawal, Amount: decimal.RequireFromString("20.75"), HasAmount: true},
		},
		{
			name: "dispute_trailing_comma",
			line: "dispute,1,10,",
			want: models.Record{ID: 10, ClientID: 1, Kind: models.KindDispute},
		},
		{
			name: "resolve_three_fields",
			line: "resolve,3,15",
			want: models.Record{ID: 15, ClientID: 3, Kind: models.KindResolve},
		},
		{
			name: "chargeback",
			line: "chargeback,4,20",
			want: models.Record{ID: 20, ClientID: 4, Kind: models.KindChargeback},
		},
		{name: "unknown_type", line: "unknown,1,1,100", wantErr: true},
		{name: "too_few_fields", line: "deposit,1", wantErr: true},
		{name: "too_many_fields", line: "deposit,1,1,1,1", wantErr: true},
		{name: "bad_client", line: "deposit,abc,1,100", wantErr: true},
		{name: "client_overflow", line: "deposit,70000,1,100", wantErr: true},
		{name: "bad_tx", line: "deposit,1,abc,100", wantErr: true},
		{name: "negative_tx", line: "deposit,1,-1,100", wantErr: true},
		{name: "bad_amount", line: "deposit,1,1,abc", wantErr: true},
		{name: "missing_amount", line: "deposit,1,1,", wantErr: true},
		{name: "negative_amount", line: "withdrawal,1,1,-5", wantErr: true},
		{name: "zero_amount", line: "deposit,1,1,0", wantErr: true},
		{name: "five_decimals", line: "deposit,1,1,1.00001", wantErr: true},
		{name: "dispute_with_amount", line: "dispute,1,1,5", wantErr: true},
		{name: "exponent", line: "deposit,1,1,1e3", wantErr: true},
		{name: "negative_exponent", line: "deposit,1,1,1E-2", wantErr: true},
		{name: "huge_exponent", line: "deposit,1,1,1e400000000", wantErr: true},
		{name: "too_many_digits", line: "deposit,1,1,1000000000000000000000000", wantErr: true},
		{name: "overlong_column", line: "deposit,1,1," + strings.Repeat("1", 100), wantErr: true},
		{name: "explicit_sign", line: "deposit,1,1,+5", wantErr: true},
		{name: "bare_fraction", line: "deposit,1,1,.5", wantErr: true},
		{
			name: "largest_amount",
			line: "deposit,1,1,999999999999999999999999.9999",
			want: models.Record{ID: 1, ClientID: 1, Kind: models.KindDeposit, Amount: decimal.RequireFromString("999999999999999999999999.9999"), HasAmount: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLine(strings.Split(tt.line, ","))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedRow)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.ClientID, got.ClientID)
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.HasAmount, got.HasAmount)
			assert.True(t, tt.want.Amount.Equal(got.Amount), "amount %s != %s", got.Amount, tt.want.Amount)
		})
	}
}

func collect(t *testing.T, d *Decoder) []Row {
	t.Helper()

	var rows []Row
	for b := range d.Stream(t.Context()) {
		rows = append(rows, b...)
	}

	require.NoError(t, d.Err())

	return rows
}

func TestDecoder_SkipsHeaderAndKeepsLines(t *testing.T) {
	t.Parallel()

	in := "type, client, tx, amount\n" +
		"deposit, 1, 1, 1.0\n" +
		"\n" +
		"bogus,1,2,3\n" +
		"dispute, 1, 1,\n"

	rows := collect(t, NewDecoder(strings.NewReader(in), DecoderOptions{BatchSize: 2, Workers: 2}))
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Line)
	assert.NoError(t, rows[0].Err)
	assert.Equal(t, models.KindDeposit, rows[0].Record.Kind)

	assert.Equal(t, 4, rows[1].Line)
	require.ErrorIs(t, rows[1].Err, ErrMalformedRow)

	var rowErr *RowError
	require.ErrorAs(t, rows[1].Err, &rowErr)
	assert.Equal(t, 4, rowErr.Line)

	assert.Equal(t, 5, rows[2].Line)
	assert.Equal(t, models.KindDispute, rows[2].Record.Kind)
}

func TestDecoder_NoHeader(t *testing.T) {
	t.Parallel()

	rows := collect(t, NewDecoder(strings.NewReader("deposit,1,1,1\n"), DecoderOptions{}))
	require.Len(t, rows, 1)
	assert.NoError(t, rows[0].Err)
}

func TestDecoder_QuoteErrorIsRowLevel(t *testing.T) {
	t.Parallel()

	in := "deposit,1,1,1\n" +
		"deposit,1,\"2,2\n"

	rows := collect(t, NewDecoder(strings.NewReader(in), DecoderOptions{}))
	require.NotEmpty(t, rows)
	assert.NoError(t, rows[0].Err)
	assert.ErrorIs(t, rows[len(rows)-1].Err, ErrMalformedRow)
}

func TestDecoder_OrderIndependentOfBatching(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("type,client,tx,amount\n")
	for i := 1; i <= 1000; i++ {
		fmt.Fprintf(&sb, "deposit,%d,%d,%d.0\n", i%7+1, i, i)
	}
	input := sb.String()

	for _, opts := range []DecoderOptions{
		{BatchSize: 1, Workers: 1},
		{BatchSize: 3, Workers: 8},
		{BatchSize: 64, Workers: 4},
		{BatchSize: 5000, Workers: 2},
	} {
		t.Run(fmt.Sprintf("batch_%d_workers_%d", opts.BatchSize, opts.Workers), func(t *testing.T) {
			t.Parallel()

			rows := collect(t, NewDecoder(strings.NewReader(input), opts))
			require.Len(t, rows, 1000)

			for i, row := range rows {
				require.NoError(t, row.Err)
				require.Equal(t, uint32(i+1), row.Record.ID, "row %d out of order", i)
				require.Equal(t, i+2, row.Line)
			}
		})
	}
}

func TestDecoder_StopsOnCancel(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := 1; i <= 10_000; i++ {
		fmt.Fprintf(&sb, "deposit,1,%d,1\n", i)
	}

	ctx, cancel := context.WithCancel(t.Context())
	d := NewDecoder(strings.NewReader(sb.String()), DecoderOptions{BatchSize: 10, Workers: 2})
	stream := d.Stream(ctx)

	<-stream
	cancel()

	for range stream {
	}

	assert.ErrorIs(t, d.Err(), context.Canceled)
}

func TestWriteAccounts(t *testing.T) {
	t.Parallel()

	accounts := []models.Account{
		{ClientID: 2, Available: decimal.RequireFromString("3"), Held: decimal.Zero},
		{ClientID: 1, Available: decimal.RequireFromString("1.5"), Held: decimal.RequireFromString("0.25"), Locked: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	want := "client,available,held,total,locked\n" +
		"1,1.5000,0.2500,1.7500,true\n" +
		"2,3.0000,0.0000,3.0000,false\n"
	assert.Equal(t, want, buf.String())

	// input order is left alone
	assert.Equal(t, uint16(2), accounts[0].ClientID)
}
