package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "deposit", want: KindDeposit},
		{in: " Withdrawal ", want: KindWithdrawal},
		{in: "DISPUTE", want: KindDispute},
		{in: "resolve", want: KindResolve},
		{in: "chargeback", want: KindChargeback},
		{in: "refund", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownKind)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantErr error
	}{
		{in: "1", wantErr: nil},
		{in: "0.0001", wantErr: nil},
		{in: "2.50000", wantErr: nil}, // trailing zeros are not extra precision
		{in: "0", wantErr: ErrNonPositiveAmount},
		{in: "-3.2", wantErr: ErrNonPositiveAmount},
		{in: "1.00001", wantErr: ErrAmountPrecision},
		{in: "999999999999999999999999.9999", wantErr: nil},
		{in: "1000000000000000000000000", wantErr: ErrAmountRange},
		{in: "1e400000000", wantErr: ErrAmountRange},
		{in: "1e-400000000", wantErr: ErrAmountRange},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			err := ValidateAmount(decimal.RequireFromString(tt.in))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAccountTotal(t *testing.T) {
	t.Parallel()

	acc := NewAccount(7)
	acc.Available = decimal.RequireFromString("1.2345")
	acc.Held = decimal.RequireFromString("0.0005")

	assert.True(t, acc.Total().Equal(decimal.RequireFromString("1.235")))
	assert.Equal(t, "1.2350", acc.Total().StringFixed(AmountPlaces))
}

func TestDisputeStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, DisputeNone.Terminal())
	assert.False(t, DisputeDisputed.Terminal())
	assert.True(t, DisputeResolved.Terminal())
	assert.True(t, DisputeChargedBack.Terminal())
}
