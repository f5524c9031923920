package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of fractional digits every monetary value carries.
const AmountPlaces = 4

// MaxAmountDigits bounds the significant digits of an amount, fractional
// places included.
const MaxAmountDigits = 28

type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

var (
	ErrUnknownKind       = errors.New("unknown transaction kind")
	ErrNonPositiveAmount = errors.New("amount must be > 0")
	ErrAmountPrecision   = errors.New("amount supports up to 4 decimals")
	ErrAmountRange       = errors.New("amount out of range")
)

// ParseKind maps a wire name to a Kind, ignoring case and surrounding spaces.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// CarriesAmount reports whether records of this kind move money themselves.
// Only these are stored and can later be referenced by a dispute.
func (k Kind) CarriesAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

type DisputeStatus string

const (
	DisputeNone        DisputeStatus = "none"
	DisputeDisputed    DisputeStatus = "disputed"
	DisputeResolved    DisputeStatus = "resolved"
	DisputeChargedBack DisputeStatus = "chargedback"
)

// Terminal reports whether no further dispute transition is possible.
func (s DisputeStatus) Terminal() bool {
	return s == DisputeResolved || s == DisputeChargedBack
}

// Record is a single decoded transaction instruction.
//
// Amount is meaningful only when HasAmount is set, which is the case for
// deposits and withdrawals. DisputeStatus is maintained by the transaction
// store for stored records and is ignored on input.
type Record struct {
	ID            uint32
	ClientID      uint16
	Kind          Kind
	Amount        decimal.Decimal
	HasAmount     bool
	DisputeStatus DisputeStatus
}

func (r Record) String() string {
	if r.HasAmount {
		return fmt.Sprintf("%s(client=%d, tx=%d, amount=%s)", r.Kind, r.ClientID, r.ID, r.Amount)
	}

	return fmt.Sprintf("%s(client=%d, tx=%d)", r.Kind, r.ClientID, r.ID)
}

// ValidateAmount checks that d is a positive value with at most AmountPlaces
// significant fractional digits and at most MaxAmountDigits digits overall.
//
// The range is checked on the coefficient and exponent before any
// arithmetic, since rescaling a value like 1e400000000 is unbounded work.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrNonPositiveAmount
	}

	exp := int(d.Exponent())
	if exp < -MaxAmountDigits || exp > MaxAmountDigits {
		return ErrAmountRange
	}

	intDigits := len(d.Coefficient().String()) + exp
	if intDigits > MaxAmountDigits-AmountPlaces {
		return ErrAmountRange
	}

	if !d.Equal(d.Truncate(AmountPlaces)) {
		return ErrAmountPrecision
	}

	return nil
}
