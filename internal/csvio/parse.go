package csvio

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/shopspring/decimal"
)

var ErrMalformedRow = errors.New("malformed row")

// plainAmount is an unsigned decimal without exponent. Range and precision
// are left to models.ValidateAmount.
var plainAmount = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// maxAmountLen caps the raw column before it is parsed.
const maxAmountLen = 64

// RowError ties a decoding failure to its input line.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseLine decodes the fields of one `type,client,tx,amount` row. The
// amount column may be missing or empty for dispute, resolve and chargeback.
func ParseLine(fields []string) (models.Record, error) {
	if len(fields) < 3 {
		return models.Record{}, fmt.Errorf("%w: expected at least 3 fields, got %d", ErrMalformedRow, len(fields))
	}

	if len(fields) > 4 {
		return models.Record{}, fmt.Errorf("%w: expected at most 4 fields, got %d", ErrMalformedRow, len(fields))
	}

	kind, err := models.ParseKind(fields[0])
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrMalformedRow, err)
	}

	client, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: invalid client %q", ErrMalformedRow, fields[1])
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: invalid tx %q", ErrMalformedRow, fields[2])
	}

	record := models.Record{
		ID:       uint32(tx),
		ClientID: uint16(client),
		Kind:     kind,
	}

	rawAmount := ""
	if len(fields) == 4 {
		rawAmount = strings.TrimSpace(fields[3])
	}

	if !kind.CarriesAmount() {
		if rawAmount != "" {
			return models.Record{}, fmt.Errorf("%w: %s takes no amount", ErrMalformedRow, kind)
		}

		return record, nil
	}

	amount, err := parseAmount(rawAmount)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrMalformedRow, err)
	}

	record.Amount = amount
	record.HasAmount = true

	return record, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, errors.New("amount required")
	}

	if len(s) > maxAmountLen || !plainAmount.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", truncate(s))
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	err = models.ValidateAmount(d)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", truncate(s), err)
	}

	return d, nil
}

func isHeader(fields []string) bool {
	return len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "type")
}

func truncate(s string) string {
	if len(s) > maxAmountLen {
		return s[:maxAmountLen] + "..."
	}

	return s
}
