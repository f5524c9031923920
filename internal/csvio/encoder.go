package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fastprodman/ledgerengine/internal/models"
)

var accountsHeader = []string{"client", "available", "held", "total", "locked"}

// WriteAccounts writes one row per account, ordered by client id, with every
// monetary value fixed to four decimals.
func WriteAccounts(w io.Writer, accounts []models.Account) error {
	sorted := models.SortAccounts(accounts)

	cw := csv.NewWriter(w)

	err := cw.Write(accountsHeader)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, acc := range sorted {
		err = cw.Write([]string{
			strconv.FormatUint(uint64(acc.ClientID), 10),
			acc.Available.StringFixed(models.AmountPlaces),
			acc.Held.StringFixed(models.AmountPlaces),
			acc.Total().StringFixed(models.AmountPlaces),
			strconv.FormatBool(acc.Locked),
		})
		if err != nil {
			return fmt.Errorf("write client %d: %w", acc.ClientID, err)
		}
	}

	cw.Flush()

	err = cw.Error()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	return nil
}
