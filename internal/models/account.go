package models

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// Account is the per-client balance sheet.
type Account struct {
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

func NewAccount(clientID uint16) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Total is derived so it can never disagree with Available + Held.
func (a Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// SortAccounts returns a copy of accounts ordered by client id.
func SortAccounts(accounts []Account) []Account {
	out := slices.Clone(accounts)
	slices.SortFunc(out, func(a, b Account) int {
		return cmp.Compare(a.ClientID, b.ClientID)
	})

	return out
}
