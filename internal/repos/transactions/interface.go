package transactions

import (
	"errors"

	"github.com/fastprodman/ledgerengine/internal/models"
)

var (
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrNotFound             = errors.New("transaction not found")
	ErrNotStorable          = errors.New("transaction kind is not storable")
)

// Transactions records accepted deposits and withdrawals and tracks their
// dispute status on behalf of the ledger engine.
type Transactions interface {
	Insert(record models.Record) error
	Get(id uint32) (models.Record, bool)
	GetForClient(id uint32, clientID uint16) (models.Record, bool)
	SetDisputeStatus(id uint32, status models.DisputeStatus) error
	Len() int
}
