package memory

import (
	"fmt"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/fastprodman/ledgerengine/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

// transactionsRepo is a run-scoped store. It is not safe for concurrent use;
// the engine owning it applies records one at a time.
type transactionsRepo struct {
	records map[uint32]models.Record
}

func New() *transactionsRepo {
	return &transactionsRepo{records: make(map[uint32]models.Record)}
}

func (r *transactionsRepo) Insert(record models.Record) error {
	if !record.Kind.CarriesAmount() {
		return fmt.Errorf("insert %s: %w", record.Kind, transactions.ErrNotStorable)
	}

	if _, ok := r.records[record.ID]; ok {
		return fmt.Errorf("insert tx %d: %w", record.ID, transactions.ErrDuplicateTransaction)
	}

	record.DisputeStatus = models.DisputeNone
	r.records[record.ID] = record

	return nil
}

func (r *transactionsRepo) Get(id uint32) (models.Record, bool) {
	record, ok := r.records[id]

	return record, ok
}

// GetForClient hides records owned by another client, so a dispute issued
// by the wrong client looks exactly like one for an unknown id.
func (r *transactionsRepo) GetForClient(id uint32, clientID uint16) (models.Record, bool) {
	record, ok := r.records[id]
	if !ok || record.ClientID != clientID {
		return models.Record{}, false
	}

	return record, true
}

func (r *transactionsRepo) SetDisputeStatus(id uint32, status models.DisputeStatus) error {
	record, ok := r.records[id]
	if !ok {
		return fmt.Errorf("set dispute status of tx %d: %w", id, transactions.ErrNotFound)
	}

	record.DisputeStatus = status
	r.records[id] = record

	return nil
}

func (r *transactionsRepo) Len() int {
	return len(r.records)
}
