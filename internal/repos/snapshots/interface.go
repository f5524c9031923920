package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/google/uuid"
)

var (
	ErrDuplicateRun = errors.New("duplicate run")
	ErrRunNotFound  = errors.New("run not found")
)

// Run is the summary row written for every exported run.
type Run struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Records    uint64
	Rejected   uint64
	Malformed  uint64
}

// Snapshots stores final account states of finished runs. It is an export
// target only; nothing here is read back into a ledger engine.
type Snapshots interface {
	InsertRun(tx *sql.Tx, run Run) error
	InsertAccount(tx *sql.Tx, runID uuid.UUID, account models.Account) error
	GetRun(ctx context.Context, runID uuid.UUID) (Run, error)
	ListAccounts(ctx context.Context, runID uuid.UUID) ([]models.Account, error)
}
