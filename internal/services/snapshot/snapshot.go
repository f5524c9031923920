package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/ledgerengine/internal/infra/pgutils"
	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/fastprodman/ledgerengine/internal/repos/snapshots"
	pgsnapshots "github.com/fastprodman/ledgerengine/internal/repos/snapshots/postgres"
	"github.com/fastprodman/ledgerengine/internal/services/processor"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("snapshot not found")

// SnapshotService exports the final accounts of a run to Postgres.
type SnapshotService struct {
	db    *sql.DB
	snaps snapshots.Snapshots
}

func New(dbx *sql.DB) *SnapshotService {
	return &SnapshotService{
		db:    dbx,
		snaps: pgsnapshots.New(dbx),
	}
}

// Export writes the run summary and every account in one transaction, so a
// run is either fully visible or not at all.
func (s *SnapshotService) Export(ctx context.Context, res processor.Result) error {
	run := snapshots.Run{
		ID:         res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Records:    res.Stats.Records,
		Rejected:   res.Stats.RejectedTotal(),
		Malformed:  res.Malformed,
	}

	err := pgutils.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		err := s.snaps.InsertRun(tx, run)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, acc := range res.Accounts {
			err = s.snaps.InsertAccount(tx, run.ID, acc)
			if err != nil {
				return fmt.Errorf("insert account: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("export run %s: %w", run.ID, err)
	}

	return nil
}

// Accounts loads the exported accounts of a run, ordered by client id.
func (s *SnapshotService) Accounts(ctx context.Context, runID uuid.UUID) (snapshots.Run, []models.Account, error) {
	run, err := s.snaps.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, snapshots.ErrRunNotFound) {
			return snapshots.Run{}, nil, ErrNotFound
		}

		return snapshots.Run{}, nil, fmt.Errorf("get run: %w", err)
	}

	accounts, err := s.snaps.ListAccounts(ctx, runID)
	if err != nil {
		return snapshots.Run{}, nil, fmt.Errorf("list accounts: %w", err)
	}

	return run, accounts, nil
}
