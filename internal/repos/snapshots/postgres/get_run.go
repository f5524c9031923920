package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/ledgerengine/internal/repos/snapshots"
	"github.com/google/uuid"
)

func (r *snapshotsRepo) GetRun(ctx context.Context, runID uuid.UUID) (snapshots.Run, error) {
	var (
		run                          = snapshots.Run{ID: runID}
		records, rejected, malformed int64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT started_at, finished_at, records, rejected, malformed
		FROM ledger_runs
		WHERE id = $1
	`, runID).Scan(&run.StartedAt, &run.FinishedAt, &records, &rejected, &malformed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return snapshots.Run{}, snapshots.ErrRunNotFound
		}

		return snapshots.Run{}, fmt.Errorf("get run: %w", err)
	}

	run.Records = uint64(records)
	run.Rejected = uint64(rejected)
	run.Malformed = uint64(malformed)

	return run, nil
}
