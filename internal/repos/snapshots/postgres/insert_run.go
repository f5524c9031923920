package snapshots

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/ledgerengine/internal/infra/pgutils"
	"github.com/fastprodman/ledgerengine/internal/repos/snapshots"
)

func (r *snapshotsRepo) InsertRun(tx *sql.Tx, run snapshots.Run) error {
	_, err := tx.Exec(`
		INSERT INTO ledger_runs (id, started_at, finished_at, records, rejected, malformed)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.StartedAt, run.FinishedAt, int64(run.Records), int64(run.Rejected), int64(run.Malformed))
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return snapshots.ErrDuplicateRun
		}

		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}
