package snapshots

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/google/uuid"
)

func (r *snapshotsRepo) InsertAccount(tx *sql.Tx, runID uuid.UUID, account models.Account) error {
	_, err := tx.Exec(`
		INSERT INTO account_snapshots (run_id, client_id, available, held, total, locked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		runID,
		int32(account.ClientID),
		account.Available.StringFixed(models.AmountPlaces),
		account.Held.StringFixed(models.AmountPlaces),
		account.Total().StringFixed(models.AmountPlaces),
		account.Locked,
	)
	if err != nil {
		return fmt.Errorf("insert account %d: %w", account.ClientID, err)
	}

	return nil
}
