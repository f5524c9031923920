package snapshots

import (
	"context"
	"fmt"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/google/uuid"
)

// ListAccounts returns the accounts of a run ordered by client id. The
// stored total is not read back; it is always available + held.
func (r *snapshotsRepo) ListAccounts(ctx context.Context, runID uuid.UUID) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT client_id, available, held, locked
		FROM account_snapshots
		WHERE run_id = $1
		ORDER BY client_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account

	for rows.Next() {
		var (
			acc    models.Account
			client int32
		)

		err = rows.Scan(&client, &acc.Available, &acc.Held, &acc.Locked)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		acc.ClientID = uint16(client)
		out = append(out, acc)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return out, nil
}
