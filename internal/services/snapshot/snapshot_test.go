package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/fastprodman/ledgerengine/internal/infra/pgtestutil"
	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/fastprodman/ledgerengine/internal/services/processor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotService_ExportAndLoad(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	in := "type,client,tx,amount\n" +
		"deposit,1,1,10.1234\n" +
		"deposit,2,2,3\n" +
		"dispute,2,2,\n" +
		"withdrawal,1,3,100\n"

	res, err := processor.New(processor.Options{}).Process(t.Context(), strings.NewReader(in))
	require.NoError(t, err)

	svc := New(db)
	require.NoError(t, svc.Export(t.Context(), res))

	run, accounts, err := svc.Accounts(t.Context(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), run.Records)
	assert.Equal(t, uint64(1), run.Rejected)

	require.Len(t, accounts, 2)
	assert.Equal(t, "10.1234", accounts[0].Available.StringFixed(models.AmountPlaces))
	assert.Equal(t, "3.0000", accounts[1].Held.StringFixed(models.AmountPlaces))

	// exporting the same run twice fails and leaves the first copy intact
	err = svc.Export(t.Context(), res)
	require.Error(t, err)

	_, accounts, err = svc.Accounts(t.Context(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestSnapshotService_UnknownRun(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	_, _, err := New(db).Accounts(t.Context(), uuid.New())
	require.True(t, errors.Is(err, ErrNotFound))
}
