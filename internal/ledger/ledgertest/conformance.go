// Package ledgertest holds the behaviour every ledger.Store backend must share.
package ledgertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumilend/backend/internal/ledger"
)

type record struct {
	Amount int64 `json:"amount"`
}

// Run exercises s against the Store contract. s must be empty.
func Run(t *testing.T, s ledger.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, ledger.KeyPoolTotals)
	require.ErrorIs(t, err, ledger.ErrNotFound)

	ok, err := ledger.Has(ctx, s, ledger.KeyPoolTotals)
	require.NoError(t, err)
	require.False(t, ok)

	lenderKey := ledger.LenderKey("GLENDER")
	b := ledger.NewBatch()
	require.NoError(t, b.PutJSON(ledger.KeyPoolTotals, record{Amount: 50}))
	require.NoError(t, b.PutJSON(lenderKey, record{Amount: 50}))
	require.NoError(t, b.PutJSON(ledger.KeyNextLoanID, uint64(1)))
	require.Equal(t, 3, b.Len())
	require.NoError(t, s.Commit(ctx, b))

	var got record
	require.NoError(t, ledger.GetJSON(ctx, s, lenderKey, &got))
	require.Equal(t, int64(50), got.Amount)

	var next uint64
	require.NoError(t, ledger.GetJSON(ctx, s, ledger.KeyNextLoanID, &next))
	require.Equal(t, uint64(1), next)

	// overwrite and delete in one batch
	b = ledger.NewBatch()
	require.NoError(t, b.PutJSON(lenderKey, record{Amount: 20}))
	b.Delete(ledger.KeyNextLoanID)
	b.Delete(ledger.ActiveLoanKey("GNOBODY"))
	require.NoError(t, s.Commit(ctx, b))

	require.NoError(t, ledger.GetJSON(ctx, s, lenderKey, &got))
	require.Equal(t, int64(20), got.Amount)
	ok, err = ledger.Has(ctx, s, ledger.KeyNextLoanID)
	require.NoError(t, err)
	require.False(t, ok)

	// Put copies its input
	raw := []byte(`{"amount":7}`)
	b = ledger.NewBatch()
	b.Put(ledger.LoanKey(7), raw)
	raw[10] = '9'
	require.NoError(t, s.Commit(ctx, b))
	require.NoError(t, ledger.GetJSON(ctx, s, ledger.LoanKey(7), &got))
	require.Equal(t, int64(7), got.Amount)

	require.NoError(t, s.Commit(ctx, ledger.NewBatch()))
}
