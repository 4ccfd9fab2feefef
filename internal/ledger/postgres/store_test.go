package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumilend/backend/internal/ledger/ledgertest"
)

func TestStoreContract(t *testing.T) {
	pool := ledgertest.NewTestPool(t)
	ctx := context.Background()

	s := NewStore(pool)
	require.NoError(t, s.Migrate(ctx))
	_, err := pool.Exec(ctx, "TRUNCATE TABLE ledger_kv")
	require.NoError(t, err)

	require.NoError(t, s.Ping(ctx))
	ledgertest.Run(t, s)
}
