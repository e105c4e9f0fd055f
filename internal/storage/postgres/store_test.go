package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/storage/postgres"
)

// Runs against a real database only when ESCROW_TEST_DATABASE_URL is set.
func TestPostgresLedgerStore(t *testing.T) {
	dsn := os.Getenv("ESCROW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ESCROW_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := postgres.NewPostgresLedgerStore(db)
	require.NoError(t, store.Migrate(ctx))

	account := uuid.New()
	amount, err := decimal.NewFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)

	op := models.Operation{
		ID:        uuid.New(),
		Kind:      models.OperationDeposit,
		AccountID: account,
		AmountA:   amount,
		AmountB:   decimal.Zero,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	entry := models.LedgerEntry{
		ID:          op.ID.String() + "-a",
		OperationID: op.ID,
		AccountID:   account,
		Asset:       models.AssetA,
		Amount:      amount,
		CreatedAt:   op.CreatedAt,
	}
	require.NoError(t, store.SaveOperation(ctx, op, []models.LedgerEntry{entry}))

	entries, err := store.GetEntriesByAccount(ctx, account)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entry.ID, entries[0].ID)
	require.Equal(t, models.AssetA, entries[0].Asset)
	require.True(t, amount.Equal(entries[0].Amount))

	// A duplicate entry id fails the whole operation.
	dup := op
	dup.ID = uuid.New()
	require.Error(t, store.SaveOperation(ctx, dup, []models.LedgerEntry{entry}))

	all, err := store.GetLedgerEntries(ctx)
	require.NoError(t, err)
	var count int
	for _, e := range all {
		if e.AccountID == account {
			count++
		}
	}
	require.Equal(t, 1, count)
}
