package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/storage/memory"
)

func swapOperation(account uuid.UUID, source, received int64) (models.Operation, []models.LedgerEntry) {
	op := models.Operation{
		ID:        uuid.New(),
		Kind:      models.OperationSwap,
		AccountID: account,
		AmountA:   decimal.NewFromInt(source),
		AmountB:   decimal.NewFromInt(received),
		CreatedAt: time.Now(),
	}
	return op, []models.LedgerEntry{
		{ID: op.ID.String() + "-a", OperationID: op.ID, AccountID: account, Asset: models.AssetA, Amount: decimal.NewFromInt(-source), CreatedAt: op.CreatedAt},
		{ID: op.ID.String() + "-b", OperationID: op.ID, AccountID: account, Asset: models.AssetB, Amount: decimal.NewFromInt(received), CreatedAt: op.CreatedAt},
	}
}

func TestMemoryLedgerStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryLedgerStore()
	alice, bob := uuid.New(), uuid.New()

	opA, entriesA := swapOperation(alice, 100, 50)
	opB, entriesB := swapOperation(bob, 10, 4)
	require.NoError(t, store.SaveOperation(ctx, opA, entriesA))
	require.NoError(t, store.SaveOperation(ctx, opB, entriesB))

	all, err := store.GetLedgerEntries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, entriesA[0].ID, all[0].ID)

	// The returned slice is a copy.
	all[0].Amount = decimal.NewFromInt(1)
	again, err := store.GetLedgerEntries(ctx)
	require.NoError(t, err)
	require.True(t, again[0].Amount.Equal(decimal.NewFromInt(-100)))

	mine, err := store.GetEntriesByAccount(ctx, bob)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, models.AssetB, mine[1].Asset)
	require.True(t, mine[1].Amount.Equal(decimal.NewFromInt(4)))

	none, err := store.GetEntriesByAccount(ctx, uuid.New())
	require.NoError(t, err)
	require.Empty(t, none)

	got, ok := store.GetOperation(opA.ID)
	require.True(t, ok)
	require.Equal(t, models.OperationSwap, got.Kind)
	_, ok = store.GetOperation(uuid.New())
	require.False(t, ok)
}
