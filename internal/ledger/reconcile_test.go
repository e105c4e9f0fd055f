package ledger_test

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/ledger"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/storage/memory"
)

func TestReconcile(t *testing.T) {
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()
	f.deposit(t, alice, 100)
	f.deposit(t, bob, 40)
	_, err := f.ledger.Swap(f.ctx, bob, bob, math.ZeroInt())
	require.NoError(t, err)

	// Stray funds sent straight to the ledger are surplus, not owed to anyone.
	require.NoError(t, f.tokenA.Mint(f.ctx, f.self, math.NewInt(7)))

	report, err := f.ledger.Reconcile(f.ctx)
	require.NoError(t, err)
	require.True(t, report.Balanced())
	require.Equal(t, 2, report.Accounts)
	require.Equal(t, int64(100), report.TotalA.Int64())
	require.Equal(t, int64(50), report.TotalB.Int64())
	require.Equal(t, int64(7), report.SurplusA().Int64())
	require.True(t, report.SurplusB().IsZero())
}

func TestReconcile_DetectsShortfall(t *testing.T) {
	f := newFixture(t)
	alice := uuid.New()
	f.deposit(t, alice, 100)

	require.NoError(t, f.tokenA.Clawback(f.ctx, f.self, uuid.New(), math.NewInt(1)))

	report, err := f.ledger.Reconcile(f.ctx)
	require.ErrorIs(t, err, ledger.ErrInvariantViolation)
	require.False(t, report.Balanced())
	require.Equal(t, int64(-1), report.SurplusA().Int64())
}

func TestRestore_RebuildsTableFromJournal(t *testing.T) {
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()
	f.deposit(t, alice, 100)
	f.deposit(t, bob, 60)
	_, err := f.ledger.Swap(f.ctx, alice, alice, math.ZeroInt())
	require.NoError(t, err)
	require.NoError(t, f.ledger.Withdraw(f.ctx, alice, math.ZeroInt(), math.NewInt(20)))
	require.NoError(t, f.ledger.Withdraw(f.ctx, bob, math.NewInt(60), math.ZeroInt()))

	restarted, err := ledger.NewLedger(f.ctx, f.self, f.exchange, f.assetA, f.assetB, ledger.WithStore(f.store))
	require.NoError(t, err)

	report, err := restarted.Restore(f.ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Accounts)
	requireBalance(t, restarted, alice, balance(0, 30))
	requireBalance(t, restarted, bob, balance(0, 0))

	_, err = restarted.Restore(f.ctx)
	require.ErrorIs(t, err, ledger.ErrInvalidConfiguration)
}

func TestRestore_Preconditions(t *testing.T) {
	f := newFixture(t)

	bare, err := ledger.NewLedger(f.ctx, uuid.New(), f.exchange, f.assetA, f.assetB)
	require.NoError(t, err)
	_, err = bare.Restore(f.ctx)
	require.ErrorIs(t, err, ledger.ErrInvalidConfiguration)

	f.deposit(t, uuid.New(), 10)
	_, err = f.ledger.Restore(f.ctx)
	require.ErrorIs(t, err, ledger.ErrInvalidConfiguration)
}

func TestRestore_RejectsJournalNotCoveredByHoldings(t *testing.T) {
	f := newFixture(t)
	store := memory.NewMemoryLedgerStore()

	op := models.Operation{
		ID:        uuid.New(),
		Kind:      models.OperationDeposit,
		AccountID: uuid.New(),
		AmountA:   decimal.NewFromInt(500),
		AmountB:   decimal.Zero,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.SaveOperation(f.ctx, op, []models.LedgerEntry{{
		ID:          op.ID.String() + "-a",
		OperationID: op.ID,
		AccountID:   op.AccountID,
		Asset:       models.AssetA,
		Amount:      op.AmountA,
		CreatedAt:   op.CreatedAt,
	}}))

	l, err := ledger.NewLedger(f.ctx, f.self, f.exchange, f.assetA, f.assetB, ledger.WithStore(store))
	require.NoError(t, err)

	_, err = l.Restore(f.ctx)
	require.ErrorIs(t, err, ledger.ErrInvariantViolation)
	require.Empty(t, l.Balances())
}

func TestRestore_RejectsNegativeReplay(t *testing.T) {
	f := newFixture(t)
	store := memory.NewMemoryLedgerStore()

	op := models.Operation{ID: uuid.New(), Kind: models.OperationWithdraw, AccountID: uuid.New(), CreatedAt: time.Now()}
	require.NoError(t, store.SaveOperation(f.ctx, op, []models.LedgerEntry{{
		ID:          op.ID.String() + "-b",
		OperationID: op.ID,
		AccountID:   op.AccountID,
		Asset:       models.AssetB,
		Amount:      decimal.NewFromInt(-3),
		CreatedAt:   op.CreatedAt,
	}}))

	l, err := ledger.NewLedger(f.ctx, f.self, f.exchange, f.assetA, f.assetB, ledger.WithStore(store))
	require.NoError(t, err)

	_, err = l.Restore(f.ctx)
	require.ErrorIs(t, err, ledger.ErrInvariantViolation)
}
