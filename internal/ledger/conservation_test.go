package ledger_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/ledger"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// TestConservation drives random operation sequences against a model of the balance
// tables. Recorded balances must track the model exactly, stay non-negative and
// never exceed what the ledger actually holds. Failed operations change nothing.
func TestConservation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt)
		accounts := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		model := make(map[uuid.UUID]struct{ a, b int64 })

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			account := rapid.SampledFrom(accounts).Draw(rt, "account")
			want := model[account]

			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				amount := rapid.Int64Range(1, 200).Draw(rt, "deposit")
				f.deposit(rt, account, amount)
				want.a += amount

			case 1:
				a := rapid.Int64Range(0, 150).Draw(rt, "withdrawA")
				b := rapid.Int64Range(0, 150).Draw(rt, "withdrawB")
				err := f.ledger.Withdraw(f.ctx, account, math.NewInt(a), math.NewInt(b))
				switch {
				case a == 0 && b == 0:
					require.ErrorIs(rt, err, ledger.ErrInvalidAmount)
				case a > want.a || b > want.b:
					require.ErrorIs(rt, err, ledger.ErrInsufficientBalance)
				default:
					require.NoError(rt, err)
					want.a -= a
					want.b -= b
				}

			case 2:
				paid, err := f.ledger.WithdrawAll(f.ctx, account)
				require.NoError(rt, err)
				require.Equal(rt, want.a, paid.A.Int64())
				require.Equal(rt, want.b, paid.B.Int64())
				want.a, want.b = 0, 0

			case 3:
				yield := rapid.Int64Range(0, 80).Draw(rt, "yield")
				floor := rapid.Int64Range(0, 80).Draw(rt, "floor")
				f.exchange.yield = math.NewInt(yield)
				received, err := f.ledger.Swap(f.ctx, account, account, math.NewInt(floor))
				switch {
				case want.a == 0:
					require.ErrorIs(rt, err, ledger.ErrInsufficientBalance)
				case yield < floor:
					require.ErrorIs(rt, err, ledger.ErrSlippageExceeded)
				default:
					require.NoError(rt, err)
					require.Equal(rt, yield, received.Int64())
					want.a = 0
					want.b += yield
				}
			}
			model[account] = want

			for _, id := range accounts {
				requireBalance(rt, f.ledger, id, balance(model[id].a, model[id].b))
			}
			report, err := f.ledger.Reconcile(f.ctx)
			require.NoError(rt, err)
			require.True(rt, report.Balanced())
			require.False(rt, report.TotalA.IsNegative())
			require.False(rt, report.TotalB.IsNegative())
		}

		require.Empty(rt, nonZero(f.ledger.Balances(), model))
	})
}

// nonZero returns the records that the model says should be empty.
func nonZero(records []models.AccountBalance, model map[uuid.UUID]struct{ a, b int64 }) []models.AccountBalance {
	var out []models.AccountBalance
	for _, r := range records {
		m := model[r.AccountID]
		if m.a == 0 && m.b == 0 {
			out = append(out, r)
		}
	}
	return out
}
