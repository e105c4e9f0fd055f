package interfaces

import (
	"context"
	"math/big"

	"cosmossdk.io/math"
	"github.com/google/uuid"
)

// Asset is a fungible asset the ledger custodies. Every call names the acting
// party explicitly: `from` for Transfer, `spender` for TransferFrom, `owner` for Approve.
// Any returned error means the operation had no effect.
type Asset interface {
	Symbol() string
	BalanceOf(ctx context.Context, account uuid.UUID) (math.Int, error)
	Allowance(ctx context.Context, owner, spender uuid.UUID) (math.Int, error)
	Transfer(ctx context.Context, from, to uuid.UUID, amount math.Int) error
	TransferFrom(ctx context.Context, spender, from, to uuid.UUID, amount math.Int) error
	Approve(ctx context.Context, owner, spender uuid.UUID, amount math.Int) error
}

// Clawbacker is implemented by assets that can reverse a transfer the holder made.
// The ledger uses it only to undo an already paid withdrawal leg when a later leg fails.
type Clawbacker interface {
	Clawback(ctx context.Context, from, to uuid.UUID, amount math.Int) error
}

// UnlimitedAllowance returns 2^256-1. Assets must never decrement an allowance of this size.
func UnlimitedAllowance() math.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), math.MaxBitLen)
	return math.NewIntFromBigInt(limit.Sub(limit, big.NewInt(1)))
}

// IsUnlimited reports whether amount equals UnlimitedAllowance.
func IsUnlimited(amount math.Int) bool {
	return !amount.IsNil() && amount.Equal(UnlimitedAllowance())
}
