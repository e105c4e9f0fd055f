package interfaces

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/google/uuid"
)

const ExchangeCodespace = "exchange"

// ErrOutputBelowMinimum is returned by an Exchange that refused to trade because its
// output would not reach the requested floor. No funds moved.
var ErrOutputBelowMinimum = errorsmod.Register(ExchangeCodespace, 2, "output below minimum")

// Exchange is a price venue trading asset A for asset B.
//
// Trust boundary: the ledger grants Spender() an unlimited allowance over its own
// asset A holdings. An implementation must only ever pull asset A from trader during
// ExchangeExactIn, and never more than amountIn. The ledger calls it solely from Swap
// with the swapping account's own recorded balance.
type Exchange interface {
	// Spender is the identity that pulls asset A from the trader.
	Spender() uuid.UUID
	// ExchangeExactIn takes exactly amountIn of asset A from trader and credits a
	// venue-determined amount of asset B to trader. It must fail without moving funds
	// when the output would be below minAmountOut.
	ExchangeExactIn(ctx context.Context, trader uuid.UUID, amountIn, minAmountOut math.Int) error
}
