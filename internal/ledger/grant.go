package ledger

import (
	"context"
	"errors"

	"cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
)

// exchangeGrant is the standing, unlimited asset A allowance the ledger gives its
// exchange venue. It exists once per Ledger and is only driven from Swap, with the
// amount bounded by the swapping account's own Table-A balance.
type exchangeGrant struct {
	exchange interfaces.Exchange
	holder   uuid.UUID
}

func newExchangeGrant(ctx context.Context, holder uuid.UUID, assetA interfaces.Asset, exchange interfaces.Exchange) (*exchangeGrant, error) {
	if exchange.Spender() == uuid.Nil {
		return nil, ErrInvalidConfiguration.Wrap("exchange spender identity is nil")
	}
	if err := assetA.Approve(ctx, holder, exchange.Spender(), interfaces.UnlimitedAllowance()); err != nil {
		return nil, ErrInvalidConfiguration.Wrapf("approve exchange on %s: %v", assetA.Symbol(), err)
	}
	return &exchangeGrant{exchange: exchange, holder: holder}, nil
}

// exchangeExactIn spends amountIn of the holder's asset A through the venue.
func (g *exchangeGrant) exchangeExactIn(ctx context.Context, amountIn, floor math.Int) error {
	err := g.exchange.ExchangeExactIn(ctx, g.holder, amountIn, floor)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, interfaces.ErrOutputBelowMinimum):
		return ErrSlippageExceeded.Wrapf("venue refused: %v", err)
	default:
		return ErrExchangeFailed.Wrap(err.Error())
	}
}
