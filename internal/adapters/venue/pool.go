// Package venue implements a constant-product exchange venue over two asset handles.
package venue

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/google/uuid"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
)

var (
	ErrInvalidFee            = errorsmod.Register(interfaces.ExchangeCodespace, 3, "invalid swap fee")
	ErrInvalidSwapAmount     = errorsmod.Register(interfaces.ExchangeCodespace, 4, "invalid swap amount")
	ErrInsufficientLiquidity = errorsmod.Register(interfaces.ExchangeCodespace, 5, "insufficient liquidity")
)

// Pool trades asset A for asset B against its own reserves, which are simply its
// balances on the two asset handles.
type Pool struct {
	id     uuid.UUID
	tokenA interfaces.Asset
	tokenB interfaces.Asset
	fee    math.LegacyDec
	logger log.Logger
}

// NewPool creates a pool identified by id. fee is the fraction of the input kept by
// the pool and must lie in [0, 1).
func NewPool(id uuid.UUID, tokenA, tokenB interfaces.Asset, fee math.LegacyDec, logger log.Logger) (*Pool, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidSwapAmount.Wrap("pool identity is nil")
	}
	if fee.IsNil() || fee.IsNegative() || fee.GTE(math.LegacyOneDec()) {
		return nil, ErrInvalidFee.Wrapf("fee must be in [0, 1), got %s", fee)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Pool{
		id:     id,
		tokenA: tokenA,
		tokenB: tokenB,
		fee:    fee,
		logger: logger.With(log.ModuleKey, "venue"),
	}, nil
}

// Spender is the pool's own identity; traders approve it on asset A.
func (p *Pool) Spender() uuid.UUID {
	return p.id
}

// Reserves returns the pool's current balances of asset A and asset B.
func (p *Pool) Reserves(ctx context.Context) (reserveA, reserveB math.Int, err error) {
	if reserveA, err = p.tokenA.BalanceOf(ctx, p.id); err != nil {
		return math.Int{}, math.Int{}, err
	}
	if reserveB, err = p.tokenB.BalanceOf(ctx, p.id); err != nil {
		return math.Int{}, math.Int{}, err
	}
	return reserveA, reserveB, nil
}

// QuoteExactIn returns the asset B output a trade of amountIn would produce now.
func (p *Pool) QuoteExactIn(ctx context.Context, amountIn math.Int) (math.Int, error) {
	reserveA, reserveB, err := p.Reserves(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	return CalculateSwapOutput(amountIn, reserveA, reserveB, p.fee)
}

// ExchangeExactIn pulls amountIn of asset A from trader under the trader's allowance
// and pays the quoted asset B output back to trader.
func (p *Pool) ExchangeExactIn(ctx context.Context, trader uuid.UUID, amountIn, minAmountOut math.Int) error {
	amountOut, err := p.QuoteExactIn(ctx, amountIn)
	if err != nil {
		return err
	}
	if !minAmountOut.IsNil() && amountOut.LT(minAmountOut) {
		return interfaces.ErrOutputBelowMinimum.Wrapf("expected at least %s, got %s", minAmountOut, amountOut)
	}

	if err := p.tokenA.TransferFrom(ctx, p.id, trader, p.id, amountIn); err != nil {
		return ErrInsufficientLiquidity.Wrapf("failed to pull input: %v", err)
	}
	if err := p.tokenB.Transfer(ctx, p.id, trader, amountOut); err != nil {
		if revertErr := p.tokenA.Transfer(ctx, p.id, trader, amountIn); revertErr != nil {
			p.logger.Error("failed to revert input transfer after output transfer failure",
				"original_error", err,
				"revert_error", revertErr,
				"trader", trader,
				"input_amount", amountIn,
			)
		}
		return ErrInsufficientLiquidity.Wrapf("failed to pay output: %v", err)
	}

	p.logger.Debug("swap executed", "trader", trader, "amount_in", amountIn, "amount_out", amountOut)
	return nil
}

// CalculateSwapOutput applies the constant product formula
// amountOut = amountIn*(1-fee)*reserveOut / (reserveIn + amountIn*(1-fee)), truncated.
func CalculateSwapOutput(amountIn, reserveIn, reserveOut math.Int, fee math.LegacyDec) (math.Int, error) {
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return math.ZeroInt(), ErrInvalidSwapAmount.Wrap("input amount must be positive")
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return math.ZeroInt(), ErrInsufficientLiquidity.Wrap("pool reserves must be positive")
	}

	inAfterFee := math.LegacyNewDecFromInt(amountIn).Mul(math.LegacyOneDec().Sub(fee))
	numerator := inAfterFee.Mul(math.LegacyNewDecFromInt(reserveOut))
	denominator := math.LegacyNewDecFromInt(reserveIn).Add(inAfterFee)
	amountOut := numerator.Quo(denominator).TruncateInt()

	if amountOut.IsZero() {
		return math.ZeroInt(), ErrInsufficientLiquidity.Wrap("output amount too small")
	}
	if amountOut.GTE(reserveOut) {
		return math.ZeroInt(), ErrInsufficientLiquidity.Wrapf("output %s >= reserve %s", amountOut, reserveOut)
	}
	return amountOut, nil
}

var _ interfaces.Exchange = (*Pool)(nil)
