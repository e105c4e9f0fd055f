package ledger

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

const Codespace = "escrow"

// Ledger error kinds. Each failure of a ledger operation wraps exactly one of these.
var (
	ErrInvalidConfiguration  = errorsmod.Register(Codespace, 2, "invalid configuration")
	ErrInvalidAmount         = errorsmod.Register(Codespace, 3, "invalid amount")
	ErrInvalidAccount        = errorsmod.Register(Codespace, 4, "invalid account")
	ErrInsufficientBalance   = errorsmod.Register(Codespace, 5, "insufficient balance")
	ErrInsufficientAllowance = errorsmod.Register(Codespace, 6, "insufficient allowance")
	ErrTransferFailed        = errorsmod.Register(Codespace, 7, "transfer failed")
	ErrSlippageExceeded      = errorsmod.Register(Codespace, 8, "slippage exceeded")
	ErrUnauthorized          = errorsmod.Register(Codespace, 9, "unauthorized")
	ErrReentrantCall         = errorsmod.Register(Codespace, 10, "reentrant call")
	ErrExchangeFailed        = errorsmod.Register(Codespace, 11, "exchange failed")
	ErrInvariantViolation    = errorsmod.Register(Codespace, 12, "invariant violation")
)

var kinds = []*errorsmod.Error{
	ErrInvalidConfiguration,
	ErrInvalidAmount,
	ErrInvalidAccount,
	ErrInsufficientBalance,
	ErrInsufficientAllowance,
	ErrTransferFailed,
	ErrSlippageExceeded,
	ErrUnauthorized,
	ErrReentrantCall,
	ErrExchangeFailed,
	ErrInvariantViolation,
}

// Kind returns the description of the ledger error kind err wraps, or "internal"
// when err carries none (for example a failed balance query).
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "internal"
}

// wrapQuery annotates a failed balance or allowance query. Such failures carry no
// ledger kind: the asset handle itself could not answer.
func wrapQuery(err error, format string, args ...any) error {
	return errorsmod.Wrapf(err, "query "+format, args...)
}
