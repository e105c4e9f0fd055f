// Package token is an in-memory fungible asset with balances and allowances. It backs
// the sandbox deployment and the tests; production deployments plug a real asset
// handle in behind interfaces.Asset.
package token

import (
	"context"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/google/uuid"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
)

const Codespace = "token"

var (
	ErrInvalidAmount         = errorsmod.Register(Codespace, 2, "invalid amount")
	ErrInvalidAddress        = errorsmod.Register(Codespace, 3, "invalid address")
	ErrInsufficientFunds     = errorsmod.Register(Codespace, 4, "insufficient funds")
	ErrInsufficientAllowance = errorsmod.Register(Codespace, 5, "insufficient allowance")
)

// Token is safe for concurrent use.
type Token struct {
	symbol string

	mu         sync.Mutex
	balances   map[uuid.UUID]math.Int
	allowances map[uuid.UUID]map[uuid.UUID]math.Int
	supply     math.Int
}

func New(symbol string) *Token {
	return &Token{
		symbol:     symbol,
		balances:   make(map[uuid.UUID]math.Int),
		allowances: make(map[uuid.UUID]map[uuid.UUID]math.Int),
		supply:     math.ZeroInt(),
	}
}

func (t *Token) Symbol() string {
	return t.symbol
}

func (t *Token) BalanceOf(_ context.Context, account uuid.UUID) (math.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance(account), nil
}

func (t *Token) Allowance(_ context.Context, owner, spender uuid.UUID) (math.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowance(owner, spender), nil
}

// TotalSupply is the sum of all balances.
func (t *Token) TotalSupply() math.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.supply
}

func (t *Token) Transfer(_ context.Context, from, to uuid.UUID, amount math.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom moves amount from `from` to `to` on behalf of spender, consuming
// spender's allowance unless it is unlimited.
func (t *Token) TransferFrom(_ context.Context, spender, from, to uuid.UUID, amount math.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := checkAmount(amount); err != nil {
		return err
	}
	allowed := t.allowance(from, spender)
	if allowed.LT(amount) {
		return ErrInsufficientAllowance.Wrapf("%s may spend %s %s of %s, needs %s", spender, allowed, t.symbol, from, amount)
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	if !interfaces.IsUnlimited(allowed) {
		t.setAllowance(from, spender, allowed.Sub(amount))
	}
	return nil
}

func (t *Token) Approve(_ context.Context, owner, spender uuid.UUID, amount math.Int) error {
	if owner == uuid.Nil || spender == uuid.Nil {
		return ErrInvalidAddress.Wrap("approve with nil owner or spender")
	}
	if amount.IsNil() || amount.IsNegative() {
		return ErrInvalidAmount.Wrapf("allowance must be non-negative, got %s", amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setAllowance(owner, spender, amount)
	return nil
}

// Mint creates amount new units for account.
func (t *Token) Mint(_ context.Context, account uuid.UUID, amount math.Int) error {
	if account == uuid.Nil {
		return ErrInvalidAddress.Wrap("mint to nil account")
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	supply, err := t.supply.SafeAdd(amount)
	if err != nil {
		return ErrInvalidAmount.Wrapf("mint overflows supply: %v", err)
	}
	t.supply = supply
	t.balances[account] = t.balance(account).Add(amount)
	return nil
}

// Clawback forcibly moves amount from `from` back to `to`. It is the issuer-level
// reversal the ledger relies on to undo a partially paid withdrawal.
func (t *Token) Clawback(_ context.Context, from, to uuid.UUID, amount math.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

func (t *Token) move(from, to uuid.UUID, amount math.Int) error {
	if from == uuid.Nil || to == uuid.Nil {
		return ErrInvalidAddress.Wrap("transfer with nil party")
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	held := t.balance(from)
	if held.LT(amount) {
		return ErrInsufficientFunds.Wrapf("%s holds %s %s, needs %s", from, held, t.symbol, amount)
	}
	t.balances[from] = held.Sub(amount)
	t.balances[to] = t.balance(to).Add(amount)
	return nil
}

func (t *Token) balance(account uuid.UUID) math.Int {
	if b, ok := t.balances[account]; ok {
		return b
	}
	return math.ZeroInt()
}

func (t *Token) allowance(owner, spender uuid.UUID) math.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return a
	}
	return math.ZeroInt()
}

func (t *Token) setAllowance(owner, spender uuid.UUID, amount math.Int) {
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[uuid.UUID]math.Int)
	}
	t.allowances[owner][spender] = amount
}

func checkAmount(amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount.Wrapf("amount must be positive, got %s", amount)
	}
	return nil
}

var (
	_ interfaces.Asset      = (*Token)(nil)
	_ interfaces.Clawbacker = (*Token)(nil)
)
