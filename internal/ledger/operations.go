package ledger

import (
	"context"
	"sort"

	"cosmossdk.io/math"
	"github.com/google/uuid"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models/events"
)

// Deposit pulls amount of asset A from account into custody and credits it to the
// account's Table-A balance. The account must have approved the ledger beforehand.
func (l *Ledger) Deposit(ctx context.Context, account uuid.UUID, amount math.Int) (err error) {
	done := l.observe(models.OperationDeposit)
	defer func() { done(err) }()

	if account == uuid.Nil {
		return ErrInvalidAccount.Wrap("deposit from nil account")
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount.Wrapf("deposit amount must be positive, got %s", amount)
	}

	release, err := l.enter(models.OperationDeposit)
	if err != nil {
		return err
	}
	defer release()

	held, err := l.assetA.BalanceOf(ctx, account)
	if err != nil {
		return wrapQuery(err, "%s balance of %s", l.assetA.Symbol(), account)
	}
	if held.LT(amount) {
		return ErrInsufficientBalance.Wrapf("%s holds %s %s, deposit needs %s", account, held, l.assetA.Symbol(), amount)
	}

	allowed, err := l.assetA.Allowance(ctx, account, l.self)
	if err != nil {
		return wrapQuery(err, "%s allowance of %s", l.assetA.Symbol(), account)
	}
	if allowed.LT(amount) {
		return ErrInsufficientAllowance.Wrapf("%s allows the ledger %s %s, deposit needs %s", account, allowed, l.assetA.Symbol(), amount)
	}

	if err := l.assetA.TransferFrom(ctx, l.self, account, l.self, amount); err != nil {
		return ErrTransferFailed.Wrapf("pull %s %s from %s: %v", amount, l.assetA.Symbol(), account, err)
	}

	// Credit only after the pull is confirmed.
	prev := l.BalanceOf(account)
	l.setBalance(account, models.Balance{A: prev.A.Add(amount), B: prev.B})

	op := l.journal(ctx, models.OperationDeposit, account, delta{models.AssetA, amount})
	l.publish(ctx, events.KindDeposited, account, events.Deposited{
		OperationID: op.ID.String(),
		AccountID:   account.String(),
		Amount:      op.AmountA,
		OccurredAt:  op.CreatedAt,
	})
	l.logger.Info("deposit settled", "operation_id", op.ID, "account", account, "amount", amount)
	return nil
}

// Withdraw pays amountA of asset A and amountB of asset B out of account's custodial
// balances. Either amount may be zero, but not both.
func (l *Ledger) Withdraw(ctx context.Context, account uuid.UUID, amountA, amountB math.Int) (err error) {
	done := l.observe(models.OperationWithdraw)
	defer func() { done(err) }()

	if account == uuid.Nil {
		return ErrInvalidAccount.Wrap("withdraw to nil account")
	}
	if !validAmount(amountA) || !validAmount(amountB) {
		return ErrInvalidAmount.Wrapf("withdraw amounts must be non-negative, got %s and %s", amountA, amountB)
	}
	if amountA.IsZero() && amountB.IsZero() {
		return ErrInvalidAmount.Wrap("nothing to withdraw")
	}

	release, err := l.enter(models.OperationWithdraw)
	if err != nil {
		return err
	}
	defer release()

	return l.settleWithdrawal(ctx, models.OperationWithdraw, account, amountA, amountB)
}

// WithdrawAll pays out both of account's custodial balances in full and returns the
// amounts paid. An account with nothing recorded withdraws nothing.
func (l *Ledger) WithdrawAll(ctx context.Context, account uuid.UUID) (paid models.Balance, err error) {
	done := l.observe(models.OperationWithdrawAll)
	defer func() { done(err) }()

	if account == uuid.Nil {
		return models.ZeroBalance(), ErrInvalidAccount.Wrap("withdraw to nil account")
	}

	release, err := l.enter(models.OperationWithdrawAll)
	if err != nil {
		return models.ZeroBalance(), err
	}
	defer release()

	// Amounts are read before the record is zeroed.
	recorded := l.BalanceOf(account)
	if recorded.IsZero() {
		return models.ZeroBalance(), nil
	}
	if err := l.settleWithdrawal(ctx, models.OperationWithdrawAll, account, recorded.A, recorded.B); err != nil {
		return models.ZeroBalance(), err
	}
	return recorded, nil
}

type payout struct {
	side   models.AssetSide
	asset  interfaces.Asset
	amount math.Int
}

// settleWithdrawal debits the record first, then pays each leg. Runs under the guard.
func (l *Ledger) settleWithdrawal(ctx context.Context, kind models.OperationKind, account uuid.UUID, amountA, amountB math.Int) error {
	legs := l.withdrawalLegs(amountA, amountB)
	for _, leg := range legs {
		held, err := l.holdings(ctx, leg.asset)
		if err != nil {
			return err
		}
		if held.LT(leg.amount) {
			return ErrInsufficientBalance.Wrapf("ledger holds %s %s, withdrawal needs %s", held, leg.asset.Symbol(), leg.amount)
		}
	}

	prev := l.BalanceOf(account)
	if amountA.GT(prev.A) {
		return ErrInsufficientBalance.Wrapf("%s has %s %s in custody, requested %s", account, prev.A, l.assetA.Symbol(), amountA)
	}
	if amountB.GT(prev.B) {
		return ErrInsufficientBalance.Wrapf("%s has %s %s in custody, requested %s", account, prev.B, l.assetB.Symbol(), amountB)
	}

	l.setBalance(account, models.Balance{A: prev.A.Sub(amountA), B: prev.B.Sub(amountB)})

	stuck, err := l.payout(ctx, account, prev, legs)
	if err != nil {
		if len(stuck) > 0 {
			op := l.recordWithdrawal(ctx, kind, account, stuck, true)
			l.logger.Error("withdrawal partially settled", "operation_id", op.ID, "kind", kind, "account", account,
				"amount_a", op.AmountA, "amount_b", op.AmountB)
		}
		return err
	}

	op := l.recordWithdrawal(ctx, kind, account, legs, false)
	l.logger.Info("withdrawal settled", "operation_id", op.ID, "kind", kind, "account", account,
		"amount_a", amountA, "amount_b", amountB)
	return nil
}

// withdrawalLegs orders the legs so that an asset without clawback is paid last.
func (l *Ledger) withdrawalLegs(amountA, amountB math.Int) []payout {
	legs := []payout{
		{side: models.AssetA, asset: l.assetA, amount: amountA},
		{side: models.AssetB, asset: l.assetB, amount: amountB},
	}
	sort.SliceStable(legs, func(i, j int) bool {
		return reversible(legs[i].asset) && !reversible(legs[j].asset)
	})
	return legs
}

func reversible(asset interfaces.Asset) bool {
	_, ok := asset.(interfaces.Clawbacker)
	return ok
}

// recordWithdrawal journals and publishes the legs that left custody.
func (l *Ledger) recordWithdrawal(ctx context.Context, kind models.OperationKind, account uuid.UUID, legs []payout, partial bool) models.Operation {
	deltas := make([]delta, 0, len(legs))
	for _, leg := range legs {
		deltas = append(deltas, delta{leg.side, leg.amount.Neg()})
	}
	op := l.journal(ctx, kind, account, deltas...)
	l.publish(ctx, events.KindWithdrawn, account, events.Withdrawn{
		OperationID: op.ID.String(),
		AccountID:   account.String(),
		AmountA:     op.AmountA,
		AmountB:     op.AmountB,
		All:         kind == models.OperationWithdrawAll,
		Partial:     partial,
		OccurredAt:  op.CreatedAt,
	})
	return op
}

// payout transfers every non-zero leg to account. When a leg fails, legs already paid
// are clawed back and the record is restored to prev. A paid leg that cannot be
// clawed back stays debited, since those funds really left custody; such legs are
// returned as stuck.
func (l *Ledger) payout(ctx context.Context, account uuid.UUID, prev models.Balance, legs []payout) ([]payout, error) {
	var paid []payout
	for _, leg := range legs {
		if leg.amount.IsZero() {
			continue
		}
		err := leg.asset.Transfer(ctx, l.self, account, leg.amount)
		if err == nil {
			paid = append(paid, leg)
			continue
		}

		restored := prev
		stuck := l.reverse(ctx, account, paid)
		for _, s := range stuck {
			switch s.side {
			case models.AssetA:
				restored.A = restored.A.Sub(s.amount)
			case models.AssetB:
				restored.B = restored.B.Sub(s.amount)
			}
		}
		l.setBalance(account, restored)

		if len(stuck) > 0 {
			return stuck, ErrTransferFailed.Wrapf("pay %s %s to %s: %v; %d paid leg(s) could not be reversed and stay debited",
				leg.amount, leg.asset.Symbol(), account, err, len(stuck))
		}
		return nil, ErrTransferFailed.Wrapf("pay %s %s to %s: %v", leg.amount, leg.asset.Symbol(), account, err)
	}
	return nil, nil
}

// reverse claws back paid legs and returns those it could not reverse.
func (l *Ledger) reverse(ctx context.Context, account uuid.UUID, paid []payout) (stuck []payout) {
	for _, leg := range paid {
		cb, ok := leg.asset.(interfaces.Clawbacker)
		if !ok {
			l.logger.Error("cannot reverse withdrawal leg: asset has no clawback",
				"account", account, "asset", leg.asset.Symbol(), "amount", leg.amount)
			stuck = append(stuck, leg)
			continue
		}
		if err := cb.Clawback(ctx, account, l.self, leg.amount); err != nil {
			l.logger.Error("failed to reverse withdrawal leg",
				"account", account, "asset", leg.asset.Symbol(), "amount", leg.amount, "error", err)
			stuck = append(stuck, leg)
			continue
		}
		l.logger.Warn("reversed withdrawal leg", "account", account, "asset", leg.asset.Symbol(), "amount", leg.amount)
	}
	return stuck
}

// Swap exchanges account's entire asset A balance for asset B and credits the asset B
// actually received. Only the account itself may trigger it: the venue spends the
// ledger's asset A under a standing allowance.
func (l *Ledger) Swap(ctx context.Context, caller, account uuid.UUID, minimumReceive math.Int) (received math.Int, err error) {
	done := l.observe(models.OperationSwap)
	defer func() { done(err) }()

	if caller != account {
		return math.ZeroInt(), ErrUnauthorized.Wrapf("%s may not swap the balance of %s", caller, account)
	}
	if account == uuid.Nil {
		return math.ZeroInt(), ErrInvalidAccount.Wrap("swap for nil account")
	}
	if !validAmount(minimumReceive) {
		return math.ZeroInt(), ErrInvalidAmount.Wrapf("minimum receive must be non-negative, got %s", minimumReceive)
	}

	release, err := l.enter(models.OperationSwap)
	if err != nil {
		return math.ZeroInt(), err
	}
	defer release()

	source := l.BalanceOf(account).A
	if !source.IsPositive() {
		return math.ZeroInt(), ErrInsufficientBalance.Wrapf("%s has no %s in custody to swap", account, l.assetA.Symbol())
	}

	before, err := l.holdings(ctx, l.assetB)
	if err != nil {
		return math.ZeroInt(), err
	}
	if err := l.grant.exchangeExactIn(ctx, source, minimumReceive); err != nil {
		return math.ZeroInt(), err
	}
	after, err := l.holdings(ctx, l.assetB)
	if err != nil {
		// The exchange has already spent the source, so Table-A must drop even though
		// the asset B received cannot be measured and credited.
		prev := l.BalanceOf(account)
		l.setBalance(account, models.Balance{A: math.ZeroInt(), B: prev.B})
		op := l.journal(ctx, models.OperationSwap, account, delta{models.AssetA, source.Neg()})
		l.logger.Error("swap executed but asset B holdings are unreadable; nothing credited",
			"operation_id", op.ID, "account", account, "source", source, "error", err)
		return math.ZeroInt(), err
	}
	received = after.Sub(before)

	if received.LT(minimumReceive) {
		// The venue traded despite the floor. Settle what actually happened so recorded
		// balances never exceed holdings, and still report the breach.
		credited := received
		if credited.IsNegative() {
			credited = math.ZeroInt()
		}
		l.credit(ctx, account, source, credited, minimumReceive)
		l.logger.Error("exchange ignored output floor", "account", account, "received", received, "minimum", minimumReceive)
		return credited, ErrSlippageExceeded.Wrapf("received %s %s, floor was %s; actual output credited",
			received, l.assetB.Symbol(), minimumReceive)
	}

	l.credit(ctx, account, source, received, minimumReceive)
	l.logger.Info("swap settled", "account", account, "source", source, "received", received, "minimum", minimumReceive)
	return received, nil
}

// credit zeroes account's Table-A balance and adds received to its Table-B balance.
func (l *Ledger) credit(ctx context.Context, account uuid.UUID, source, received, minimumReceive math.Int) {
	prev := l.BalanceOf(account)
	l.setBalance(account, models.Balance{A: math.ZeroInt(), B: prev.B.Add(received)})

	l.metrics.SwapCredited(toDecimal(received).InexactFloat64())
	op := l.journal(ctx, models.OperationSwap, account, delta{models.AssetA, source.Neg()}, delta{models.AssetB, received})
	l.publish(ctx, events.KindSwapped, account, events.Swapped{
		OperationID:    op.ID.String(),
		AccountID:      account.String(),
		SourceAmount:   op.AmountA,
		Received:       op.AmountB,
		MinimumReceive: toDecimal(minimumReceive),
		OccurredAt:     op.CreatedAt,
	})
}
