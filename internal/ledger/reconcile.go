package ledger

import (
	"context"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// Report compares the recorded custodial totals with what the ledger actually holds.
type Report struct {
	Accounts  int      `json:"accounts"`
	TotalA    math.Int `json:"total_a"`
	TotalB    math.Int `json:"total_b"`
	HoldingsA math.Int `json:"holdings_a"`
	HoldingsB math.Int `json:"holdings_b"`
}

// SurplusA is asset A held beyond what accounts are owed (e.g. out-of-band transfers).
func (r Report) SurplusA() math.Int {
	return r.HoldingsA.Sub(r.TotalA)
}

func (r Report) SurplusB() math.Int {
	return r.HoldingsB.Sub(r.TotalB)
}

// Balanced reports whether recorded totals are covered by holdings on both sides.
func (r Report) Balanced() bool {
	return r.TotalA.LTE(r.HoldingsA) && r.TotalB.LTE(r.HoldingsB)
}

// Reconcile checks that the sum of each balance table does not exceed the ledger's
// actual holdings of that asset.
func (l *Ledger) Reconcile(ctx context.Context) (Report, error) {
	l.mu.RLock()
	table := make(map[uuid.UUID]models.Balance, len(l.balances))
	for id, b := range l.balances {
		table[id] = b
	}
	l.mu.RUnlock()

	return l.reconcile(ctx, table)
}

func (l *Ledger) reconcile(ctx context.Context, table map[uuid.UUID]models.Balance) (Report, error) {
	report := Report{TotalA: math.ZeroInt(), TotalB: math.ZeroInt()}
	for _, b := range table {
		if b.IsZero() {
			continue
		}
		report.Accounts++
		report.TotalA = report.TotalA.Add(b.A)
		report.TotalB = report.TotalB.Add(b.B)
	}

	var err error
	if report.HoldingsA, err = l.holdings(ctx, l.assetA); err != nil {
		return report, err
	}
	if report.HoldingsB, err = l.holdings(ctx, l.assetB); err != nil {
		return report, err
	}

	if !report.Balanced() {
		return report, ErrInvariantViolation.Wrapf("recorded %s %s / %s %s exceed holdings %s / %s",
			report.TotalA, l.assetA.Symbol(), report.TotalB, l.assetB.Symbol(), report.HoldingsA, report.HoldingsB)
	}
	return report, nil
}

// Restore rebuilds the balance table from the journal. It is only allowed on a
// ledger that has not recorded anything yet, and installs nothing unless the rebuilt
// table is non-negative and covered by current holdings.
func (l *Ledger) Restore(ctx context.Context) (report Report, err error) {
	if l.store == nil {
		return Report{}, ErrInvalidConfiguration.Wrap("restore needs a journal store")
	}

	release, err := l.enter("restore")
	if err != nil {
		return Report{}, err
	}
	defer release()

	l.mu.RLock()
	empty := len(l.balances) == 0
	l.mu.RUnlock()
	if !empty {
		return Report{}, ErrInvalidConfiguration.Wrap("restore into a ledger that already holds balances")
	}

	entries, err := l.store.GetLedgerEntries(ctx)
	if err != nil {
		return Report{}, wrapQuery(err, "journal entries")
	}

	type sums struct{ a, b decimal.Decimal }
	byAccount := make(map[uuid.UUID]*sums)
	for _, e := range entries {
		s, ok := byAccount[e.AccountID]
		if !ok {
			s = &sums{a: decimal.Zero, b: decimal.Zero}
			byAccount[e.AccountID] = s
		}
		switch e.Asset {
		case models.AssetA:
			s.a = s.a.Add(e.Amount)
		case models.AssetB:
			s.b = s.b.Add(e.Amount)
		default:
			return Report{}, ErrInvariantViolation.Wrapf("entry %s has unknown asset %q", e.ID, e.Asset)
		}
	}

	table := make(map[uuid.UUID]models.Balance, len(byAccount))
	for id, s := range byAccount {
		a, okA := fromDecimal(s.a)
		b, okB := fromDecimal(s.b)
		if !okA || !okB || a.IsNegative() || b.IsNegative() {
			return Report{}, ErrInvariantViolation.Wrapf("journal replays %s to %s / %s", id, s.a, s.b)
		}
		table[id] = models.Balance{A: a, B: b}
	}

	report, err = l.reconcile(ctx, table)
	if err != nil {
		return report, err
	}

	l.mu.Lock()
	l.balances = table
	l.mu.Unlock()

	l.logger.Info("restored balances from journal", "entries", len(entries), "accounts", report.Accounts)
	return report, nil
}
