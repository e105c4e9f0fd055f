package ledger

import (
	"context"
	"strings"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// delta is a signed change of one side of an account's record.
type delta struct {
	side   models.AssetSide
	amount math.Int
}

// journal records a completed operation. The operation already happened, so a
// store failure is logged and counted rather than returned.
func (l *Ledger) journal(ctx context.Context, kind models.OperationKind, account uuid.UUID, deltas ...delta) models.Operation {
	op := models.Operation{
		ID:        uuid.New(),
		Kind:      kind,
		AccountID: account,
		AmountA:   decimal.Zero,
		AmountB:   decimal.Zero,
		CreatedAt: l.now(),
	}

	entries := make([]models.LedgerEntry, 0, len(deltas))
	for _, d := range deltas {
		if d.amount.IsZero() {
			continue
		}
		amount := toDecimal(d.amount)
		switch d.side {
		case models.AssetA:
			op.AmountA = amount.Abs()
		case models.AssetB:
			op.AmountB = amount.Abs()
		}
		entries = append(entries, models.LedgerEntry{
			ID:          op.ID.String() + "-" + strings.ToLower(string(d.side)),
			OperationID: op.ID,
			AccountID:   account,
			Asset:       d.side,
			Amount:      amount,
			CreatedAt:   op.CreatedAt,
		})
	}

	if l.store == nil {
		return op
	}
	if err := l.store.SaveOperation(ctx, op, entries); err != nil {
		l.metrics.JournalFailed()
		l.logger.Error("failed to journal operation", "operation_id", op.ID, "kind", kind, "account", account, "error", err)
	}
	return op
}

func (l *Ledger) publish(ctx context.Context, kind string, account uuid.UUID, event any) {
	if l.publisher == nil {
		return
	}
	topic := l.topicPrefix + "." + kind
	if err := l.publisher.Publish(ctx, topic, account.String(), event); err != nil {
		l.logger.Warn("failed to publish event", "topic", topic, "account", account, "error", err)
	}
}

func toDecimal(i math.Int) decimal.Decimal {
	return decimal.NewFromBigInt(i.BigInt(), 0)
}

// fromDecimal converts an integral decimal that fits the ledger's 256-bit range.
func fromDecimal(d decimal.Decimal) (math.Int, bool) {
	if !d.IsInteger() {
		return math.Int{}, false
	}
	bi := d.BigInt()
	if bi.BitLen() > math.MaxBitLen {
		return math.Int{}, false
	}
	return math.NewIntFromBigInt(bi), true
}
