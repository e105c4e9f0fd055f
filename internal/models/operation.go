package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationKind is the mutating entry point that produced an Operation.
type OperationKind string

const (
	OperationDeposit     OperationKind = "deposit"
	OperationWithdraw    OperationKind = "withdraw"
	OperationWithdrawAll OperationKind = "withdraw_all"
	OperationSwap        OperationKind = "swap"
)

// Operation records one completed mutation of the custodial balance table
type Operation struct {
	ID        uuid.UUID
	Kind      OperationKind
	AccountID uuid.UUID
	AmountA   decimal.Decimal // asset A moved (always non-negative)
	AmountB   decimal.Decimal // asset B moved (always non-negative)
	CreatedAt time.Time
}
