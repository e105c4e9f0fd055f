package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindDeposited = "deposited"
	KindWithdrawn = "withdrawn"
	KindSwapped   = "swapped"
)

type Deposited struct {
	OperationID string          `json:"operation_id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type Withdrawn struct {
	OperationID string          `json:"operation_id"`
	AccountID   string          `json:"account_id"`
	AmountA     decimal.Decimal `json:"amount_a"`
	AmountB     decimal.Decimal `json:"amount_b"`
	All         bool            `json:"all"`
	// Partial is set when a failed withdrawal left some legs paid that could not be
	// reversed. The amounts are those legs only.
	Partial    bool      `json:"partial,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Swapped carries the actual asset B received, never the caller's floor.
type Swapped struct {
	OperationID    string          `json:"operation_id"`
	AccountID      string          `json:"account_id"`
	SourceAmount   decimal.Decimal `json:"source_amount"`
	Received       decimal.Decimal `json:"received"`
	MinimumReceive decimal.Decimal `json:"minimum_receive"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
