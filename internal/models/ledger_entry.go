package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry represents a single signed change of one account's custodial balance
type LedgerEntry struct {
	ID          string          `json:"id"`           // operation id + "-" + asset side
	OperationID uuid.UUID       `json:"operation_id"` // operation that produced the entry
	AccountID   uuid.UUID       `json:"account_id"`   // which account this entry belongs to
	Asset       AssetSide       `json:"asset"`        // A or B
	Amount      decimal.Decimal `json:"amount"`       // positive credits, negative debits
	CreatedAt   time.Time       `json:"created_at"`   // timestamp
}
