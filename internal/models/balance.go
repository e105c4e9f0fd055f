package models

import (
	"cosmossdk.io/math"
	"github.com/google/uuid"
)

// AssetSide names one of the two custodied assets.
type AssetSide string

const (
	AssetA AssetSide = "A"
	AssetB AssetSide = "B"
)

// Balance is the custodial record the ledger keeps for a single account.
// Both fields are always initialised; a zero Balance is equivalent to no entry.
type Balance struct {
	A math.Int `json:"amount_a"`
	B math.Int `json:"amount_b"`
}

// ZeroBalance returns a Balance with both sides set to zero.
func ZeroBalance() Balance {
	return Balance{A: math.ZeroInt(), B: math.ZeroInt()}
}

func (b Balance) IsZero() bool {
	return b.A.IsZero() && b.B.IsZero()
}

// AccountBalance pairs an account with its custodial record.
type AccountBalance struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance
}
