package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// LedgerStore is the journal of completed operations. SaveOperation persists the
// operation together with its entries, or nothing.
type LedgerStore interface {
	SaveOperation(ctx context.Context, op models.Operation, entries []models.LedgerEntry) error
	GetEntriesByAccount(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error)
	GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)
}
