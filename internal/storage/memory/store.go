package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"sync"    // standard Go package for concurrency primitives like Mutex

	"github.com/google/uuid"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"                // domain models: Operation, LedgerEntry
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It keeps the journal in slices and is safe for concurrent use.
type MemoryLedgerStore struct {
	mu         sync.Mutex                     // protects the fields below
	entries    []models.LedgerEntry           // every journal entry, in insertion order
	operations map[uuid.UUID]models.Operation // operations by id
}

// NewMemoryLedgerStore creates and returns a new MemoryLedgerStore instance
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		entries:    make([]models.LedgerEntry, 0),
		operations: make(map[uuid.UUID]models.Operation),
	}
}

// SaveOperation stores the operation and its entries together.
// Implements the LedgerStore interface.
func (m *MemoryLedgerStore) SaveOperation(ctx context.Context, op models.Operation, entries []models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.operations[op.ID] = op
	m.entries = append(m.entries, entries...)
	return nil // always succeeds in memory
}

// GetLedgerEntries returns a copy of all journal entries stored in memory.
func (m *MemoryLedgerStore) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// return a copy so external code can't modify internal state
	copied := make([]models.LedgerEntry, len(m.entries))
	copy(copied, m.entries)
	return copied, nil
}

func (m *MemoryLedgerStore) GetEntriesByAccount(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result, nil
}

// GetOperation returns the operation with the given id.
func (m *MemoryLedgerStore) GetOperation(id uuid.UUID) (models.Operation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.operations[id]
	return op, ok
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
