package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // registers the "postgres" driver

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// Schema creates the journal tables. Amounts are NUMERIC so 256-bit values fit.
const Schema = `
CREATE TABLE IF NOT EXISTS operations (
	id         UUID PRIMARY KEY,
	kind       TEXT NOT NULL,
	account_id UUID NOT NULL,
	amount_a   NUMERIC(78, 0) NOT NULL,
	amount_b   NUMERIC(78, 0) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_entries (
	id           TEXT PRIMARY KEY,
	operation_id UUID NOT NULL REFERENCES operations(id),
	account_id   UUID NOT NULL,
	asset        TEXT NOT NULL,
	amount       NUMERIC(78, 0) NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ledger_entries_account_idx ON ledger_entries (account_id);
`

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (p *PostgresLedgerStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	return err
}

func (p *PostgresLedgerStore) saveOperation(ctx context.Context, op models.Operation, dbTx *sql.Tx) error {
	const query = `INSERT INTO operations (id, kind, account_id, amount_a, amount_b, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := dbTx.ExecContext(ctx, query, op.ID, string(op.Kind), op.AccountID, op.AmountA, op.AmountB, op.CreatedAt)
	return err
}

func (p *PostgresLedgerStore) saveEntry(ctx context.Context, entry models.LedgerEntry, dbTx *sql.Tx) error {
	const query = `INSERT INTO ledger_entries (id, operation_id, account_id, asset, amount, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := dbTx.ExecContext(ctx, query, entry.ID, entry.OperationID, entry.AccountID, string(entry.Asset), entry.Amount, entry.CreatedAt)
	return err
}

// SaveOperation writes the operation and all of its entries in one SQL transaction.
func (p *PostgresLedgerStore) SaveOperation(ctx context.Context, op models.Operation, entries []models.LedgerEntry) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = p.saveOperation(ctx, op, dbTx); err != nil {
		return err
	}
	for _, entry := range entries {
		if err = p.saveEntry(ctx, entry, dbTx); err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

func (p *PostgresLedgerStore) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	const query = `SELECT id, operation_id, account_id, asset, amount, created_at FROM ledger_entries
	ORDER BY created_at, id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (p *PostgresLedgerStore) GetEntriesByAccount(ctx context.Context, accountID uuid.UUID) ([]models.LedgerEntry, error) {
	const query = `SELECT id, operation_id, account_id, asset, amount, created_at FROM ledger_entries
	WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := p.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	for rows.Next() {
		var (
			entry models.LedgerEntry
			asset string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.OperationID,
			&entry.AccountID,
			&asset,
			&entry.Amount,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Asset = models.AssetSide(asset)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
