package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxSupplierLedgerRepository struct {
	BaseRepository
}

func newPgxSupplierLedgerRepository(db Querier) *PgxSupplierLedgerRepository {
	return &PgxSupplierLedgerRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.SupplierLedgerRepositoryFacade = (*PgxSupplierLedgerRepository)(nil)

// LockSupplier takes a transaction scoped advisory lock keyed by supplier.
func (r *PgxSupplierLedgerRepository) LockSupplier(ctx context.Context, supplierID string) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, "supplier_ledger:"+supplierID); err != nil {
		return fmt.Errorf("failed to lock supplier ledger %s: %w", supplierID, err)
	}
	return nil
}

func (r *PgxSupplierLedgerRepository) LatestBalance(ctx context.Context, supplierID string) (decimal.Decimal, error) {
	query := `
		SELECT balance
		FROM supplier_ledger_entries
		WHERE supplier_id = $1
		ORDER BY seq DESC
		LIMIT 1;
	`
	var balance decimal.Decimal
	if err := r.db.QueryRow(ctx, query, supplierID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to read supplier balance %s: %w", supplierID, err)
	}
	return balance, nil
}

func (r *PgxSupplierLedgerRepository) AppendEntry(ctx context.Context, entry domain.SupplierLedgerEntry) error {
	query := `
		INSERT INTO supplier_ledger_entries (ledger_entry_id, supplier_id, entry_type, amount, balance,
			transaction_id, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db.Exec(ctx, query,
		entry.LedgerEntryID,
		entry.SupplierID,
		string(entry.Type),
		entry.Amount,
		entry.Balance,
		entry.TransactionID,
		entry.Reason,
		entry.CreatedAt,
		entry.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to append supplier ledger entry %s: %w", entry.LedgerEntryID, err)
	}
	return nil
}

func (r *PgxSupplierLedgerRepository) ListEntries(ctx context.Context, supplierID string, limit int) ([]domain.SupplierLedgerEntry, error) {
	query := `
		SELECT ` + supplierLedgerColumns + `
		FROM supplier_ledger_entries
		WHERE supplier_id = $1
		ORDER BY seq DESC
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, supplierID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier ledger %s: %w", supplierID, err)
	}
	return collectSupplierLedger(rows)
}

func (r *PgxSupplierLedgerRepository) ListEntriesByTransaction(ctx context.Context, transactionID string) ([]domain.SupplierLedgerEntry, error) {
	query := `
		SELECT ` + supplierLedgerColumns + `
		FROM supplier_ledger_entries
		WHERE transaction_id = $1 AND transaction_id <> ''
		ORDER BY seq ASC;
	`
	rows, err := r.db.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier ledger entries for transaction %s: %w", transactionID, err)
	}
	return collectSupplierLedger(rows)
}

const supplierLedgerColumns = `ledger_entry_id, supplier_id, entry_type, amount, balance, transaction_id, reason, created_at, created_by`

func collectSupplierLedger(rows pgx.Rows) ([]domain.SupplierLedgerEntry, error) {
	defer rows.Close()

	entries := []domain.SupplierLedgerEntry{}
	for rows.Next() {
		var e domain.SupplierLedgerEntry
		var entryType string
		if err := rows.Scan(
			&e.LedgerEntryID,
			&e.SupplierID,
			&entryType,
			&e.Amount,
			&e.Balance,
			&e.TransactionID,
			&e.Reason,
			&e.CreatedAt,
			&e.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan supplier ledger row: %w", err)
		}
		e.Type = domain.SupplierLedgerEntryType(entryType)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supplier ledger rows: %w", err)
	}
	return entries, nil
}
