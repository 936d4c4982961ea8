package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

const draftColumns = `draft_id, purchase_order_id, reference, supplier_id, source, bank_account_id, amount,
		description, status, journal_entry_id, rejection_reason,
		created_at, created_by, last_updated_at, last_updated_by`

type PgxPaymentDraftRepository struct {
	BaseRepository
}

func newPgxPaymentDraftRepository(db Querier) *PgxPaymentDraftRepository {
	return &PgxPaymentDraftRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.PaymentDraftRepositoryFacade = (*PgxPaymentDraftRepository)(nil)

func scanDraft(row pgx.Row) (domain.PaymentDraft, error) {
	var d domain.PaymentDraft
	var source, status string
	var bankAccountID, journalEntryID sql.NullString
	err := row.Scan(
		&d.DraftID,
		&d.PurchaseOrderID,
		&d.Reference,
		&d.SupplierID,
		&source,
		&bankAccountID,
		&d.Amount,
		&d.Description,
		&status,
		&journalEntryID,
		&d.RejectionReason,
		&d.CreatedAt,
		&d.CreatedBy,
		&d.LastUpdatedAt,
		&d.LastUpdatedBy,
	)
	d.Source = domain.PaymentSource(source)
	d.Status = domain.PaymentDraftStatus(status)
	if bankAccountID.Valid {
		d.BankAccountID = &bankAccountID.String
	}
	if journalEntryID.Valid {
		d.JournalEntryID = &journalEntryID.String
	}
	return d, err
}

func (r *PgxPaymentDraftRepository) SaveDraft(ctx context.Context, draft domain.PaymentDraft) error {
	query := `
		INSERT INTO payment_drafts (` + draftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.db.Exec(ctx, query,
		draft.DraftID,
		draft.PurchaseOrderID,
		draft.Reference,
		draft.SupplierID,
		string(draft.Source),
		nullableString(draft.BankAccountID),
		draft.Amount,
		draft.Description,
		string(draft.Status),
		nullableString(draft.JournalEntryID),
		draft.RejectionReason,
		draft.CreatedAt,
		draft.CreatedBy,
		draft.LastUpdatedAt,
		draft.LastUpdatedBy,
	)
	if err != nil {
		if uniqueViolationOn(err, "") {
			return fmt.Errorf("payment draft %s: %w", draft.DraftID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert payment draft %s: %w", draft.DraftID, err)
	}
	return nil
}

func (r *PgxPaymentDraftRepository) FindDraftByID(ctx context.Context, draftID string) (*domain.PaymentDraft, error) {
	return r.findDraft(ctx, `SELECT `+draftColumns+` FROM payment_drafts WHERE draft_id = $1;`, draftID)
}

func (r *PgxPaymentDraftRepository) FindDraftByIDForUpdate(ctx context.Context, draftID string) (*domain.PaymentDraft, error) {
	return r.findDraft(ctx, `SELECT `+draftColumns+` FROM payment_drafts WHERE draft_id = $1 FOR UPDATE;`, draftID)
}

func (r *PgxPaymentDraftRepository) findDraft(ctx context.Context, query, draftID string) (*domain.PaymentDraft, error) {
	draft, err := scanDraft(r.db.QueryRow(ctx, query, draftID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("payment draft " + draftID)
		}
		return nil, fmt.Errorf("failed to find payment draft %s: %w", draftID, err)
	}
	return &draft, nil
}

// FindSettlementByEntryID returns nil, nil when no posted draft references entryID.
func (r *PgxPaymentDraftRepository) FindSettlementByEntryID(ctx context.Context, entryID string) (*domain.PaymentDraft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM payment_drafts
		WHERE journal_entry_id = $1 AND status = $2
		LIMIT 1;
	`
	draft, err := scanDraft(r.db.QueryRow(ctx, query, entryID, string(domain.DraftStatusPosted)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find settlement for journal entry %s: %w", entryID, err)
	}
	return &draft, nil
}

func (r *PgxPaymentDraftRepository) UpdateDraftStatus(ctx context.Context, draft domain.PaymentDraft) error {
	query := `
		UPDATE payment_drafts
		SET status = $2, journal_entry_id = $3, rejection_reason = $4, last_updated_at = $5, last_updated_by = $6
		WHERE draft_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		draft.DraftID,
		string(draft.Status),
		nullableString(draft.JournalEntryID),
		draft.RejectionReason,
		draft.LastUpdatedAt,
		draft.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment draft %s: %w", draft.DraftID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("payment draft " + draft.DraftID)
	}
	return nil
}
