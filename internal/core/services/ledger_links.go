package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

// entryLinks is what outside the journal references a journal entry: the posted
// payment draft it settles and the supplier ledger movements booked with it.
type entryLinks struct {
	settlement *domain.PaymentDraft
	movements  []domain.SupplierLedgerEntry
}

// loadEntryLinks looks up the references to entryID, locking a settling draft for
// the rest of the transaction.
func loadEntryLinks(ctx context.Context, tx portsrepo.TxRepositories, entryID string) (entryLinks, error) {
	var links entryLinks
	settlement, err := tx.Payments().FindSettlementByEntryID(ctx, entryID)
	if err != nil {
		return links, fmt.Errorf("failed to check payment settlements: %w", err)
	}
	if settlement != nil {
		if links.settlement, err = tx.Payments().FindDraftByIDForUpdate(ctx, settlement.DraftID); err != nil {
			return links, err
		}
	}
	if links.movements, err = tx.SupplierLedger().ListEntriesByTransaction(ctx, entryID); err != nil {
		return links, fmt.Errorf("failed to check supplier ledger links: %w", err)
	}
	return links, nil
}

// inUse returns an EntryInUseError when anything references the entry.
func (l entryLinks) inUse(entryID string) error {
	switch {
	case l.settlement != nil:
		return apperrors.EntryInUseError{EntryID: entryID, DraftID: l.settlement.DraftID}
	case len(l.movements) > 0:
		return apperrors.EntryInUseError{EntryID: entryID, LedgerEntryID: l.movements[0].LedgerEntryID}
	}
	return nil
}

// unwind books the opposite of every linked supplier ledger movement against the
// reversal entry and moves a settling draft to reversed. It returns the draft before
// and after the change, or nils when no draft settles the entry.
func (l entryLinks) unwind(ctx context.Context, tx portsrepo.TxRepositories, original, reversal domain.JournalEntry, reason, userID string, now time.Time) (*domain.PaymentDraft, *domain.PaymentDraft, error) {
	note := "Reversal of " + original.EntryNumber + ": " + reason
	for _, m := range l.movements {
		if _, err := appendSupplierLedger(ctx, tx, m.SupplierID, m.Type.Opposite(), m.Amount, reversal.EntryID, note, userID, now); err != nil {
			return nil, nil, err
		}
	}

	if l.settlement == nil {
		return nil, nil, nil
	}
	draft := *l.settlement
	previous := draft
	if !draft.Status.CanTransition(domain.DraftStatusReversed) {
		return nil, nil, apperrors.InvalidTransitionError{
			DraftID: draft.DraftID, From: string(draft.Status), To: string(domain.DraftStatusReversed),
		}
	}
	draft.Status = domain.DraftStatusReversed
	draft.Touch(userID, now)
	if err := tx.Payments().UpdateDraftStatus(ctx, draft); err != nil {
		return nil, nil, fmt.Errorf("failed to mark draft reversed: %w", err)
	}
	return &previous, &draft, nil
}

// appendSupplierLedger appends a movement to a supplier's ledger under the supplier lock.
func appendSupplierLedger(ctx context.Context, tx portsrepo.TxRepositories, supplierID string, typ domain.SupplierLedgerEntryType, amount decimal.Decimal, transactionID, reason, userID string, now time.Time) (*domain.SupplierLedgerEntry, error) {
	ledger := tx.SupplierLedger()
	if err := ledger.LockSupplier(ctx, supplierID); err != nil {
		return nil, fmt.Errorf("failed to lock supplier ledger: %w", err)
	}
	previous, err := ledger.LatestBalance(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to read supplier balance: %w", err)
	}

	amount = domain.RoundMoney(amount)
	entry := domain.SupplierLedgerEntry{
		LedgerEntryID: uuid.NewString(),
		SupplierID:    supplierID,
		Type:          typ,
		Amount:        amount,
		Balance:       typ.Apply(previous, amount),
		TransactionID: transactionID,
		Reason:        reason,
		CreatedAt:     now,
		CreatedBy:     userID,
	}
	if err := ledger.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append supplier ledger entry: %w", err)
	}
	return &entry, nil
}
