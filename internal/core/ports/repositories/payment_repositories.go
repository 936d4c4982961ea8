package repositories

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BankAccountRepositoryFacade persists bank accounts.
type BankAccountRepositoryFacade interface {
	SaveBankAccount(ctx context.Context, bank domain.BankAccount) error
	FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error)
}

// PaymentDraftReader defines read operations for payment drafts
type PaymentDraftReader interface {
	// FindDraftByID retrieves a draft. Missing drafts yield apperrors.ErrNotFound.
	FindDraftByID(ctx context.Context, draftID string) (*domain.PaymentDraft, error)

	// FindSettlementByEntryID returns the posted draft referencing entryID, or nil when none does.
	FindSettlementByEntryID(ctx context.Context, entryID string) (*domain.PaymentDraft, error)
}

// PaymentDraftWriter defines write operations for payment drafts
type PaymentDraftWriter interface {
	SaveDraft(ctx context.Context, draft domain.PaymentDraft) error

	// FindDraftByIDForUpdate retrieves a draft and locks it for the rest of the transaction.
	FindDraftByIDForUpdate(ctx context.Context, draftID string) (*domain.PaymentDraft, error)

	// UpdateDraftStatus persists status, journal link, rejection reason and update stamp.
	UpdateDraftStatus(ctx context.Context, draft domain.PaymentDraft) error
}

// PaymentDraftRepositoryFacade combines all draft-related repository interfaces
type PaymentDraftRepositoryFacade interface {
	PaymentDraftReader
	PaymentDraftWriter
}

// SupplierLedgerRepositoryFacade persists the append-only supplier credit ledger.
type SupplierLedgerRepositoryFacade interface {
	// LockSupplier serializes balance changes of one supplier until the transaction ends.
	LockSupplier(ctx context.Context, supplierID string) error

	// LatestBalance returns the running balance after the last entry, or zero.
	LatestBalance(ctx context.Context, supplierID string) (decimal.Decimal, error)

	AppendEntry(ctx context.Context, entry domain.SupplierLedgerEntry) error

	// ListEntriesByTransaction returns the entries linked to a journal entry, oldest first.
	ListEntriesByTransaction(ctx context.Context, transactionID string) ([]domain.SupplierLedgerEntry, error)

	// ListEntries returns the newest entries first.
	ListEntries(ctx context.Context, supplierID string, limit int) ([]domain.SupplierLedgerEntry, error)
}
