package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// PaymentSvcFacade turns purchase-order payments into approval drafts and ledger postings.
type PaymentSvcFacade interface {
	// PreviewPayment computes the allocation without side effects.
	PreviewPayment(ctx context.Context, req dto.PaymentPreviewRequest) (*dto.PaymentPreviewResponse, error)

	// ProcessPayment creates one pending-approval draft per non-zero funding source.
	ProcessPayment(ctx context.Context, req dto.ProcessPaymentRequest, userID string) (*dto.ProcessPaymentResponse, error)

	// ApproveDraft posts the draft's ledger entry and marks it posted.
	ApproveDraft(ctx context.Context, draftID string, userID string) (*domain.PaymentDraft, error)

	// RejectDraft marks a draft rejected without moving any balance.
	RejectDraft(ctx context.Context, draftID string, reason string, userID string) (*domain.PaymentDraft, error)

	GetDraftByID(ctx context.Context, draftID string) (*domain.PaymentDraft, error)

	// TopUpSupplierCredit appends a credit to the supplier ledger.
	TopUpSupplierCredit(ctx context.Context, supplierID string, req dto.TopUpSupplierCreditRequest, userID string) (*domain.SupplierLedgerEntry, error)

	// GetSupplierLedger returns the current balance and the newest entries.
	GetSupplierLedger(ctx context.Context, supplierID string, limit int) (*dto.SupplierLedgerResponse, error)
}
