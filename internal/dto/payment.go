package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ProcessPaymentRequest splits a purchase-order payment into approval drafts.
// SupplierCredit overrides the supplier ledger balance when provided; BankBalance
// only feeds the overdraft warning.
type ProcessPaymentRequest struct {
	PurchaseOrderID string           `json:"purchase_order_id" binding:"required"`
	Reference       string           `json:"reference" binding:"required,max=64"`
	SupplierID      string           `json:"supplier_id" binding:"required"`
	TotalDue        decimal.Decimal  `json:"total_due" binding:"money"`
	SupplierCredit  *decimal.Decimal `json:"supplier_credit"`
	BankAccountID   string           `json:"bank_account_id"`
	BankBalance     *decimal.Decimal `json:"bank_balance"`
}

// PaymentPreviewRequest asks for a breakdown without creating anything.
type PaymentPreviewRequest struct {
	Reference      string          `json:"reference" binding:"max=64"`
	TotalDue       decimal.Decimal `json:"total_due" binding:"money"`
	SupplierCredit decimal.Decimal `json:"supplier_credit"`
	BankBalance    decimal.Decimal `json:"bank_balance"`
}

// PaymentPreviewResponse is the pure allocation result.
type PaymentPreviewResponse struct {
	Breakdown   domain.PaymentBreakdown  `json:"breakdown"`
	Bank        domain.PaymentValidation `json:"bank"`
	Description string                   `json:"description"`
}

// ProcessPaymentResponse returns the breakdown and the drafts awaiting approval.
type ProcessPaymentResponse struct {
	Breakdown   domain.PaymentBreakdown   `json:"breakdown"`
	Description string                    `json:"description"`
	Bank        *domain.PaymentValidation `json:"bank,omitempty"`
	Drafts      []PaymentDraftResponse    `json:"drafts"`
}

// RejectDraftRequest carries the reason a draft is rejected.
type RejectDraftRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// TopUpSupplierCreditRequest adds credit to a supplier's balance. BankAccountID names
// the bank that funded the advance; without it the advance is set against payable.
type TopUpSupplierCreditRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"money"`
	Reason        string          `json:"reason" binding:"required,max=255"`
	BankAccountID *string         `json:"bank_account_id,omitempty" binding:"omitempty,max=36"`
}

// PaymentDraftResponse defines the data returned for a payment draft.
type PaymentDraftResponse struct {
	DraftID         string                    `json:"id"`
	PurchaseOrderID string                    `json:"purchase_order_id"`
	Reference       string                    `json:"reference"`
	SupplierID      string                    `json:"supplier_id"`
	Source          domain.PaymentSource      `json:"source"`
	BankAccountID   *string                   `json:"bank_account_id,omitempty"`
	Amount          decimal.Decimal           `json:"amount"`
	Description     string                    `json:"description"`
	Status          domain.PaymentDraftStatus `json:"status"`
	JournalEntryID  *string                   `json:"journal_entry_id,omitempty"`
	RejectionReason string                    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	CreatedBy       string                    `json:"created_by"`
	LastUpdatedAt   time.Time                 `json:"last_updated_at"`
	LastUpdatedBy   string                    `json:"last_updated_by"`
}

// ToPaymentDraftResponse converts a domain.PaymentDraft.
func ToPaymentDraftResponse(d *domain.PaymentDraft) PaymentDraftResponse {
	return PaymentDraftResponse{
		DraftID:         d.DraftID,
		PurchaseOrderID: d.PurchaseOrderID,
		Reference:       d.Reference,
		SupplierID:      d.SupplierID,
		Source:          d.Source,
		BankAccountID:   d.BankAccountID,
		Amount:          d.Amount,
		Description:     d.Description,
		Status:          d.Status,
		JournalEntryID:  d.JournalEntryID,
		RejectionReason: d.RejectionReason,
		CreatedAt:       d.CreatedAt,
		CreatedBy:       d.CreatedBy,
		LastUpdatedAt:   d.LastUpdatedAt,
		LastUpdatedBy:   d.LastUpdatedBy,
	}
}

// ToPaymentDraftResponses converts a slice of drafts.
func ToPaymentDraftResponses(drafts []domain.PaymentDraft) []PaymentDraftResponse {
	out := make([]PaymentDraftResponse, len(drafts))
	for i := range drafts {
		out[i] = ToPaymentDraftResponse(&drafts[i])
	}
	return out
}

// SupplierLedgerEntryResponse defines the data returned for a supplier ledger entry.
type SupplierLedgerEntryResponse struct {
	LedgerEntryID string                         `json:"id"`
	Type          domain.SupplierLedgerEntryType `json:"type"`
	Amount        decimal.Decimal                `json:"amount"`
	Balance       decimal.Decimal                `json:"balance"`
	TransactionID string                         `json:"transaction_id,omitempty"`
	Reason        string                         `json:"reason"`
	CreatedAt     time.Time                      `json:"created_at"`
	CreatedBy     string                         `json:"created_by"`
}

// SupplierLedgerResponse is a supplier's balance with its latest movements.
type SupplierLedgerResponse struct {
	SupplierID string                        `json:"supplier_id"`
	Balance    decimal.Decimal               `json:"balance"`
	Entries    []SupplierLedgerEntryResponse `json:"entries"`
}

// ToSupplierLedgerEntryResponse converts a domain.SupplierLedgerEntry.
func ToSupplierLedgerEntryResponse(e *domain.SupplierLedgerEntry) SupplierLedgerEntryResponse {
	return SupplierLedgerEntryResponse{
		LedgerEntryID: e.LedgerEntryID,
		Type:          e.Type,
		Amount:        e.Amount,
		Balance:       e.Balance,
		TransactionID: e.TransactionID,
		Reason:        e.Reason,
		CreatedAt:     e.CreatedAt,
		CreatedBy:     e.CreatedBy,
	}
}

// ToSupplierLedgerResponse builds the ledger response from the newest-first entries.
func ToSupplierLedgerResponse(supplierID string, balance decimal.Decimal, entries []domain.SupplierLedgerEntry) SupplierLedgerResponse {
	list := make([]SupplierLedgerEntryResponse, len(entries))
	for i := range entries {
		list[i] = ToSupplierLedgerEntryResponse(&entries[i])
	}
	return SupplierLedgerResponse{SupplierID: supplierID, Balance: balance, Entries: list}
}
