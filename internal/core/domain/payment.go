package domain

import (
	"github.com/shopspring/decimal"
)

// PaymentSource is where the money for a payment draft comes from.
type PaymentSource string

const (
	SourceWallet PaymentSource = "wallet" // supplier credit held by us
	SourceBank   PaymentSource = "bank"
)

// PaymentDraftStatus is a state of the payment draft state machine.
type PaymentDraftStatus string

const (
	DraftStatusDraft           PaymentDraftStatus = "draft"
	DraftStatusPendingApproval PaymentDraftStatus = "pending_approval"
	DraftStatusPosted          PaymentDraftStatus = "posted"
	DraftStatusRejected        PaymentDraftStatus = "rejected"
	DraftStatusReversed        PaymentDraftStatus = "reversed" // settlement entry was reversed
)

var draftTransitions = map[PaymentDraftStatus][]PaymentDraftStatus{
	DraftStatusDraft:           {DraftStatusPendingApproval, DraftStatusRejected},
	DraftStatusPendingApproval: {DraftStatusPosted, DraftStatusRejected},
	DraftStatusPosted:          {DraftStatusReversed},
}

// CanTransition reports whether a draft in status s may move to next.
func (s PaymentDraftStatus) CanTransition(next PaymentDraftStatus) bool {
	for _, allowed := range draftTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s PaymentDraftStatus) IsTerminal() bool {
	return len(draftTransitions[s]) == 0
}

// PaymentDraft is one component of a purchase-order payment awaiting approval.
// Once posted it doubles as the payment settlement referencing its journal entry.
type PaymentDraft struct {
	DraftID         string             `json:"draftID"`
	PurchaseOrderID string             `json:"purchaseOrderID"`
	Reference       string             `json:"reference"`
	SupplierID      string             `json:"supplierID"`
	Source          PaymentSource      `json:"source"`
	BankAccountID   *string            `json:"bankAccountID,omitempty"`
	Amount          decimal.Decimal    `json:"amount"`
	Description     string             `json:"description"`
	Status          PaymentDraftStatus `json:"status"`
	JournalEntryID  *string            `json:"journalEntryID,omitempty"`
	RejectionReason string             `json:"rejectionReason,omitempty"`
	AuditFields
}

// AuditRef implements Auditable.
func (d PaymentDraft) AuditRef() EntityRef {
	return EntityRef{Type: "payment_draft", ID: d.DraftID, Table: "payment_drafts"}
}

// AuditAttributes implements Auditable.
func (d PaymentDraft) AuditAttributes() map[string]string {
	return map[string]string{
		"id":                d.DraftID,
		"purchase_order_id": d.PurchaseOrderID,
		"reference_number":  d.Reference,
		"supplier_id":       d.SupplierID,
		"source":            string(d.Source),
		"bank_account_id":   optionalString(d.BankAccountID),
		"amount":            formatMoney(d.Amount),
		"description":       d.Description,
		"status":            string(d.Status),
		"journal_entry_id":  optionalString(d.JournalEntryID),
		"rejection_reason":  d.RejectionReason,
	}
}

// PaymentBreakdown splits an amount due between supplier credit and bank.
type PaymentBreakdown struct {
	FromCredit decimal.Decimal `json:"fromCredit"`
	FromBank   decimal.Decimal `json:"fromBank"`
	Total      decimal.Decimal `json:"total"`
}

// FinalBalance is the projected balance of a source after a payment.
type FinalBalance struct {
	Current    decimal.Decimal `json:"current"`
	Final      decimal.Decimal `json:"final"`
	IsNegative bool            `json:"isNegative"`
	Difference decimal.Decimal `json:"difference"`
}

// PaymentValidation is the outcome of checking a payment against a balance.
type PaymentValidation struct {
	CanProceed bool         `json:"canProceed"`
	Warning    string       `json:"warning,omitempty"`
	Balance    FinalBalance `json:"balance"`
}
