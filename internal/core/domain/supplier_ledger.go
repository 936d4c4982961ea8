package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierLedgerEntryType is the direction of a supplier ledger movement.
type SupplierLedgerEntryType string

const (
	SupplierCredit SupplierLedgerEntryType = "credit"
	SupplierDebit  SupplierLedgerEntryType = "debit"
)

// SupplierLedgerEntry is one append-only movement of a supplier's credit balance.
type SupplierLedgerEntry struct {
	LedgerEntryID string                  `json:"ledgerEntryID"`
	SupplierID    string                  `json:"supplierID"`
	Type          SupplierLedgerEntryType `json:"type"`
	Amount        decimal.Decimal         `json:"amount"`
	Balance       decimal.Decimal         `json:"balance"` // Running balance after this entry
	TransactionID string                  `json:"transactionID,omitempty"`
	Reason        string                  `json:"reason"`
	CreatedAt     time.Time               `json:"createdAt"`
	CreatedBy     string                  `json:"createdBy"`
}

// Apply returns the running balance after adding this movement to previous.
func (t SupplierLedgerEntryType) Apply(previous, amount decimal.Decimal) decimal.Decimal {
	if t == SupplierDebit {
		return RoundMoney(previous.Sub(amount))
	}
	return RoundMoney(previous.Add(amount))
}

// Opposite returns the movement type that undoes t.
func (t SupplierLedgerEntryType) Opposite() SupplierLedgerEntryType {
	if t == SupplierDebit {
		return SupplierCredit
	}
	return SupplierDebit
}
