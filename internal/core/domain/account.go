package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether debits increase the balance of accounts of this type.
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}

// Account represents an entry of the chart of accounts.
type Account struct {
	AccountID   string          `json:"accountID"`   // Primary Key (UUID)
	Code        string          `json:"code"`        // Unique, human assigned
	Name        string          `json:"name"`        // User-defined name
	AccountType AccountType     `json:"accountType"` // asset, liability, etc.
	SubType     string          `json:"subType"`     // e.g. "current"
	Description string          `json:"description"` // Nullable user description
	IsActive    bool            `json:"isActive"`
	Balance     decimal.Decimal `json:"balance"` // Derived; mutated only by postings
	AuditFields
}

// AuditRef implements Auditable.
func (a Account) AuditRef() EntityRef {
	return EntityRef{Type: "account", ID: a.AccountID, Table: "accounts"}
}

// AuditAttributes implements Auditable.
func (a Account) AuditAttributes() map[string]string {
	return map[string]string{
		"id":          a.AccountID,
		"code":        a.Code,
		"name":        a.Name,
		"type":        string(a.AccountType),
		"sub_type":    a.SubType,
		"description": a.Description,
		"is_active":   strconv.FormatBool(a.IsActive),
		"balance":     formatMoney(a.Balance),
	}
}
