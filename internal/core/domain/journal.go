package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReversalDescriptionPrefix starts the description of every mirror entry.
const ReversalDescriptionPrefix = "Reversed original transaction. Reason: "

// ReversalDescription builds the description of the entry that reverses another.
func ReversalDescription(reason string) string {
	return ReversalDescriptionPrefix + reason
}

// JournalEntry is a dated, balanced set of journal items.
type JournalEntry struct {
	EntryID           string          `json:"entryID"`     // Primary Key (UUID)
	EntryNumber       string          `json:"entryNumber"` // Unique, sequential, immutable
	EntryDate         time.Time       `json:"entryDate"`
	Description       string          `json:"description"`
	TotalDebit        decimal.Decimal `json:"totalDebit"`
	TotalCredit       decimal.Decimal `json:"totalCredit"`
	IsReversed        bool            `json:"isReversed"`
	ReversalOfEntryID *string         `json:"reversalOfEntryID,omitempty"` // Set on mirror entries
	Items             []JournalItem   `json:"items,omitempty"`
	AuditFields
}

// IsReversal reports whether the entry is the mirror of another entry.
func (e JournalEntry) IsReversal() bool {
	return e.ReversalOfEntryID != nil && *e.ReversalOfEntryID != ""
}

// CheckMutable returns a non-empty reason when the entry may no longer be edited,
// deleted or reversed.
func (e JournalEntry) CheckMutable() string {
	switch {
	case e.IsReversed:
		return "entry has been reversed"
	case e.IsReversal():
		return "entry is a reversal of " + *e.ReversalOfEntryID
	}
	return ""
}

// JournalItem is a single debit or credit line of an entry.
type JournalItem struct {
	ItemID    string          `json:"itemID"`
	EntryID   string          `json:"entryID"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo,omitempty"`
	LineNo    int             `json:"lineNo"`
}

// Mirror returns the item with debit and credit swapped. Identity fields are cleared.
func (i JournalItem) Mirror() JournalItem {
	return JournalItem{
		AccountID: i.AccountID,
		Debit:     i.Credit,
		Credit:    i.Debit,
		Memo:      i.Memo,
		LineNo:    i.LineNo,
	}
}

// AuditRef implements Auditable.
func (e JournalEntry) AuditRef() EntityRef {
	return EntityRef{Type: "journal_entry", ID: e.EntryID, Table: "journal_entries"}
}

// AuditAttributes implements Auditable.
func (e JournalEntry) AuditAttributes() map[string]string {
	attrs := map[string]string{
		"id":                   e.EntryID,
		"number":               e.EntryNumber,
		"date":                 formatDate(e.EntryDate),
		"description":          e.Description,
		"total_debit":          formatMoney(e.TotalDebit),
		"total_credit":         formatMoney(e.TotalCredit),
		"is_reversed":          strconv.FormatBool(e.IsReversed),
		"reversal_of_entry_id": optionalString(e.ReversalOfEntryID),
	}
	if len(e.Items) > 0 {
		attrs["items"] = summarizeItems(e.Items)
	}
	return attrs
}

// summarizeItems renders items as "account:debit/credit" pairs in line order.
func summarizeItems(items []JournalItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s:%s/%s", it.AccountID, formatMoney(it.Debit), formatMoney(it.Credit)))
	}
	return strings.Join(parts, ";")
}

// JournalSearchFilter narrows a journal search.
type JournalSearchFilter struct {
	NumberContains string
	Description    string
	DateFrom       *time.Time
	DateTo         *time.Time
	IsReversed     *bool
	Limit          int
	After          *JournalCursor
}

// JournalCursor is the position after which a search page starts. Entries are ordered
// by entry date descending, then entry number descending.
type JournalCursor struct {
	EntryDate   time.Time
	EntryNumber string
}
