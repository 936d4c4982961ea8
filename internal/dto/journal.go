package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalItemRequest is one line of a journal entry request.
type JournalItemRequest struct {
	AccountID string          `json:"account_id" binding:"required"`
	Debit     decimal.Decimal `json:"debit" binding:"money"`
	Credit    decimal.Decimal `json:"credit" binding:"money"`
	Memo      string          `json:"memo" binding:"max=255"`
}

// CreateJournalEntryRequest defines the data needed to post a journal entry.
// EntryNumber is optional; one is assigned when omitted.
type CreateJournalEntryRequest struct {
	EntryNumber string               `json:"entry_number" binding:"omitempty,max=32"`
	Date        *time.Time           `json:"date"`
	Description string               `json:"description" binding:"max=500"`
	Items       []JournalItemRequest `json:"items" binding:"required,min=2,dive"`
}

// UpdateJournalEntryRequest replaces the items of an entry. Date and description are
// replaced only when provided.
type UpdateJournalEntryRequest struct {
	Date        *time.Time           `json:"date"`
	Description *string              `json:"description" binding:"omitempty,max=500"`
	Items       []JournalItemRequest `json:"items" binding:"required,min=2,dive"`
}

// ReverseJournalEntryRequest defines the data needed to reverse an entry.
type ReverseJournalEntryRequest struct {
	Reason string     `json:"reason" binding:"required,max=255"`
	Date   *time.Time `json:"date"`
}

// SearchJournalEntriesParams are the query parameters of a journal search.
type SearchJournalEntriesParams struct {
	Number      string     `form:"number" binding:"omitempty,max=32"`
	Description string     `form:"q" binding:"omitempty,max=255"`
	DateFrom    *time.Time `form:"date_from" time_format:"2006-01-02" time_utc:"1"`
	DateTo      *time.Time `form:"date_to" time_format:"2006-01-02" time_utc:"1"`
	IsReversed  *bool      `form:"is_reversed"`
	Limit       int        `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken   string     `form:"next_token"`
}

// ToItems converts request lines to domain items numbered from 1.
func ToItems(reqs []JournalItemRequest) []domain.JournalItem {
	items := make([]domain.JournalItem, len(reqs))
	for i, r := range reqs {
		items[i] = domain.JournalItem{
			AccountID: r.AccountID,
			Debit:     r.Debit,
			Credit:    r.Credit,
			Memo:      r.Memo,
			LineNo:    i + 1,
		}
	}
	return items
}

// JournalItemResponse defines the data returned for a journal item.
type JournalItemResponse struct {
	ItemID    string          `json:"item_id"`
	AccountID string          `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID           string                `json:"id"`
	EntryNumber       string                `json:"entry_number"`
	Date              time.Time             `json:"date"`
	Description       string                `json:"description"`
	TotalDebit        decimal.Decimal       `json:"total_debit"`
	TotalCredit       decimal.Decimal       `json:"total_credit"`
	IsReversed        bool                  `json:"is_reversed"`
	ReversalOfEntryID *string               `json:"reversal_of_entry_id"`
	Items             []JournalItemResponse `json:"items"`
	CreatedAt         time.Time             `json:"created_at"`
	CreatedBy         string                `json:"created_by"`
	LastUpdatedAt     time.Time             `json:"last_updated_at"`
	LastUpdatedBy     string                `json:"last_updated_by"`
}

// SearchJournalEntriesResponse is one page of search results.
type SearchJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"next_token,omitempty"`
}

// NextEntryNumberResponse previews the number the next posting would receive.
type NextEntryNumberResponse struct {
	EntryNumber string `json:"entry_number"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	items := make([]JournalItemResponse, len(e.Items))
	for i, it := range e.Items {
		items[i] = JournalItemResponse{
			ItemID:    it.ItemID,
			AccountID: it.AccountID,
			Debit:     it.Debit,
			Credit:    it.Credit,
			Memo:      it.Memo,
		}
	}
	return JournalEntryResponse{
		EntryID:           e.EntryID,
		EntryNumber:       e.EntryNumber,
		Date:              e.EntryDate,
		Description:       e.Description,
		TotalDebit:        e.TotalDebit,
		TotalCredit:       e.TotalCredit,
		IsReversed:        e.IsReversed,
		ReversalOfEntryID: e.ReversalOfEntryID,
		Items:             items,
		CreatedAt:         e.CreatedAt,
		CreatedBy:         e.CreatedBy,
		LastUpdatedAt:     e.LastUpdatedAt,
		LastUpdatedBy:     e.LastUpdatedBy,
	}
}

// ToJournalEntryResponses converts a slice of entries.
func ToJournalEntryResponses(entries []domain.JournalEntry) []JournalEntryResponse {
	responses := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToJournalEntryResponse(&entries[i])
	}
	return responses
}
