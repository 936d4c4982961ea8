package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetJournalEntryByID retrieves an entry with its items.
	GetJournalEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// SearchJournalEntries returns a page of entries and the token of the next page.
	SearchJournalEntries(ctx context.Context, params dto.SearchJournalEntriesParams) ([]domain.JournalEntry, *string, error)

	// NextEntryNumber previews the number the next auto-numbered posting would receive.
	NextEntryNumber(ctx context.Context) (string, error)
}

// JournalWriterSvc defines write operations for journal data
type JournalWriterSvc interface {
	// PostJournalEntry validates and posts a balanced entry, moving account balances.
	PostJournalEntry(ctx context.Context, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error)

	// UpdateJournalEntry replaces the items of an entry that is still mutable.
	UpdateJournalEntry(ctx context.Context, entryID string, req dto.UpdateJournalEntryRequest, userID string) (*domain.JournalEntry, error)

	// DeleteJournalEntry removes a mutable entry no settlement references.
	DeleteJournalEntry(ctx context.Context, entryID string, userID string) error

	// ReverseJournalEntry posts the mirror of an entry and flags the original as reversed.
	ReverseJournalEntry(ctx context.Context, entryID string, req dto.ReverseJournalEntryRequest, userID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
