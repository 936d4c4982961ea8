package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry and its items. Missing entries yield apperrors.ErrNotFound.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// SearchEntries returns entries matching filter, newest first, items included.
	SearchEntries(ctx context.Context, filter domain.JournalSearchFilter) ([]domain.JournalEntry, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// FindEntryByIDForUpdate retrieves an entry with its items and locks the entry row.
	FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// SaveEntry persists an entry and its items. A taken entry number yields
	// apperrors.NumberingConflictError.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// UpdateEntryHeader updates date, description and totals of an entry.
	UpdateEntryHeader(ctx context.Context, entry domain.JournalEntry) error

	// ReplaceItems deletes the current items of an entry and inserts items.
	ReplaceItems(ctx context.Context, entryID string, items []domain.JournalItem) error

	// DeleteEntry removes an entry and its items.
	DeleteEntry(ctx context.Context, entryID string) error

	// MarkReversed flags an entry as reversed.
	MarkReversed(ctx context.Context, entryID string, userID string, now time.Time) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}

// NumberingRepository backs entry number assignment.
type NumberingRepository interface {
	// LockSequence serializes number assignment until the surrounding transaction ends.
	LockSequence(ctx context.Context) error

	// MaxSequence returns the highest sequence value issued under prefix, or 0.
	MaxSequence(ctx context.Context, prefix string) (int64, error)
}
