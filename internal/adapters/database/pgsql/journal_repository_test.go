package pgsql

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	entryRowColumns = []string{"entry_id", "entry_number", "entry_date", "description", "total_debit", "total_credit",
		"is_reversed", "reversal_of_entry_id", "created_at", "created_by", "last_updated_at", "last_updated_by"}
	itemRowColumns = []string{"item_id", "entry_id", "account_id", "debit", "credit", "memo", "line_no"}
)

var entryDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func sampleEntry() domain.JournalEntry {
	hundred := decimal.RequireFromString("100.00")
	return domain.JournalEntry{
		EntryID:     "je-1",
		EntryNumber: "JE-000001",
		EntryDate:   entryDate,
		Description: "Office rent",
		TotalDebit:  hundred,
		TotalCredit: hundred,
		Items: []domain.JournalItem{
			{ItemID: "it-1", EntryID: "je-1", AccountID: "expense", Debit: hundred, Credit: decimal.Zero, LineNo: 1},
			{ItemID: "it-2", EntryID: "je-1", AccountID: "bank", Debit: decimal.Zero, Credit: hundred, LineNo: 2},
		},
		AuditFields: domain.NewAuditFields("user-1", testNow),
	}
}

func expectEntryInsert(mock pgxmock.PgxPoolIface) *pgxmock.ExpectedExec {
	args := make([]interface{}, 12)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return mock.ExpectExec(sqlLike("INSERT INTO journal_entries")).WithArgs(args...)
}

func TestJournalRepository_SaveEntry(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxJournalRepository(mock)
	entry := sampleEntry()

	t.Run("inserts header then items", func(t *testing.T) {
		expectEntryInsert(mock).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(sqlLike("INSERT INTO journal_items")).
			WithArgs("it-1", "je-1", "expense", dec("100"), dec("0"), "", 1).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(sqlLike("INSERT INTO journal_items")).
			WithArgs("it-2", "je-1", "bank", dec("0"), dec("100"), "", 2).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.SaveEntry(ctx, entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("taken entry number", func(t *testing.T) {
		expectEntryInsert(mock).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: entryNumberConstraint})

		err := repo.SaveEntry(ctx, entry)
		var conflict apperrors.NumberingConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "JE-000001", conflict.EntryNumber)
		assert.Zero(t, conflict.Attempts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id", func(t *testing.T) {
		expectEntryInsert(mock).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "journal_entries_pkey"})

		err := repo.SaveEntry(ctx, entry)
		assert.ErrorIs(t, err, apperrors.ErrDuplicate)
		assert.False(t, apperrors.IsNumberingConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJournalRepository_FindEntryByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxJournalRepository(mock)

	t.Run("loads items in line order", func(t *testing.T) {
		mock.ExpectQuery(sqlLike("FROM journal_entries WHERE entry_id = $1")).WithArgs("je-2").
			WillReturnRows(pgxmock.NewRows(entryRowColumns).
				AddRow("je-2", "JE-000002", entryDate, "Reversed", "100.00", "100.00", false, "je-1", testNow, "u", testNow, "u"))
		mock.ExpectQuery(sqlLike("FROM journal_items")).WithArgs([]string{"je-2"}).
			WillReturnRows(pgxmock.NewRows(itemRowColumns).
				AddRow("it-3", "je-2", "bank", "100.00", "0", "", 1).
				AddRow("it-4", "je-2", "expense", "0", "100.00", "", 2))

		entry, err := repo.FindEntryByID(ctx, "je-2")
		require.NoError(t, err)
		require.NotNil(t, entry.ReversalOfEntryID)
		assert.Equal(t, "je-1", *entry.ReversalOfEntryID)
		assert.True(t, entry.IsReversal())
		require.Len(t, entry.Items, 2)
		assert.Equal(t, 1, entry.Items[0].LineNo)
		assert.True(t, entry.Items[0].Debit.Equal(decimal.RequireFromString("100")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null reversal link", func(t *testing.T) {
		mock.ExpectQuery(sqlLike("FROM journal_entries WHERE entry_id = $1")).WithArgs("je-1").
			WillReturnRows(pgxmock.NewRows(entryRowColumns).
				AddRow("je-1", "JE-000001", entryDate, "Rent", "100.00", "100.00", true, nil, testNow, "u", testNow, "u"))
		mock.ExpectQuery(sqlLike("FROM journal_items")).WithArgs([]string{"je-1"}).
			WillReturnRows(pgxmock.NewRows(itemRowColumns))

		entry, err := repo.FindEntryByID(ctx, "je-1")
		require.NoError(t, err)
		assert.Nil(t, entry.ReversalOfEntryID)
		assert.True(t, entry.IsReversed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(sqlLike("FROM journal_entries WHERE entry_id = $1")).WithArgs("nope").WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindEntryByID(ctx, "nope")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBuildSearchQuery(t *testing.T) {
	reversed := false
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cursor := &domain.JournalCursor{EntryDate: entryDate, EntryNumber: "JE-000010"}

	query, args := buildSearchQuery(domain.JournalSearchFilter{
		NumberContains: "je-00",
		DateFrom:       &from,
		IsReversed:     &reversed,
		Limit:          21,
		After:          cursor,
	})

	assert.Contains(t, query, `entry_number ILIKE $1 ESCAPE '\'`)
	assert.Contains(t, query, "entry_date >= $2::date")
	assert.Contains(t, query, "is_reversed = $3")
	assert.Contains(t, query, "(entry_date, entry_number) < ($4::date, $5)")
	assert.Contains(t, query, "ORDER BY entry_date DESC, entry_number DESC LIMIT $6")
	assert.Equal(t, []interface{}{"%je-00%", from, false, entryDate, "JE-000010", 21}, args)

	query, args = buildSearchQuery(domain.JournalSearchFilter{})
	assert.NotContains(t, query, "WHERE")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"rent", "%rent%"},
		{"50%", `%50\%%`},
		{"JE_1", `%JE\_1%`},
		{`a\b`, `%a\\b%`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsPattern(tt.in), tt.in)
	}

	query, args := buildSearchQuery(domain.JournalSearchFilter{Description: "100%_off"})
	assert.Contains(t, query, `description ILIKE $1 ESCAPE '\'`)
	assert.Equal(t, []interface{}{`%100\%\_off%`}, args)
}

func TestJournalRepository_SearchEntries(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxJournalRepository(mock)

	mock.ExpectQuery(sqlLike("FROM journal_entries WHERE description ILIKE")).WithArgs("%rent%", 2).
		WillReturnRows(pgxmock.NewRows(entryRowColumns).
			AddRow("je-2", "JE-000002", entryDate, "Rent April", "50.00", "50.00", false, nil, testNow, "u", testNow, "u").
			AddRow("je-1", "JE-000001", entryDate, "Rent March", "50.00", "50.00", false, nil, testNow, "u", testNow, "u"))
	mock.ExpectQuery(sqlLike("FROM journal_items")).WithArgs([]string{"je-2", "je-1"}).
		WillReturnRows(pgxmock.NewRows(itemRowColumns).
			AddRow("it-1", "je-1", "expense", "50.00", "0", "", 1).
			AddRow("it-2", "je-1", "bank", "0", "50.00", "", 2).
			AddRow("it-3", "je-2", "expense", "50.00", "0", "", 1).
			AddRow("it-4", "je-2", "bank", "0", "50.00", "", 2))

	entries, err := repo.SearchEntries(ctx, domain.JournalSearchFilter{Description: "rent", Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "JE-000002", entries[0].EntryNumber)
	assert.Len(t, entries[0].Items, 2)
	assert.Equal(t, "je-2", entries[0].Items[0].EntryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepository_MarkReversed(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxJournalRepository(mock)

	mock.ExpectExec(sqlLike("SET is_reversed = TRUE")).WithArgs("je-1", testNow, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.MarkReversed(ctx, "je-1", "user-1", testNow))

	mock.ExpectExec(sqlLike("SET is_reversed = TRUE")).WithArgs("gone", testNow, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.MarkReversed(ctx, "gone", "user-1", testNow), apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalRepository_DeleteEntry(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxJournalRepository(mock)

	mock.ExpectExec(sqlLike("DELETE FROM journal_items")).WithArgs("je-1").WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(sqlLike("DELETE FROM journal_entries")).WithArgs("je-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.DeleteEntry(ctx, "je-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
