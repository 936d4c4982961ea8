package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, s *Store, id, code string, typ domain.AccountType) {
	t.Helper()
	require.NoError(t, s.Provider().AccountRepo.SaveAccount(context.Background(), domain.Account{
		AccountID: id, Code: code, Name: code, AccountType: typ, IsActive: true,
	}))
}

func entry(id, number string, date time.Time) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:     id,
		EntryNumber: number,
		EntryDate:   date,
		Description: "entry " + number,
		Items: []domain.JournalItem{
			{ItemID: id + "-1", EntryID: id, AccountID: "cash", Debit: decimal.NewFromInt(10), Credit: decimal.Zero, LineNo: 1},
			{ItemID: id + "-2", EntryID: id, AccountID: "rev", Debit: decimal.Zero, Credit: decimal.NewFromInt(10), LineNo: 2},
		},
	}
}

func TestStore_RollbackLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedAccount(t, s, "cash", "1000", domain.Asset)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		require.NoError(t, repos.Journals().SaveEntry(ctx, entry("e1", "JE-000001", time.Now())))
		require.NoError(t, repos.Accounts().ApplyBalanceChanges(ctx, map[string]decimal.Decimal{"cash": decimal.NewFromInt(10)}, "u", time.Now()))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p := s.Provider()
	_, err = p.JournalRepo.FindEntryByID(ctx, "e1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	acc, err := p.AccountRepo.FindAccountByID(ctx, "cash")
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())
}

func TestStore_UncommittedWritesAreInvisible(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		require.NoError(t, repos.Journals().SaveEntry(ctx, entry("e1", "JE-000001", time.Now())))

		_, err := s.Provider().JournalRepo.FindEntryByID(ctx, "e1")
		assert.ErrorIs(t, err, apperrors.ErrNotFound, "readers see committed state only")

		_, err = repos.Journals().FindEntryByID(ctx, "e1")
		assert.NoError(t, err, "the transaction sees its own writes")
		return nil
	})
	require.NoError(t, err)

	_, err = s.Provider().JournalRepo.FindEntryByID(ctx, "e1")
	assert.NoError(t, err)
}

func TestJournalRepository_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Provider().JournalRepo

	require.NoError(t, repo.SaveEntry(ctx, entry("e1", "JE-000001", time.Now())))
	err := repo.SaveEntry(ctx, entry("e2", "JE-000001", time.Now()))

	var nc apperrors.NumberingConflictError
	require.True(t, errors.As(err, &nc))
	assert.Equal(t, "JE-000001", nc.EntryNumber)
}

func TestJournalRepository_SearchOrderAndCursor(t *testing.T) {
	ctx := context.Background()
	p := NewStore().Provider()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, p.JournalRepo.SaveEntry(ctx, entry("e1", "JE-000001", day)))
	require.NoError(t, p.JournalRepo.SaveEntry(ctx, entry("e2", "JE-000002", day)))
	require.NoError(t, p.JournalRepo.SaveEntry(ctx, entry("e3", "JE-000003", day.AddDate(0, 0, 1))))
	require.NoError(t, p.JournalRepo.MarkReversed(ctx, "e1", "u", time.Now()))

	all, err := p.JournalRepo.SearchEntries(ctx, domain.JournalSearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"JE-000003", "JE-000002", "JE-000001"}, []string{all[0].EntryNumber, all[1].EntryNumber, all[2].EntryNumber})

	next, err := p.JournalRepo.SearchEntries(ctx, domain.JournalSearchFilter{
		After: &domain.JournalCursor{EntryDate: all[1].EntryDate, EntryNumber: all[1].EntryNumber},
	})
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "JE-000001", next[0].EntryNumber)

	reversed := true
	onlyReversed, err := p.JournalRepo.SearchEntries(ctx, domain.JournalSearchFilter{IsReversed: &reversed})
	require.NoError(t, err)
	require.Len(t, onlyReversed, 1)
	assert.Equal(t, "e1", onlyReversed[0].EntryID)

	byNumber, err := p.JournalRepo.SearchEntries(ctx, domain.JournalSearchFilter{NumberContains: "0002"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)

	require.NoError(t, p.JournalRepo.SaveEntry(ctx, entry("e4", "JE-9223372036854775807", day)))
	require.NoError(t, p.JournalRepo.SaveEntry(ctx, entry("e5", "JE-1234567890123456789012", day)))
	maxSeq, err := p.NumberingRepo.MaxSequence(ctx, "JE-")
	require.NoError(t, err)
	assert.Equal(t, int64(3), maxSeq, "numbers longer than the sequence ceiling are ignored")

	literal, err := p.JournalRepo.SearchEntries(ctx, domain.JournalSearchFilter{NumberContains: "JE_0"})
	require.NoError(t, err)
	assert.Empty(t, literal, "search terms are matched literally")
}

func TestSupplierLedgerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Provider().SupplierLedgerRepo

	balance, err := repo.LatestBalance(ctx, "sup-1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	require.NoError(t, repo.AppendEntry(ctx, domain.SupplierLedgerEntry{LedgerEntryID: "l1", SupplierID: "sup-1", Type: domain.SupplierCredit, Amount: decimal.NewFromInt(50), Balance: decimal.NewFromInt(50)}))
	require.NoError(t, repo.AppendEntry(ctx, domain.SupplierLedgerEntry{LedgerEntryID: "l2", SupplierID: "sup-1", Type: domain.SupplierDebit, Amount: decimal.NewFromInt(20), Balance: decimal.NewFromInt(30)}))

	balance, err = repo.LatestBalance(ctx, "sup-1")
	require.NoError(t, err)
	assert.Equal(t, "30.00", balance.StringFixed(2))

	entries, err := repo.ListEntries(ctx, "sup-1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "l2", entries[0].LedgerEntryID)

	require.NoError(t, repo.AppendEntry(ctx, domain.SupplierLedgerEntry{LedgerEntryID: "l3", SupplierID: "sup-2", Type: domain.SupplierCredit, Amount: decimal.NewFromInt(5), Balance: decimal.NewFromInt(5), TransactionID: "je-9"}))
	linked, err := repo.ListEntriesByTransaction(ctx, "je-9")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "l3", linked[0].LedgerEntryID)

	unlinked, err := repo.ListEntriesByTransaction(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, unlinked, "entries without a transaction are never linked")
}

func TestAuditRepository_WriteOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository()
	rec := domain.AuditLogRecord{AuditID: "a1", EntityType: "journal_entry", EntityID: "e1", Action: domain.ActionCreated}

	require.NoError(t, repo.InsertAuditLog(ctx, rec))
	assert.ErrorIs(t, repo.InsertAuditLog(ctx, rec), apperrors.ErrDuplicate)

	latest, err := repo.FindLatestAuditLog(ctx, domain.EntityRef{Type: "journal_entry", ID: "e1"}, domain.ActionCreated)
	require.NoError(t, err)
	assert.Equal(t, "a1", latest.AuditID)

	_, err = repo.FindLatestAuditLog(ctx, domain.EntityRef{Type: "journal_entry", ID: "e1"}, domain.ActionDeleted)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
