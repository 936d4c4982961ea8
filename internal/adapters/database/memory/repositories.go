package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountRepository is the in-memory chart of accounts.
type AccountRepository struct {
	v view
}

func (r *AccountRepository) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	var out *domain.Account
	err := r.v.read(func(d *ledgerData) error {
		acc, ok := d.accounts[accountID]
		if !ok {
			return apperrors.NewNotFoundError("account " + accountID)
		}
		out = &acc
		return nil
	})
	return out, err
}

func (r *AccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	var id string
	_ = r.v.read(func(d *ledgerData) error {
		id = d.accountCodes[code]
		return nil
	})
	if id == "" {
		return nil, apperrors.NewNotFoundError("account with code " + code)
	}
	return r.FindAccountByID(ctx, id)
}

func (r *AccountRepository) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	err := r.v.read(func(d *ledgerData) error {
		for _, id := range accountIDs {
			if acc, ok := d.accounts[id]; ok {
				out[id] = acc
			}
		}
		return nil
	})
	return out, err
}

// FindAccountsByIDsForUpdate needs no locking: transactions are already serialized.
func (r *AccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	return r.FindAccountsByIDs(ctx, accountIDs)
}

func (r *AccountRepository) ListAccounts(_ context.Context, limit int, offset int) ([]domain.Account, error) {
	var out []domain.Account
	err := r.v.read(func(d *ledgerData) error {
		for _, acc := range d.accounts {
			out = append(out, acc)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, limit, offset), err
}

func (r *AccountRepository) SaveAccount(_ context.Context, account domain.Account) error {
	return r.v.write(func(d *ledgerData) error {
		if _, taken := d.accountCodes[account.Code]; taken {
			return fmt.Errorf("account code %s: %w", account.Code, apperrors.ErrDuplicate)
		}
		d.accounts[account.AccountID] = account
		d.accountCodes[account.Code] = account.AccountID
		return nil
	})
}

func (r *AccountRepository) ApplyBalanceChanges(_ context.Context, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	return r.v.write(func(d *ledgerData) error {
		for id, delta := range balanceChanges {
			acc, ok := d.accounts[id]
			if !ok {
				return apperrors.UnknownAccountError{AccountID: id}
			}
			acc.Balance = acc.Balance.Add(delta)
			acc.Touch(userID, now)
			d.accounts[id] = acc
		}
		return nil
	})
}

// JournalRepository is the in-memory journal.
type JournalRepository struct {
	v view
}

func (r *JournalRepository) FindEntryByID(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	var out *domain.JournalEntry
	err := r.v.read(func(d *ledgerData) error {
		e, ok := d.entries[entryID]
		if !ok {
			return apperrors.NewNotFoundError("journal entry " + entryID)
		}
		e.Items = append([]domain.JournalItem(nil), e.Items...)
		out = &e
		return nil
	})
	return out, err
}

func (r *JournalRepository) FindEntryByIDForUpdate(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.FindEntryByID(ctx, entryID)
}

func (r *JournalRepository) SearchEntries(_ context.Context, filter domain.JournalSearchFilter) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	_ = r.v.read(func(d *ledgerData) error {
		for _, e := range d.entries {
			if matches(e, filter) {
				e.Items = append([]domain.JournalItem(nil), e.Items...)
				out = append(out, e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return newerThan(out[i].EntryDate, out[i].EntryNumber, out[j].EntryDate, out[j].EntryNumber) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func newerThan(dateA time.Time, numA string, dateB time.Time, numB string) bool {
	if !dateA.Equal(dateB) {
		return dateA.After(dateB)
	}
	return numA > numB
}

func matches(e domain.JournalEntry, f domain.JournalSearchFilter) bool {
	if f.NumberContains != "" && !strings.Contains(strings.ToLower(e.EntryNumber), strings.ToLower(f.NumberContains)) {
		return false
	}
	if f.Description != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.Description)) {
		return false
	}
	if f.DateFrom != nil && e.EntryDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.EntryDate.After(*f.DateTo) {
		return false
	}
	if f.IsReversed != nil && e.IsReversed != *f.IsReversed {
		return false
	}
	if f.After != nil && !newerThan(f.After.EntryDate, f.After.EntryNumber, e.EntryDate, e.EntryNumber) {
		return false
	}
	return true
}

func (r *JournalRepository) SaveEntry(_ context.Context, entry domain.JournalEntry) error {
	return r.v.write(func(d *ledgerData) error {
		if _, taken := d.entryNumbers[entry.EntryNumber]; taken {
			return apperrors.NumberingConflictError{EntryNumber: entry.EntryNumber}
		}
		if _, exists := d.entries[entry.EntryID]; exists {
			return fmt.Errorf("journal entry %s: %w", entry.EntryID, apperrors.ErrDuplicate)
		}
		entry.Items = append([]domain.JournalItem(nil), entry.Items...)
		d.entries[entry.EntryID] = entry
		d.entryNumbers[entry.EntryNumber] = entry.EntryID
		return nil
	})
}

func (r *JournalRepository) UpdateEntryHeader(_ context.Context, entry domain.JournalEntry) error {
	return r.v.write(func(d *ledgerData) error {
		current, ok := d.entries[entry.EntryID]
		if !ok {
			return apperrors.NewNotFoundError("journal entry " + entry.EntryID)
		}
		current.EntryDate = entry.EntryDate
		current.Description = entry.Description
		current.TotalDebit = entry.TotalDebit
		current.TotalCredit = entry.TotalCredit
		current.LastUpdatedAt = entry.LastUpdatedAt
		current.LastUpdatedBy = entry.LastUpdatedBy
		d.entries[entry.EntryID] = current
		return nil
	})
}

func (r *JournalRepository) ReplaceItems(_ context.Context, entryID string, items []domain.JournalItem) error {
	return r.v.write(func(d *ledgerData) error {
		current, ok := d.entries[entryID]
		if !ok {
			return apperrors.NewNotFoundError("journal entry " + entryID)
		}
		current.Items = append([]domain.JournalItem(nil), items...)
		d.entries[entryID] = current
		return nil
	})
}

func (r *JournalRepository) DeleteEntry(_ context.Context, entryID string) error {
	return r.v.write(func(d *ledgerData) error {
		current, ok := d.entries[entryID]
		if !ok {
			return apperrors.NewNotFoundError("journal entry " + entryID)
		}
		delete(d.entries, entryID)
		delete(d.entryNumbers, current.EntryNumber)
		return nil
	})
}

func (r *JournalRepository) MarkReversed(_ context.Context, entryID string, userID string, now time.Time) error {
	return r.v.write(func(d *ledgerData) error {
		current, ok := d.entries[entryID]
		if !ok {
			return apperrors.NewNotFoundError("journal entry " + entryID)
		}
		current.IsReversed = true
		current.Touch(userID, now)
		d.entries[entryID] = current
		return nil
	})
}

// NumberingRepository derives sequence values from issued entry numbers.
type NumberingRepository struct {
	v view
}

// LockSequence is a no-op: transactions are already serialized.
func (r *NumberingRepository) LockSequence(context.Context) error { return nil }

func (r *NumberingRepository) MaxSequence(_ context.Context, prefix string) (int64, error) {
	format := domain.EntryNumberFormat{Prefix: prefix}
	var maxSeq int64
	err := r.v.read(func(d *ledgerData) error {
		for number := range d.entryNumbers {
			if seq, ok := format.Parse(number); ok && seq > maxSeq {
				maxSeq = seq
			}
		}
		return nil
	})
	return maxSeq, err
}

// BankAccountRepository stores bank accounts in memory.
type BankAccountRepository struct {
	v view
}

func (r *BankAccountRepository) SaveBankAccount(_ context.Context, bank domain.BankAccount) error {
	return r.v.write(func(d *ledgerData) error {
		if _, exists := d.banks[bank.BankAccountID]; exists {
			return fmt.Errorf("bank account %s: %w", bank.BankAccountID, apperrors.ErrDuplicate)
		}
		d.banks[bank.BankAccountID] = bank
		return nil
	})
}

func (r *BankAccountRepository) FindBankAccountByID(_ context.Context, bankAccountID string) (*domain.BankAccount, error) {
	var out *domain.BankAccount
	err := r.v.read(func(d *ledgerData) error {
		b, ok := d.banks[bankAccountID]
		if !ok {
			return apperrors.NewNotFoundError("bank account " + bankAccountID)
		}
		out = &b
		return nil
	})
	return out, err
}

// PaymentDraftRepository stores payment drafts in memory.
type PaymentDraftRepository struct {
	v view
}

func (r *PaymentDraftRepository) FindDraftByID(_ context.Context, draftID string) (*domain.PaymentDraft, error) {
	var out *domain.PaymentDraft
	err := r.v.read(func(d *ledgerData) error {
		draft, ok := d.drafts[draftID]
		if !ok {
			return apperrors.NewNotFoundError("payment draft " + draftID)
		}
		out = &draft
		return nil
	})
	return out, err
}

func (r *PaymentDraftRepository) FindDraftByIDForUpdate(ctx context.Context, draftID string) (*domain.PaymentDraft, error) {
	return r.FindDraftByID(ctx, draftID)
}

func (r *PaymentDraftRepository) FindSettlementByEntryID(_ context.Context, entryID string) (*domain.PaymentDraft, error) {
	var out *domain.PaymentDraft
	err := r.v.read(func(d *ledgerData) error {
		for _, draft := range d.drafts {
			if draft.Status == domain.DraftStatusPosted && draft.JournalEntryID != nil && *draft.JournalEntryID == entryID {
				out = &draft
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *PaymentDraftRepository) SaveDraft(_ context.Context, draft domain.PaymentDraft) error {
	return r.v.write(func(d *ledgerData) error {
		if _, exists := d.drafts[draft.DraftID]; exists {
			return fmt.Errorf("payment draft %s: %w", draft.DraftID, apperrors.ErrDuplicate)
		}
		d.drafts[draft.DraftID] = draft
		return nil
	})
}

func (r *PaymentDraftRepository) UpdateDraftStatus(_ context.Context, draft domain.PaymentDraft) error {
	return r.v.write(func(d *ledgerData) error {
		current, ok := d.drafts[draft.DraftID]
		if !ok {
			return apperrors.NewNotFoundError("payment draft " + draft.DraftID)
		}
		current.Status = draft.Status
		current.JournalEntryID = draft.JournalEntryID
		current.RejectionReason = draft.RejectionReason
		current.LastUpdatedAt = draft.LastUpdatedAt
		current.LastUpdatedBy = draft.LastUpdatedBy
		d.drafts[draft.DraftID] = current
		return nil
	})
}

// SupplierLedgerRepository is the in-memory supplier credit ledger.
type SupplierLedgerRepository struct {
	v view
}

// LockSupplier is a no-op: transactions are already serialized.
func (r *SupplierLedgerRepository) LockSupplier(context.Context, string) error { return nil }

func (r *SupplierLedgerRepository) LatestBalance(_ context.Context, supplierID string) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := r.v.read(func(d *ledgerData) error {
		if entries := d.supplierLedger[supplierID]; len(entries) > 0 {
			balance = entries[len(entries)-1].Balance
		}
		return nil
	})
	return balance, err
}

func (r *SupplierLedgerRepository) AppendEntry(_ context.Context, entry domain.SupplierLedgerEntry) error {
	return r.v.write(func(d *ledgerData) error {
		d.supplierLedger[entry.SupplierID] = append(d.supplierLedger[entry.SupplierID], entry)
		return nil
	})
}

func (r *SupplierLedgerRepository) ListEntriesByTransaction(_ context.Context, transactionID string) ([]domain.SupplierLedgerEntry, error) {
	var out []domain.SupplierLedgerEntry
	err := r.v.read(func(d *ledgerData) error {
		for _, entries := range d.supplierLedger {
			for _, e := range entries {
				if transactionID != "" && e.TransactionID == transactionID {
					out = append(out, e)
				}
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *SupplierLedgerRepository) ListEntries(_ context.Context, supplierID string, limit int) ([]domain.SupplierLedgerEntry, error) {
	var out []domain.SupplierLedgerEntry
	err := r.v.read(func(d *ledgerData) error {
		entries := d.supplierLedger[supplierID]
		for i := len(entries) - 1; i >= 0; i-- {
			out = append(out, entries[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// AuditRepository is an append-only in-memory audit store.
type AuditRepository struct {
	mu      sync.RWMutex
	records []domain.AuditLogRecord
}

// NewAuditRepository creates an empty audit store.
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) InsertAuditLog(_ context.Context, record domain.AuditLogRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.AuditID == record.AuditID {
			return fmt.Errorf("audit record %s: %w", record.AuditID, apperrors.ErrDuplicate)
		}
	}
	r.records = append(r.records, record)
	return nil
}

func (r *AuditRepository) FindAuditLogs(_ context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.AuditLogRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if filter.EntityType != "" && rec.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && rec.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && rec.Action != filter.Action {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *AuditRepository) FindLatestAuditLog(ctx context.Context, ref domain.EntityRef, action domain.AuditAction) (*domain.AuditLogRecord, error) {
	records, _ := r.FindAuditLogs(ctx, domain.AuditLogFilter{EntityType: ref.Type, EntityID: ref.ID, Action: action, Limit: 1})
	if len(records) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s audit record for %s %s", action, ref.Type, ref.ID))
	}
	return &records[0], nil
}

func (r *AuditRepository) ConnectionName() string { return "memory" }

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
