package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
)

// PostingInput is one journal entry to post.
type PostingInput struct {
	EntryNumber       string // empty assigns the next number
	Date              time.Time
	Description       string
	Items             []domain.JournalItem
	ReversalOfEntryID *string
	UserID            string
}

// Post validates in, locks the referenced accounts, assigns the entry number, persists
// the entry and moves every account balance by its signed effect. All writes go
// through tx, so a failure anywhere leaves the transaction to be rolled back.
func (p *LedgerPoster) Post(ctx context.Context, tx portsrepo.TxRepositories, in PostingInput, now time.Time) (*domain.JournalEntry, error) {
	totals, err := accounting.ValidateItems(in.Items)
	if err != nil {
		return nil, err
	}
	number := strings.TrimSpace(in.EntryNumber)
	if number != "" {
		if err := p.checkManualNumber(number); err != nil {
			return nil, err
		}
	}

	accountTypes, err := lockAccountTypes(ctx, tx.Accounts(), in.Items, nil)
	if err != nil {
		return nil, err
	}
	effects, err := accounting.BalanceEffects(in.Items, accountTypes)
	if err != nil {
		return nil, err
	}

	if number == "" {
		if number, err = p.assignNumber(ctx, tx.Numbering()); err != nil {
			return nil, err
		}
	}

	entryID := uuid.NewString()
	entry := domain.JournalEntry{
		EntryID:           entryID,
		EntryNumber:       number,
		EntryDate:         in.Date,
		Description:       in.Description,
		TotalDebit:        domain.RoundMoney(totals.Debit),
		TotalCredit:       domain.RoundMoney(totals.Credit),
		ReversalOfEntryID: in.ReversalOfEntryID,
		Items:             stampItems(entryID, in.Items),
		AuditFields:       domain.NewAuditFields(in.UserID, now),
	}

	if err := tx.Journals().SaveEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := tx.Accounts().ApplyBalanceChanges(ctx, effects, in.UserID, now); err != nil {
		return nil, fmt.Errorf("failed to apply balance changes for entry %s: %w", number, err)
	}
	return &entry, nil
}

// lockAccountTypes locks every account referenced by checked and existing and returns
// their types. Accounts of checked items must exist and be active.
func lockAccountTypes(ctx context.Context, repo portsrepo.AccountTransactionSupport, checked, existing []domain.JournalItem) (map[string]domain.AccountType, error) {
	ids := make([]string, 0, len(checked)+len(existing))
	seen := make(map[string]bool, cap(ids))
	for _, items := range [][]domain.JournalItem{checked, existing} {
		for _, it := range items {
			if !seen[it.AccountID] {
				seen[it.AccountID] = true
				ids = append(ids, it.AccountID)
			}
		}
	}

	accounts, err := repo.FindAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}

	types := make(map[string]domain.AccountType, len(accounts))
	for i, it := range checked {
		acc, ok := accounts[it.AccountID]
		if !ok {
			return nil, apperrors.UnknownAccountError{AccountID: it.AccountID}
		}
		if !acc.IsActive {
			return nil, apperrors.InvalidLineError{
				Index:     i,
				AccountID: it.AccountID,
				Debit:     it.Debit,
				Credit:    it.Credit,
				Reason:    "account is inactive",
			}
		}
	}
	for id, acc := range accounts {
		types[id] = acc.AccountType
	}
	return types, nil
}

// stampItems assigns fresh ids and the owning entry to items, rounding amounts.
func stampItems(entryID string, items []domain.JournalItem) []domain.JournalItem {
	out := make([]domain.JournalItem, len(items))
	for i, it := range items {
		it.ItemID = uuid.NewString()
		it.EntryID = entryID
		it.Debit = domain.RoundMoney(it.Debit)
		it.Credit = domain.RoundMoney(it.Credit)
		if it.LineNo == 0 {
			it.LineNo = i + 1
		}
		out[i] = it
	}
	return out
}

// mirrorItems returns the items of a reversing entry.
func mirrorItems(items []domain.JournalItem) []domain.JournalItem {
	out := make([]domain.JournalItem, len(items))
	for i, it := range items {
		out[i] = it.Mirror()
	}
	return out
}
