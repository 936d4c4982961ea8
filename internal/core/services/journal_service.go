package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
	"github.com/SscSPs/ledger_core/internal/utils/pagination"
)

// Ledger event types published after commit.
const (
	EventJournalPosted   = "journal.posted"
	EventJournalUpdated  = "journal.updated"
	EventJournalDeleted  = "journal.deleted"
	EventJournalReversed = "journal.reversed"
)

const defaultSearchLimit = 20

// journalService provides core journal posting, editing and reversal.
type journalService struct {
	BaseService
	journalRepo   portsrepo.JournalReader
	numberingRepo portsrepo.NumberingRepository
	uow           portsrepo.UnitOfWork
	poster        *LedgerPoster
	audit         portssvc.AuditSvcFacade
	events        portssvc.LedgerEventPublisher
}

// JournalServiceOption is a functional option for configuring the journal service
type JournalServiceOption func(*journalService)

// WithJournalAudit records every committed change in the audit trail.
func WithJournalAudit(audit portssvc.AuditSvcFacade) JournalServiceOption {
	return func(s *journalService) {
		s.audit = audit
	}
}

// WithJournalEvents publishes every committed change.
func WithJournalEvents(events portssvc.LedgerEventPublisher) JournalServiceOption {
	return func(s *journalService) {
		s.events = events
	}
}

// WithJournalClock replaces the clock used for entry dates and audit stamps.
func WithJournalClock(now func() time.Time) JournalServiceOption {
	return func(s *journalService) {
		s.now = now
	}
}

// NewJournalService creates a new JournalService.
func NewJournalService(repos portsrepo.RepositoryProvider, poster *LedgerPoster, options ...JournalServiceOption) portssvc.JournalSvcFacade {
	svc := &journalService{
		journalRepo:   repos.JournalRepo,
		numberingRepo: repos.NumberingRepo,
		uow:           repos.UnitOfWork,
		poster:        poster,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// PostJournalEntry implements portssvc.JournalWriterSvc
func (s *journalService) PostJournalEntry(ctx context.Context, req dto.CreateJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	date := s.Now()
	if req.Date != nil {
		date = *req.Date
	}
	in := PostingInput{
		EntryNumber: req.EntryNumber,
		Date:        date,
		Description: req.Description,
		Items:       dto.ToItems(req.Items),
		UserID:      userID,
	}

	var posted *domain.JournalEntry
	err := s.poster.WithNumberingRetry(ctx, in.EntryNumber == "", func() error {
		return s.uow.WithTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
			entry, err := s.poster.Post(ctx, tx, in, s.Now())
			if err != nil {
				return err
			}
			posted = entry
			return nil
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to post journal entry",
			slog.String("entry_number", in.EntryNumber),
			slog.String("user_id", userID))
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", posted.EntryID),
		slog.String("entry_number", posted.EntryNumber),
		slog.String("total", posted.TotalDebit.StringFixed(domain.MoneyScale)))
	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionCreated,
		Entity:      *posted,
		Description: "Journal entry posted",
		PerformedBy: userID,
	})
	s.publish(ctx, EventJournalPosted, *posted)
	return posted, nil
}

// UpdateJournalEntry implements portssvc.JournalWriterSvc
func (s *journalService) UpdateJournalEntry(ctx context.Context, entryID string, req dto.UpdateJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	items := dto.ToItems(req.Items)

	var previous, updated domain.JournalEntry
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		current, err := tx.Journals().FindEntryByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if reason := current.CheckMutable(); reason != "" {
			return apperrors.ImmutableEntryError{EntryID: current.EntryID, Reason: reason}
		}
		links, err := loadEntryLinks(ctx, tx, current.EntryID)
		if err != nil {
			return err
		}
		if err := links.inUse(current.EntryID); err != nil {
			return err
		}

		totals, err := accounting.ValidateItems(items)
		if err != nil {
			return err
		}
		accountTypes, err := lockAccountTypes(ctx, tx.Accounts(), items, current.Items)
		if err != nil {
			return err
		}
		oldEffects, err := accounting.BalanceEffects(current.Items, accountTypes)
		if err != nil {
			return err
		}
		newEffects, err := accounting.BalanceEffects(items, accountTypes)
		if err != nil {
			return err
		}

		now := s.Now()
		next := *current
		next.Items = stampItems(current.EntryID, items)
		next.TotalDebit = domain.RoundMoney(totals.Debit)
		next.TotalCredit = domain.RoundMoney(totals.Credit)
		if req.Date != nil {
			next.EntryDate = *req.Date
		}
		if req.Description != nil {
			next.Description = *req.Description
		}
		next.Touch(userID, now)

		if err := tx.Journals().UpdateEntryHeader(ctx, next); err != nil {
			return err
		}
		if err := tx.Journals().ReplaceItems(ctx, next.EntryID, next.Items); err != nil {
			return err
		}
		if err := tx.Accounts().ApplyBalanceChanges(ctx, accounting.NetEffects(oldEffects, newEffects), userID, now); err != nil {
			return fmt.Errorf("failed to adjust balances for entry %s: %w", current.EntryNumber, err)
		}

		previous, updated = *current, next
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionUpdated,
		Entity:      updated,
		Previous:    previous,
		Description: "Journal entry items replaced",
		PerformedBy: userID,
	})
	s.publish(ctx, EventJournalUpdated, updated)
	return &updated, nil
}

// DeleteJournalEntry implements portssvc.JournalWriterSvc
func (s *journalService) DeleteJournalEntry(ctx context.Context, entryID string, userID string) error {
	var deleted domain.JournalEntry
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		current, err := tx.Journals().FindEntryByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if reason := current.CheckMutable(); reason != "" {
			return apperrors.ImmutableEntryError{EntryID: current.EntryID, Reason: reason}
		}

		links, err := loadEntryLinks(ctx, tx, current.EntryID)
		if err != nil {
			return err
		}
		if err := links.inUse(current.EntryID); err != nil {
			return err
		}

		accountTypes, err := lockAccountTypes(ctx, tx.Accounts(), nil, current.Items)
		if err != nil {
			return err
		}
		effects, err := accounting.BalanceEffects(current.Items, accountTypes)
		if err != nil {
			return err
		}

		if err := tx.Journals().DeleteEntry(ctx, current.EntryID); err != nil {
			return err
		}
		if err := tx.Accounts().ApplyBalanceChanges(ctx, accounting.NegateEffects(effects), userID, s.Now()); err != nil {
			return fmt.Errorf("failed to revert balances for entry %s: %w", current.EntryNumber, err)
		}
		deleted = *current
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete journal entry", slog.String("entry_id", entryID))
		return err
	}

	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionDeleted,
		Entity:      deleted,
		Description: "Journal entry deleted",
		PerformedBy: userID,
	})
	s.publish(ctx, EventJournalDeleted, deleted)
	return nil
}

// GetJournalEntryByID implements portssvc.JournalReaderSvc
func (s *journalService) GetJournalEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SearchJournalEntries implements portssvc.JournalReaderSvc
func (s *journalService) SearchJournalEntries(ctx context.Context, params dto.SearchJournalEntriesParams) ([]domain.JournalEntry, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	cursor, err := pagination.DecodeJournalCursor(params.NextToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid next_token: %v", apperrors.ErrValidation, err)
	}

	filter := domain.JournalSearchFilter{
		NumberContains: params.Number,
		Description:    params.Description,
		DateFrom:       params.DateFrom,
		IsReversed:     params.IsReversed,
		Limit:          limit + 1,
		After:          cursor,
	}
	if params.DateTo != nil {
		// date_to names a whole day
		endOfDay := params.DateTo.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.DateTo = &endOfDay
	}

	entries, err := s.journalRepo.SearchEntries(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to search journal entries")
		return nil, nil, err
	}

	var nextToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		token := pagination.EncodeJournalCursor(entries[limit-1])
		nextToken = &token
	}
	return entries, nextToken, nil
}

// NextEntryNumber implements portssvc.JournalReaderSvc
func (s *journalService) NextEntryNumber(ctx context.Context) (string, error) {
	return s.poster.NextNumber(ctx, s.numberingRepo)
}

// record writes an audit record for a committed change. The change already stands,
// so a failure is only logged.
func (s *journalService) record(ctx context.Context, ev portssvc.AuditEvent) *domain.AuditLogRecord {
	if s.audit == nil {
		return nil
	}
	rec, err := s.audit.Log(ctx, ev)
	if err != nil {
		ref := ev.Entity.AuditRef()
		s.LogError(ctx, err, "Failed to write audit record",
			slog.String("entity_type", ref.Type),
			slog.String("entity_id", ref.ID),
			slog.String("action", string(ev.Action)))
		return nil
	}
	return rec
}

func (s *journalService) publish(ctx context.Context, eventType string, entry domain.JournalEntry) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJournalEvent(ctx, eventType, entry); err != nil {
		s.LogError(ctx, err, "Failed to publish ledger event",
			slog.String("event_type", eventType),
			slog.String("entry_id", entry.EntryID))
	}
}
