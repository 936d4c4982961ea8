package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// ReverseJournalEntry implements portssvc.JournalWriterSvc
func (s *journalService) ReverseJournalEntry(ctx context.Context, entryID string, req dto.ReverseJournalEntryRequest, userID string) (*domain.JournalEntry, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reversal reason is required", apperrors.ErrValidation)
	}

	var original, reversal domain.JournalEntry
	var draftBefore, draftAfter *domain.PaymentDraft
	err := s.poster.WithNumberingRetry(ctx, true, func() error {
		return s.uow.WithTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
			current, err := tx.Journals().FindEntryByIDForUpdate(ctx, entryID)
			if err != nil {
				return err
			}
			if current.IsReversed {
				return apperrors.AlreadyReversedError{EntryID: current.EntryID}
			}
			if current.IsReversal() {
				return apperrors.ImmutableEntryError{EntryID: current.EntryID, Reason: current.CheckMutable()}
			}

			links, err := loadEntryLinks(ctx, tx, current.EntryID)
			if err != nil {
				return err
			}

			now := s.Now()
			date := now
			if req.Date != nil {
				date = *req.Date
			}
			originalID := current.EntryID
			mirror, err := s.poster.Post(ctx, tx, PostingInput{
				Date:              date,
				Description:       domain.ReversalDescription(reason),
				Items:             mirrorItems(current.Items),
				ReversalOfEntryID: &originalID,
				UserID:            userID,
			}, now)
			if err != nil {
				return err
			}

			if err := tx.Journals().MarkReversed(ctx, current.EntryID, userID, now); err != nil {
				return fmt.Errorf("failed to flag entry %s as reversed: %w", current.EntryNumber, err)
			}
			current.IsReversed = true
			current.Touch(userID, now)

			draftBefore, draftAfter, err = links.unwind(ctx, tx, *current, *mirror, reason, userID, now)
			if err != nil {
				return err
			}
			original, reversal = *current, *mirror
			return nil
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse journal entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", original.EntryID),
		slog.String("entry_number", original.EntryNumber),
		slog.String("reversal_entry_number", reversal.EntryNumber))
	s.recordReversal(ctx, original, reversal, reason, userID)
	if draftAfter != nil {
		s.record(ctx, portssvc.AuditEvent{
			Action:      domain.ActionReversed,
			Entity:      *draftAfter,
			Previous:    *draftBefore,
			Description: "Payment settlement reversed: " + reason,
			PerformedBy: userID,
			Metadata:    map[string]string{"reversal_entry_id": reversal.EntryID},
		})
	}
	s.publish(ctx, EventJournalReversed, reversal)
	return &reversal, nil
}

// recordReversal links the reversed audit record to the original's creation record
// and records the mirror entry itself.
func (s *journalService) recordReversal(ctx context.Context, original, reversal domain.JournalEntry, reason, userID string) {
	if s.audit == nil {
		return
	}

	var originalAuditID *string
	created, err := s.audit.FindLatest(ctx, original.AuditRef(), domain.ActionCreated)
	switch {
	case err == nil:
		originalAuditID = &created.AuditID
	case errors.Is(err, apperrors.ErrNotFound):
		s.LogDebug(ctx, "No creation audit record for reversed entry", slog.String("entry_id", original.EntryID))
	default:
		s.LogError(ctx, err, "Failed to look up creation audit record", slog.String("entry_id", original.EntryID))
	}

	s.record(ctx, portssvc.AuditEvent{
		Action:          domain.ActionReversed,
		Entity:          original,
		Description:     domain.ReversalDescription(reason),
		PerformedBy:     userID,
		OriginalAuditID: originalAuditID,
		ReversalReason:  &reason,
		Metadata: map[string]string{
			"reversal_entry_id":     reversal.EntryID,
			"reversal_entry_number": reversal.EntryNumber,
		},
	})
	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionCreated,
		Entity:      reversal,
		Description: "Reversal entry posted for " + original.EntryNumber,
		PerformedBy: userID,
	})
}
