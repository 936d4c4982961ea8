package services_test

import (
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

func (s *JournalServiceTestSuite) TestReverse_EndToEndScenario() {
	original, err := s.svc.PostJournalEntry(s.ctx, s.sale("500"), testUser)
	s.Require().NoError(err)
	s.Equal("JE-000001", original.EntryNumber)
	s.True(s.f.balance(s.T(), s.cash).Equal(amount("500")))
	s.True(s.f.balance(s.T(), s.revenue).Equal(amount("500")))

	reversal, err := s.svc.ReverseJournalEntry(s.ctx, original.EntryID, dto.ReverseJournalEntryRequest{Reason: "duplicate"}, testUser)
	s.Require().NoError(err)

	s.Equal("JE-000002", reversal.EntryNumber)
	s.Equal("Reversed original transaction. Reason: duplicate", reversal.Description)
	s.Require().NotNil(reversal.ReversalOfEntryID)
	s.Equal(original.EntryID, *reversal.ReversalOfEntryID)
	s.Require().Len(reversal.Items, 2)
	for i, it := range reversal.Items {
		src := original.Items[i]
		s.Equal(src.AccountID, it.AccountID)
		s.True(it.Debit.Equal(src.Credit))
		s.True(it.Credit.Equal(src.Debit))
	}

	stored, err := s.svc.GetJournalEntryByID(s.ctx, original.EntryID)
	s.Require().NoError(err)
	s.True(stored.IsReversed)
	s.True(s.f.balance(s.T(), s.cash).IsZero())
	s.True(s.f.balance(s.T(), s.revenue).IsZero())

	_, err = s.svc.UpdateJournalEntry(s.ctx, original.EntryID, dto.UpdateJournalEntryRequest{
		Items: []dto.JournalItemRequest{debitLine(s.cash, "1"), creditLine(s.revenue, "1")},
	}, testUser)
	var immutable apperrors.ImmutableEntryError
	s.Require().ErrorAs(err, &immutable)
	s.Equal(original.EntryID, immutable.EntryID)
	s.ErrorIs(err, apperrors.ErrConflict)

	s.f.events.AssertCalled(s.T(), "PublishJournalEvent", mock.Anything, "journal.reversed", mock.Anything)
}

func (s *JournalServiceTestSuite) TestReverse_AuditLinksToCreationRecord() {
	original, err := s.svc.PostJournalEntry(s.ctx, s.sale("20"), testUser)
	s.Require().NoError(err)
	reversal, err := s.svc.ReverseJournalEntry(s.ctx, original.EntryID, dto.ReverseJournalEntryRequest{Reason: "typo"}, "user-9")
	s.Require().NoError(err)

	created, err := s.f.audit.FindLatest(s.ctx, original.AuditRef(), domain.ActionCreated)
	s.Require().NoError(err)
	reversed, err := s.f.audit.FindLatest(s.ctx, original.AuditRef(), domain.ActionReversed)
	s.Require().NoError(err)

	s.Require().NotNil(reversed.OriginalAuditID)
	s.Equal(created.AuditID, *reversed.OriginalAuditID)
	s.Require().NotNil(reversed.ReversalReason)
	s.Equal("typo", *reversed.ReversalReason)
	s.Equal("user-9", reversed.PerformedBy)
	s.Equal(reversal.EntryNumber, reversed.Metadata["reversal_entry_number"])
	s.Equal("journal_entries", reversed.Metadata["table"])
	s.Equal("memory", reversed.Metadata["connection"])

	_, err = s.f.audit.FindLatest(s.ctx, reversal.AuditRef(), domain.ActionCreated)
	s.NoError(err)
}

func (s *JournalServiceTestSuite) TestReverse_Twice() {
	original, err := s.svc.PostJournalEntry(s.ctx, s.sale("20"), testUser)
	s.Require().NoError(err)
	_, err = s.svc.ReverseJournalEntry(s.ctx, original.EntryID, dto.ReverseJournalEntryRequest{Reason: "first"}, testUser)
	s.Require().NoError(err)

	_, err = s.svc.ReverseJournalEntry(s.ctx, original.EntryID, dto.ReverseJournalEntryRequest{Reason: "second"}, testUser)
	var already apperrors.AlreadyReversedError
	s.Require().ErrorAs(err, &already)
	s.Equal(original.EntryID, already.EntryID)

	next, err := s.svc.NextEntryNumber(s.ctx)
	s.Require().NoError(err)
	s.Equal("JE-000003", next)
}

func (s *JournalServiceTestSuite) TestReverse_MirrorEntryIsImmutable() {
	original, err := s.svc.PostJournalEntry(s.ctx, s.sale("20"), testUser)
	s.Require().NoError(err)
	reversal, err := s.svc.ReverseJournalEntry(s.ctx, original.EntryID, dto.ReverseJournalEntryRequest{Reason: "dup"}, testUser)
	s.Require().NoError(err)

	_, err = s.svc.ReverseJournalEntry(s.ctx, reversal.EntryID, dto.ReverseJournalEntryRequest{Reason: "undo"}, testUser)
	s.ErrorAs(err, new(apperrors.ImmutableEntryError))

	err = s.svc.DeleteJournalEntry(s.ctx, reversal.EntryID, testUser)
	s.ErrorAs(err, new(apperrors.ImmutableEntryError))

	err = s.svc.DeleteJournalEntry(s.ctx, original.EntryID, testUser)
	s.ErrorAs(err, new(apperrors.ImmutableEntryError))
}

func (s *JournalServiceTestSuite) TestReverse_RequiresReason() {
	original, err := s.svc.PostJournalEntry(s.ctx, s.sale("20"), testUser)
	s.Require().NoError(err)

	_, err = s.svc.ReverseJournalEntry(s.ctx, original.EntryID, dto.ReverseJournalEntryRequest{Reason: "  "}, testUser)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *JournalServiceTestSuite) TestReverse_NotFound() {
	_, err := s.svc.ReverseJournalEntry(s.ctx, "missing", dto.ReverseJournalEntryRequest{Reason: "x"}, testUser)
	s.ErrorIs(err, apperrors.ErrNotFound)
}
