package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
)

const defaultSupplierLedgerLimit = 50

// PaymentAccounts names the chart accounts payment postings land on.
type PaymentAccounts struct {
	PayableCode         string // credited when an obligation arises, debited on payment
	SupplierAdvanceCode string // prepaid supplier credit
}

// paymentService turns purchase-order payments into drafts and, on approval, postings.
type paymentService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	bankRepo    portsrepo.BankAccountRepositoryFacade
	draftRepo   portsrepo.PaymentDraftReader
	ledgerRepo  portsrepo.SupplierLedgerRepositoryFacade
	uow         portsrepo.UnitOfWork
	poster      *LedgerPoster
	accounts    PaymentAccounts
	audit       portssvc.AuditSvcFacade
	events      portssvc.LedgerEventPublisher
}

// PaymentServiceOption is a functional option for configuring the payment service
type PaymentServiceOption func(*paymentService)

// WithPaymentAudit records draft lifecycle changes in the audit trail.
func WithPaymentAudit(audit portssvc.AuditSvcFacade) PaymentServiceOption {
	return func(s *paymentService) {
		s.audit = audit
	}
}

// WithPaymentEvents publishes the entries posted on approval.
func WithPaymentEvents(events portssvc.LedgerEventPublisher) PaymentServiceOption {
	return func(s *paymentService) {
		s.events = events
	}
}

// WithPaymentClock replaces the clock used for postings and stamps.
func WithPaymentClock(now func() time.Time) PaymentServiceOption {
	return func(s *paymentService) {
		s.now = now
	}
}

// NewPaymentService creates a new payment service.
func NewPaymentService(repos portsrepo.RepositoryProvider, poster *LedgerPoster, accounts PaymentAccounts, options ...PaymentServiceOption) portssvc.PaymentSvcFacade {
	svc := &paymentService{
		accountRepo: repos.AccountRepo,
		bankRepo:    repos.BankAccountRepo,
		draftRepo:   repos.PaymentDraftRepo,
		ledgerRepo:  repos.SupplierLedgerRepo,
		uow:         repos.UnitOfWork,
		poster:      poster,
		accounts:    accounts,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// PreviewPayment implements portssvc.PaymentSvcFacade
func (s *paymentService) PreviewPayment(_ context.Context, req dto.PaymentPreviewRequest) (*dto.PaymentPreviewResponse, error) {
	breakdown := accounting.CalculatePaymentBreakdown(req.TotalDue, req.SupplierCredit)
	return &dto.PaymentPreviewResponse{
		Breakdown:   breakdown,
		Bank:        accounting.ValidatePayment(req.BankBalance, breakdown.FromBank),
		Description: accounting.GenerateDescription(req.Reference, breakdown),
	}, nil
}

// ProcessPayment implements portssvc.PaymentSvcFacade
func (s *paymentService) ProcessPayment(ctx context.Context, req dto.ProcessPaymentRequest, userID string) (*dto.ProcessPaymentResponse, error) {
	if !req.TotalDue.IsPositive() {
		return nil, fmt.Errorf("%w: total_due must be positive", apperrors.ErrValidation)
	}

	credit, err := s.supplierCredit(ctx, req)
	if err != nil {
		return nil, err
	}
	breakdown := accounting.CalculatePaymentBreakdown(req.TotalDue, credit)
	description := accounting.GenerateDescription(req.Reference, breakdown)

	var bankCheck *domain.PaymentValidation
	if breakdown.FromBank.IsPositive() {
		check, err := s.checkBank(ctx, req, breakdown.FromBank)
		if err != nil {
			return nil, err
		}
		bankCheck = check
	}

	now := s.Now()
	newDraft := func(source domain.PaymentSource, amount decimal.Decimal, bankAccountID *string) domain.PaymentDraft {
		return domain.PaymentDraft{
			DraftID:         uuid.NewString(),
			PurchaseOrderID: req.PurchaseOrderID,
			Reference:       req.Reference,
			SupplierID:      req.SupplierID,
			Source:          source,
			BankAccountID:   bankAccountID,
			Amount:          amount,
			Description:     description,
			Status:          domain.DraftStatusDraft,
			AuditFields:     domain.NewAuditFields(userID, now),
		}
	}

	var drafts []domain.PaymentDraft
	if breakdown.FromCredit.IsPositive() {
		drafts = append(drafts, newDraft(domain.SourceWallet, breakdown.FromCredit, nil))
	}
	if breakdown.FromBank.IsPositive() {
		bankID := req.BankAccountID
		drafts = append(drafts, newDraft(domain.SourceBank, breakdown.FromBank, &bankID))
	}

	err = s.uow.WithTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		for i := range drafts {
			if err := tx.Payments().SaveDraft(ctx, drafts[i]); err != nil {
				return fmt.Errorf("failed to save payment draft: %w", err)
			}
			drafts[i].Status = domain.DraftStatusPendingApproval
			if err := tx.Payments().UpdateDraftStatus(ctx, drafts[i]); err != nil {
				return fmt.Errorf("failed to submit payment draft: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create payment drafts",
			slog.String("purchase_order_id", req.PurchaseOrderID),
			slog.String("reference", req.Reference))
		return nil, err
	}

	for _, d := range drafts {
		s.record(ctx, portssvc.AuditEvent{
			Action:      domain.ActionCreated,
			Entity:      d,
			Description: description,
			PerformedBy: userID,
			Metadata:    map[string]string{"purchase_order_id": d.PurchaseOrderID},
		})
	}
	s.LogInfo(ctx, "Payment drafts created",
		slog.String("reference", req.Reference),
		slog.Int("drafts", len(drafts)),
		slog.String("from_credit", breakdown.FromCredit.StringFixed(domain.MoneyScale)),
		slog.String("from_bank", breakdown.FromBank.StringFixed(domain.MoneyScale)))

	return &dto.ProcessPaymentResponse{
		Breakdown:   breakdown,
		Description: description,
		Bank:        bankCheck,
		Drafts:      dto.ToPaymentDraftResponses(drafts),
	}, nil
}

// supplierCredit is the caller-supplied credit balance, or the supplier ledger's.
func (s *paymentService) supplierCredit(ctx context.Context, req dto.ProcessPaymentRequest) (decimal.Decimal, error) {
	if req.SupplierCredit != nil {
		return *req.SupplierCredit, nil
	}
	balance, err := s.ledgerRepo.LatestBalance(ctx, req.SupplierID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read supplier credit: %w", err)
	}
	return balance, nil
}

// checkBank verifies the bank can be posted to and projects its balance. Overdrafts
// only produce a warning.
func (s *paymentService) checkBank(ctx context.Context, req dto.ProcessPaymentRequest, amount decimal.Decimal) (*domain.PaymentValidation, error) {
	if req.BankAccountID == "" {
		return nil, fmt.Errorf("%w: bank_account_id is required when part of the payment is funded from bank", apperrors.ErrValidation)
	}
	bank, err := s.bankRepo.FindBankAccountByID(ctx, req.BankAccountID)
	if err != nil {
		return nil, err
	}
	chartID, ok := bank.PostingAccountID()
	if !ok {
		return nil, apperrors.MissingChartOfAccountLinkError{BankAccountID: bank.BankAccountID}
	}

	var current decimal.Decimal
	if req.BankBalance != nil {
		current = *req.BankBalance
	} else {
		linked, err := s.accountRepo.FindAccountByID(ctx, chartID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bank posting account: %w", err)
		}
		current = linked.Balance
	}

	check := accounting.ValidatePayment(current, amount)
	if check.Warning != "" {
		s.LogWarn(ctx, check.Warning,
			slog.String("bank_account_id", bank.BankAccountID),
			slog.String("final_balance", check.Balance.Final.StringFixed(domain.MoneyScale)))
	}
	return &check, nil
}

// ApproveDraft implements portssvc.PaymentSvcFacade
func (s *paymentService) ApproveDraft(ctx context.Context, draftID string, userID string) (*domain.PaymentDraft, error) {
	var previous, approved domain.PaymentDraft
	var posted *domain.JournalEntry
	err := s.poster.WithNumberingRetry(ctx, true, func() error {
		return s.uow.WithTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
			draft, err := tx.Payments().FindDraftByIDForUpdate(ctx, draftID)
			if err != nil {
				return err
			}
			if !draft.Status.CanTransition(domain.DraftStatusPosted) {
				return apperrors.InvalidTransitionError{
					DraftID: draft.DraftID, From: string(draft.Status), To: string(domain.DraftStatusPosted),
				}
			}
			previous = *draft

			now := s.Now()
			var entry *domain.JournalEntry
			switch draft.Source {
			case domain.SourceBank:
				entry, err = s.deductFromBank(ctx, tx, *draft, userID, now)
			case domain.SourceWallet:
				entry, err = s.deductSupplierCredit(ctx, tx, *draft, userID, now)
			default:
				err = fmt.Errorf("%w: unknown payment source %q", apperrors.ErrValidation, draft.Source)
			}
			if err != nil {
				return err
			}

			draft.Status = domain.DraftStatusPosted
			if entry != nil {
				entryID := entry.EntryID
				draft.JournalEntryID = &entryID
			}
			draft.Touch(userID, now)
			if err := tx.Payments().UpdateDraftStatus(ctx, *draft); err != nil {
				return fmt.Errorf("failed to mark draft posted: %w", err)
			}

			approved, posted = *draft, entry
			return nil
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to approve payment draft", slog.String("draft_id", draftID))
		return nil, err
	}

	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionApproved,
		Entity:      approved,
		Previous:    previous,
		Description: "Payment draft approved and posted",
		PerformedBy: userID,
	})
	if posted != nil {
		s.record(ctx, portssvc.AuditEvent{
			Action:      domain.ActionCreated,
			Entity:      *posted,
			Description: approved.Description,
			PerformedBy: userID,
			Metadata:    map[string]string{"payment_draft_id": approved.DraftID},
		})
		s.publish(ctx, *posted)
	}
	return &approved, nil
}

// deductFromBank posts payable debit against the bank's linked account. Non-positive
// amounts post nothing.
func (s *paymentService) deductFromBank(ctx context.Context, tx portsrepo.TxRepositories, draft domain.PaymentDraft, userID string, now time.Time) (*domain.JournalEntry, error) {
	if !draft.Amount.IsPositive() {
		return nil, nil
	}
	if draft.BankAccountID == nil {
		return nil, apperrors.MissingChartOfAccountLinkError{BankAccountID: ""}
	}
	bank, err := tx.Banks().FindBankAccountByID(ctx, *draft.BankAccountID)
	if err != nil {
		return nil, err
	}
	chartID, ok := bank.PostingAccountID()
	if !ok {
		return nil, apperrors.MissingChartOfAccountLinkError{BankAccountID: bank.BankAccountID}
	}
	payable, err := s.accountByCode(ctx, tx, s.accounts.PayableCode)
	if err != nil {
		return nil, err
	}
	return s.poster.Post(ctx, tx, paymentPosting(draft, payable.AccountID, chartID, userID, now), now)
}

// deductSupplierCredit posts payable debit against the supplier advance account and
// appends the matching debit to the supplier ledger. Non-positive amounts post nothing.
func (s *paymentService) deductSupplierCredit(ctx context.Context, tx portsrepo.TxRepositories, draft domain.PaymentDraft, userID string, now time.Time) (*domain.JournalEntry, error) {
	if !draft.Amount.IsPositive() {
		return nil, nil
	}
	payable, err := s.accountByCode(ctx, tx, s.accounts.PayableCode)
	if err != nil {
		return nil, err
	}
	advance, err := s.accountByCode(ctx, tx, s.accounts.SupplierAdvanceCode)
	if err != nil {
		return nil, err
	}

	entry, err := s.poster.Post(ctx, tx, paymentPosting(draft, payable.AccountID, advance.AccountID, userID, now), now)
	if err != nil {
		return nil, err
	}
	if _, err := appendSupplierLedger(ctx, tx, draft.SupplierID, domain.SupplierDebit, draft.Amount, entry.EntryID, draft.Description, userID, now); err != nil {
		return nil, err
	}
	return entry, nil
}

func paymentPosting(draft domain.PaymentDraft, payableID, fundingID, userID string, now time.Time) PostingInput {
	amount := domain.RoundMoney(draft.Amount)
	items := []domain.JournalItem{
		{AccountID: payableID, Debit: amount, Credit: decimal.Zero, Memo: draft.Reference, LineNo: 1},
		{AccountID: fundingID, Debit: decimal.Zero, Credit: amount, Memo: draft.Reference, LineNo: 2},
	}
	return PostingInput{
		Date:        now,
		Description: draft.Description,
		Items:       items,
		UserID:      userID,
	}
}

func (s *paymentService) accountByCode(ctx context.Context, tx portsrepo.TxRepositories, code string) (*domain.Account, error) {
	acc, err := tx.Accounts().FindAccountByCode(ctx, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.UnknownAccountError{AccountID: code}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", code, err)
	}
	return acc, nil
}

// RejectDraft implements portssvc.PaymentSvcFacade
func (s *paymentService) RejectDraft(ctx context.Context, draftID string, reason string, userID string) (*domain.PaymentDraft, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", apperrors.ErrValidation)
	}

	var previous, rejected domain.PaymentDraft
	err := s.uow.WithTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		draft, err := tx.Payments().FindDraftByIDForUpdate(ctx, draftID)
		if err != nil {
			return err
		}
		if !draft.Status.CanTransition(domain.DraftStatusRejected) {
			return apperrors.InvalidTransitionError{
				DraftID: draft.DraftID, From: string(draft.Status), To: string(domain.DraftStatusRejected),
			}
		}
		previous = *draft
		draft.Status = domain.DraftStatusRejected
		draft.RejectionReason = reason
		draft.Touch(userID, s.Now())
		if err := tx.Payments().UpdateDraftStatus(ctx, *draft); err != nil {
			return fmt.Errorf("failed to mark draft rejected: %w", err)
		}
		rejected = *draft
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reject payment draft", slog.String("draft_id", draftID))
		return nil, err
	}

	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionRejected,
		Entity:      rejected,
		Previous:    previous,
		Description: "Payment draft rejected: " + reason,
		PerformedBy: userID,
	})
	return &rejected, nil
}

// GetDraftByID implements portssvc.PaymentSvcFacade
func (s *paymentService) GetDraftByID(ctx context.Context, draftID string) (*domain.PaymentDraft, error) {
	return s.draftRepo.FindDraftByID(ctx, draftID)
}

// TopUpSupplierCredit implements portssvc.PaymentSvcFacade. The credit is posted as
// supplier advance debit against the funding account (the given bank's linked account,
// or payable when none is given) and booked on the supplier ledger under that entry.
func (s *paymentService) TopUpSupplierCredit(ctx context.Context, supplierID string, req dto.TopUpSupplierCreditRequest, userID string) (*domain.SupplierLedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: top-up amount must be positive", apperrors.ErrValidation)
	}

	var entry *domain.SupplierLedgerEntry
	var posted *domain.JournalEntry
	err := s.poster.WithNumberingRetry(ctx, true, func() error {
		return s.uow.WithTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
			fundingID, err := s.topUpFunding(ctx, tx, req.BankAccountID)
			if err != nil {
				return err
			}
			advance, err := s.accountByCode(ctx, tx, s.accounts.SupplierAdvanceCode)
			if err != nil {
				return err
			}

			now := s.Now()
			value := domain.RoundMoney(req.Amount)
			journal, err := s.poster.Post(ctx, tx, PostingInput{
				Date:        now,
				Description: "Supplier credit top-up: " + req.Reason,
				Items: []domain.JournalItem{
					{AccountID: advance.AccountID, Debit: value, Credit: decimal.Zero, Memo: supplierID, LineNo: 1},
					{AccountID: fundingID, Debit: decimal.Zero, Credit: value, Memo: supplierID, LineNo: 2},
				},
				UserID: userID,
			}, now)
			if err != nil {
				return err
			}
			appended, err := appendSupplierLedger(ctx, tx, supplierID, domain.SupplierCredit, value, journal.EntryID, req.Reason, userID, now)
			if err != nil {
				return err
			}
			entry, posted = appended, journal
			return nil
		})
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to top up supplier credit", slog.String("supplier_id", supplierID))
		return nil, err
	}

	s.LogInfo(ctx, "Supplier credit topped up",
		slog.String("supplier_id", supplierID),
		slog.String("entry_number", posted.EntryNumber),
		slog.String("amount", entry.Amount.StringFixed(domain.MoneyScale)),
		slog.String("balance", entry.Balance.StringFixed(domain.MoneyScale)))
	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionCreated,
		Entity:      *posted,
		Description: posted.Description,
		PerformedBy: userID,
		Metadata:    map[string]string{"supplier_id": supplierID, "supplier_ledger_entry_id": entry.LedgerEntryID},
	})
	s.publish(ctx, *posted)
	return entry, nil
}

// topUpFunding resolves the account a top-up is credited to.
func (s *paymentService) topUpFunding(ctx context.Context, tx portsrepo.TxRepositories, bankAccountID *string) (string, error) {
	if bankAccountID == nil || strings.TrimSpace(*bankAccountID) == "" {
		payable, err := s.accountByCode(ctx, tx, s.accounts.PayableCode)
		if err != nil {
			return "", err
		}
		return payable.AccountID, nil
	}
	bank, err := tx.Banks().FindBankAccountByID(ctx, *bankAccountID)
	if err != nil {
		return "", err
	}
	chartID, ok := bank.PostingAccountID()
	if !ok {
		return "", apperrors.MissingChartOfAccountLinkError{BankAccountID: bank.BankAccountID}
	}
	return chartID, nil
}

// GetSupplierLedger implements portssvc.PaymentSvcFacade
func (s *paymentService) GetSupplierLedger(ctx context.Context, supplierID string, limit int) (*dto.SupplierLedgerResponse, error) {
	if limit <= 0 {
		limit = defaultSupplierLedgerLimit
	}
	balance, err := s.ledgerRepo.LatestBalance(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to read supplier balance: %w", err)
	}
	entries, err := s.ledgerRepo.ListEntries(ctx, supplierID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier ledger: %w", err)
	}
	resp := dto.ToSupplierLedgerResponse(supplierID, balance, entries)
	return &resp, nil
}

func (s *paymentService) record(ctx context.Context, ev portssvc.AuditEvent) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Log(ctx, ev); err != nil {
		s.LogError(ctx, err, "Failed to write audit record",
			slog.String("entity_id", ev.Entity.AuditRef().ID),
			slog.String("action", string(ev.Action)))
	}
}

func (s *paymentService) publish(ctx context.Context, entry domain.JournalEntry) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJournalEvent(ctx, EventJournalPosted, entry); err != nil {
		s.LogError(ctx, err, "Failed to publish ledger event", slog.String("entry_id", entry.EntryID))
	}
}
