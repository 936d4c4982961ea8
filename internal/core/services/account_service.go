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
)

const (
	defaultAccountListLimit = 100
	maxAccountListLimit     = 200
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	bankRepo    portsrepo.BankAccountRepositoryFacade
	audit       portssvc.AuditSvcFacade
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithAccountAudit records account and bank account creation in the audit trail.
func WithAccountAudit(audit portssvc.AuditSvcFacade) AccountServiceOption {
	return func(s *accountService) {
		s.audit = audit
	}
}

// WithAccountClock replaces the clock used for audit stamps.
func WithAccountClock(now func() time.Time) AccountServiceOption {
	return func(s *accountService) {
		s.now = now
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, bankRepo portsrepo.BankAccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: accountRepo,
		bankRepo:    bankRepo,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}
	accountType := domain.AccountType(strings.ToLower(string(req.AccountType)))
	if !accountType.IsValid() {
		return nil, fmt.Errorf("%w: invalid account type %q", apperrors.ErrValidation, req.AccountType)
	}

	account := domain.Account{
		AccountID:   uuid.NewString(),
		Code:        code,
		Name:        req.Name,
		AccountType: accountType,
		SubType:     req.SubType,
		Description: req.Description,
		IsActive:    true,
		Balance:     decimal.Zero,
		AuditFields: domain.NewAuditFields(userID, s.Now()),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account",
			slog.String("code", account.Code),
			slog.String("user_id", userID))
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.LogInfo(ctx, "Account created",
		slog.String("account_id", account.AccountID),
		slog.String("code", account.Code))
	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionCreated,
		Entity:      account,
		Description: "Account created",
		PerformedBy: userID,
	})
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, accountID)
}

func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByCode(ctx, code)
}

func (s *accountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = defaultAccountListLimit
	}
	if limit > maxAccountListLimit {
		limit = maxAccountListLimit
	}
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) CreateBankAccount(ctx context.Context, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	bank := domain.BankAccount{
		BankAccountID: uuid.NewString(),
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		AuditFields:   domain.NewAuditFields(userID, s.Now()),
	}

	if req.ChartAccountID != nil && *req.ChartAccountID != "" {
		linked, err := s.accountRepo.FindAccountByID(ctx, *req.ChartAccountID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.UnknownAccountError{AccountID: *req.ChartAccountID}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load linked account: %w", err)
		}
		if linked.AccountType != domain.Asset {
			return nil, fmt.Errorf("%w: bank accounts must link to an asset account, %s is %s",
				apperrors.ErrValidation, linked.Code, linked.AccountType)
		}
		chartID := linked.AccountID
		bank.ChartAccountID = &chartID
	}

	if err := s.bankRepo.SaveBankAccount(ctx, bank); err != nil {
		s.LogError(ctx, err, "Failed to save bank account", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to save bank account: %w", err)
	}

	s.record(ctx, portssvc.AuditEvent{
		Action:      domain.ActionCreated,
		Entity:      bank,
		Description: "Bank account registered",
		PerformedBy: userID,
	})
	return &bank, nil
}

func (s *accountService) GetBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	return s.bankRepo.FindBankAccountByID(ctx, bankAccountID)
}

func (s *accountService) record(ctx context.Context, ev portssvc.AuditEvent) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Log(ctx, ev); err != nil {
		s.LogError(ctx, err, "Failed to write audit record",
			slog.String("entity_id", ev.Entity.AuditRef().ID),
			slog.String("action", string(ev.Action)))
	}
}
