package services

import (
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// The returned AuditService must be shut down after the HTTP server stops.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, events portssvc.LedgerEventPublisher) (*portssvc.ServiceContainer, *AuditService, error) {
	audit, err := NewAuditService(repos.AuditRepo, cfg.AuditWorkers)
	if err != nil {
		return nil, nil, err
	}

	poster := NewLedgerPoster(domain.EntryNumberFormat{
		Prefix: cfg.EntryNumberPrefix,
		Width:  cfg.EntryNumberWidth,
	}, cfg.NumberingMaxRetries)

	accounts := PaymentAccounts{
		PayableCode:         cfg.PayableAccountCode,
		SupplierAdvanceCode: cfg.SupplierAdvanceAccountCode,
	}

	container := &portssvc.ServiceContainer{
		Audit:   audit,
		Account: NewAccountService(repos.AccountRepo, repos.BankAccountRepo, WithAccountAudit(audit)),
		Journal: NewJournalService(repos, poster, WithJournalAudit(audit), WithJournalEvents(events)),
		Payment: NewPaymentService(repos, poster, accounts, WithPaymentAudit(audit), WithPaymentEvents(events)),
	}
	return container, audit, nil
}
