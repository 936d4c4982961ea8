package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/ledger_core/internal/adapters/database/memory"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/dto"
)

const testUser = "user-1"

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func debitLine(accountID, value string) dto.JournalItemRequest {
	return dto.JournalItemRequest{AccountID: accountID, Debit: amount(value), Credit: decimal.Zero}
}

func creditLine(accountID, value string) dto.JournalItemRequest {
	return dto.JournalItemRequest{AccountID: accountID, Debit: decimal.Zero, Credit: amount(value)}
}

// --- Mock LedgerEventPublisher ---
type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.LedgerEventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) PublishJournalEvent(ctx context.Context, eventType string, entry domain.JournalEntry) error {
	args := m.Called(ctx, eventType, entry)
	return args.Error(0)
}

// ledgerFixture wires services over a fresh in-memory store.
type ledgerFixture struct {
	store    *memory.Store
	repos    portsrepo.RepositoryProvider
	audit    *services.AuditService
	events   *MockEventPublisher
	poster   *services.LedgerPoster
	accounts portssvc.AccountSvcFacade
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Provider()
	audit, err := services.NewAuditService(repos.AuditRepo, 2, services.WithAuditClock(fixedClock))
	require.NoError(t, err)
	t.Cleanup(audit.Shutdown)

	events := new(MockEventPublisher)
	events.On("PublishJournalEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return &ledgerFixture{
		store:    store,
		repos:    repos,
		audit:    audit,
		events:   events,
		poster:   services.NewLedgerPoster(domain.DefaultEntryNumberFormat, 3),
		accounts: services.NewAccountService(repos.AccountRepo, repos.BankAccountRepo, services.WithAccountAudit(audit), services.WithAccountClock(fixedClock)),
	}
}

func (f *ledgerFixture) journal(repos portsrepo.RepositoryProvider) portssvc.JournalSvcFacade {
	return services.NewJournalService(repos, f.poster,
		services.WithJournalAudit(f.audit),
		services.WithJournalEvents(f.events),
		services.WithJournalClock(fixedClock))
}

func (f *ledgerFixture) createAccount(t *testing.T, code, name string, typ domain.AccountType) string {
	t.Helper()
	acc, err := f.accounts.CreateAccount(context.Background(), dto.CreateAccountRequest{
		Code: code, Name: name, AccountType: typ,
	}, testUser)
	require.NoError(t, err)
	return acc.AccountID
}

func (f *ledgerFixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	acc, err := f.repos.AccountRepo.FindAccountByID(context.Background(), accountID)
	require.NoError(t, err)
	return acc.Balance
}

// staleNumberingUoW hides the last issued numbers from the first staleCalls
// MaxSequence reads, so postings collide on numbers that are already taken.
type staleNumberingUoW struct {
	inner      portsrepo.UnitOfWork
	mu         sync.Mutex
	staleCalls int
	calls      int
}

func (u *staleNumberingUoW) WithTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.TxRepositories) error) error {
	return u.inner.WithTx(ctx, func(ctx context.Context, repos portsrepo.TxRepositories) error {
		return fn(ctx, staleTxRepos{TxRepositories: repos, u: u})
	})
}

func (u *staleNumberingUoW) stale() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	return u.staleCalls < 0 || u.calls <= u.staleCalls
}

type staleTxRepos struct {
	portsrepo.TxRepositories
	u *staleNumberingUoW
}

func (r staleTxRepos) Numbering() portsrepo.NumberingRepository {
	return staleNumbering{NumberingRepository: r.TxRepositories.Numbering(), u: r.u}
}

type staleNumbering struct {
	portsrepo.NumberingRepository
	u *staleNumberingUoW
}

func (n staleNumbering) MaxSequence(ctx context.Context, prefix string) (int64, error) {
	if n.u.stale() {
		return 0, nil
	}
	return n.NumberingRepository.MaxSequence(ctx, prefix)
}
