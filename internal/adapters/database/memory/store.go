// Package memory provides an in-memory ledger store for tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

// ledgerData is one consistent version of the ledger state.
type ledgerData struct {
	accounts       map[string]domain.Account
	accountCodes   map[string]string // code -> account id
	entries        map[string]domain.JournalEntry
	entryNumbers   map[string]string // entry number -> entry id
	banks          map[string]domain.BankAccount
	drafts         map[string]domain.PaymentDraft
	supplierLedger map[string][]domain.SupplierLedgerEntry // oldest first
}

func newLedgerData() *ledgerData {
	return &ledgerData{
		accounts:       make(map[string]domain.Account),
		accountCodes:   make(map[string]string),
		entries:        make(map[string]domain.JournalEntry),
		entryNumbers:   make(map[string]string),
		banks:          make(map[string]domain.BankAccount),
		drafts:         make(map[string]domain.PaymentDraft),
		supplierLedger: make(map[string][]domain.SupplierLedgerEntry),
	}
}

func (d *ledgerData) clone() *ledgerData {
	c := newLedgerData()
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.accountCodes {
		c.accountCodes[k] = v
	}
	for k, v := range d.entries {
		v.Items = append([]domain.JournalItem(nil), v.Items...)
		c.entries[k] = v
	}
	for k, v := range d.entryNumbers {
		c.entryNumbers[k] = v
	}
	for k, v := range d.banks {
		c.banks[k] = v
	}
	for k, v := range d.drafts {
		c.drafts[k] = v
	}
	for k, v := range d.supplierLedger {
		c.supplierLedger[k] = append([]domain.SupplierLedgerEntry(nil), v...)
	}
	return c
}

// Store keeps the ledger in memory. Transactions are serialized and run against a
// private copy that replaces the committed state on success, so readers never
// observe uncommitted writes and a failed transaction leaves nothing behind.
type Store struct {
	txMu  sync.Mutex   // one transaction at a time
	mu    sync.RWMutex // guards data
	data  *ledgerData
	audit *AuditRepository
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data:  newLedgerData(),
		audit: NewAuditRepository(),
	}
}

// WithTx implements repositories.UnitOfWork.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repositories.TxRepositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, txRepos{v: view{s: s, tx: working}}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	return nil
}

// Provider returns repositories reading committed state, with the store as unit of work.
func (s *Store) Provider() repositories.RepositoryProvider {
	v := view{s: s}
	return repositories.RepositoryProvider{
		AccountRepo:        &AccountRepository{v: v},
		JournalRepo:        &JournalRepository{v: v},
		NumberingRepo:      &NumberingRepository{v: v},
		BankAccountRepo:    &BankAccountRepository{v: v},
		PaymentDraftRepo:   &PaymentDraftRepository{v: v},
		SupplierLedgerRepo: &SupplierLedgerRepository{v: v},
		AuditRepo:          s.audit,
		UnitOfWork:         s,
	}
}

// view resolves which ledger version a repository operates on.
type view struct {
	s  *Store
	tx *ledgerData // nil outside a transaction
}

func (v view) read(fn func(d *ledgerData) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return fn(v.s.data)
}

// write applies fn to the transaction copy, or to a fresh copy committed on success.
func (v view) write(fn func(d *ledgerData) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.txMu.Lock()
	defer v.s.txMu.Unlock()
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	working := v.s.data.clone()
	if err := fn(working); err != nil {
		return err
	}
	v.s.data = working
	return nil
}

type txRepos struct {
	v view
}

func (r txRepos) Accounts() repositories.AccountRepositoryFacade { return &AccountRepository{v: r.v} }

func (r txRepos) Journals() repositories.JournalRepositoryFacade { return &JournalRepository{v: r.v} }

func (r txRepos) Numbering() repositories.NumberingRepository { return &NumberingRepository{v: r.v} }

func (r txRepos) Payments() repositories.PaymentDraftRepositoryFacade {
	return &PaymentDraftRepository{v: r.v}
}

func (r txRepos) SupplierLedger() repositories.SupplierLedgerRepositoryFacade {
	return &SupplierLedgerRepository{v: r.v}
}

func (r txRepos) Banks() repositories.BankAccountRepositoryFacade { return &BankAccountRepository{v: r.v} }

var (
	_ repositories.UnitOfWork     = (*Store)(nil)
	_ repositories.TxRepositories = txRepos{}
)
