package pgsql

import (
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every repository to db. Reads outside a unit of work
// go straight to the pool.
func NewRepositoryProvider(db DB) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:        newPgxAccountRepository(db),
		JournalRepo:        newPgxJournalRepository(db),
		NumberingRepo:      newPgxNumberingRepository(db),
		BankAccountRepo:    newPgxBankAccountRepository(db),
		PaymentDraftRepo:   newPgxPaymentDraftRepository(db),
		SupplierLedgerRepo: newPgxSupplierLedgerRepository(db),
		AuditRepo:          NewAuditRepository(db),
		UnitOfWork:         NewUnitOfWork(db),
	}
}
