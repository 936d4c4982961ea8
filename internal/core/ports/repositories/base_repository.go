package repositories

import (
	"context"
)

// TxRepositories gives access to repositories bound to a single transaction.
type TxRepositories interface {
	Accounts() AccountRepositoryFacade
	Journals() JournalRepositoryFacade
	Numbering() NumberingRepository
	Payments() PaymentDraftRepositoryFacade
	SupplierLedger() SupplierLedgerRepositoryFacade
	Banks() BankAccountRepositoryFacade
}

// UnitOfWork runs fn inside one atomic transaction. The transaction commits when fn
// returns nil and rolls back otherwise, leaving no partial writes.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
