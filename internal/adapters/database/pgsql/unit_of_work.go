package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

// UnitOfWork runs work inside one PostgreSQL transaction.
type UnitOfWork struct {
	db DB
}

// NewUnitOfWork creates a UnitOfWork over db.
func NewUnitOfWork(db DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

var _ portsrepo.UnitOfWork = (*UnitOfWork)(nil)

// WithTx implements portsrepo.UnitOfWork. The transaction is rolled back when fn
// returns an error or panics.
func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.TxRepositories) error) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, txRepositories{q: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "Failed to roll back transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txRepositories binds every repository to the same transaction.
type txRepositories struct {
	q Querier
}

func (r txRepositories) Accounts() portsrepo.AccountRepositoryFacade {
	return newPgxAccountRepository(r.q)
}

func (r txRepositories) Journals() portsrepo.JournalRepositoryFacade {
	return newPgxJournalRepository(r.q)
}

func (r txRepositories) Numbering() portsrepo.NumberingRepository {
	return newPgxNumberingRepository(r.q)
}

func (r txRepositories) Payments() portsrepo.PaymentDraftRepositoryFacade {
	return newPgxPaymentDraftRepository(r.q)
}

func (r txRepositories) SupplierLedger() portsrepo.SupplierLedgerRepositoryFacade {
	return newPgxSupplierLedgerRepository(r.q)
}

func (r txRepositories) Banks() portsrepo.BankAccountRepositoryFacade {
	return newPgxBankAccountRepository(r.q)
}
