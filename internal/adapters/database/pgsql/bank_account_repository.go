package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxBankAccountRepository struct {
	BaseRepository
}

func newPgxBankAccountRepository(db Querier) *PgxBankAccountRepository {
	return &PgxBankAccountRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.BankAccountRepositoryFacade = (*PgxBankAccountRepository)(nil)

func (r *PgxBankAccountRepository) SaveBankAccount(ctx context.Context, bank domain.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (bank_account_id, name, account_number, chart_account_id,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.db.Exec(ctx, query,
		bank.BankAccountID,
		bank.Name,
		bank.AccountNumber,
		nullableString(bank.ChartAccountID),
		bank.CreatedAt,
		bank.CreatedBy,
		bank.LastUpdatedAt,
		bank.LastUpdatedBy,
	)
	if err != nil {
		if uniqueViolationOn(err, "") {
			return fmt.Errorf("bank account %s: %w", bank.BankAccountID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert bank account %s: %w", bank.BankAccountID, err)
	}
	return nil
}

func (r *PgxBankAccountRepository) FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	query := `
		SELECT bank_account_id, name, account_number, chart_account_id,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM bank_accounts
		WHERE bank_account_id = $1;
	`
	var bank domain.BankAccount
	var chartAccountID sql.NullString
	err := r.db.QueryRow(ctx, query, bankAccountID).Scan(
		&bank.BankAccountID,
		&bank.Name,
		&bank.AccountNumber,
		&chartAccountID,
		&bank.CreatedAt,
		&bank.CreatedBy,
		&bank.LastUpdatedAt,
		&bank.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("bank account " + bankAccountID)
		}
		return nil, fmt.Errorf("failed to find bank account %s: %w", bankAccountID, err)
	}
	if chartAccountID.Valid {
		bank.ChartAccountID = &chartAccountID.String
	}
	return &bank, nil
}
