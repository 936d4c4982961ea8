package pgsql

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountRowColumns = []string{"account_id", "code", "name", "account_type", "sub_type", "description", "is_active", "balance",
	"created_at", "created_by", "last_updated_at", "last_updated_by"}

func TestAccountRepository_SaveAccount(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxAccountRepository(mock)
	acc := domain.Account{
		AccountID:   "acc-1",
		Code:        "1010",
		Name:        "Bank",
		AccountType: domain.Asset,
		IsActive:    true,
		Balance:     decimal.Zero,
		AuditFields: domain.NewAuditFields("user-1", testNow),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(sqlLike("INSERT INTO accounts")).
			WithArgs("acc-1", "1010", "Bank", "asset", "", "", true, dec("0"), testNow, "user-1", testNow, "user-1").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.SaveAccount(ctx, acc))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate code", func(t *testing.T) {
		mock.ExpectExec(sqlLike("INSERT INTO accounts")).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_code_key"})

		err := repo.SaveAccount(ctx, acc)
		assert.ErrorIs(t, err, apperrors.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_FindAccountByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxAccountRepository(mock)

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(accountRowColumns).
			AddRow("acc-1", "1010", "Bank", "asset", "current", "", true, "250.50", testNow, "user-1", testNow, "user-1")
		mock.ExpectQuery(sqlLike("FROM accounts WHERE account_id = $1")).WithArgs("acc-1").WillReturnRows(rows)

		acc, err := repo.FindAccountByID(ctx, "acc-1")
		require.NoError(t, err)
		assert.Equal(t, domain.Asset, acc.AccountType)
		assert.Equal(t, "current", acc.SubType)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("250.50")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(sqlLike("FROM accounts WHERE account_id = $1")).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		acc, err := repo.FindAccountByID(ctx, "missing")
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(sqlLike("FROM accounts WHERE account_id = $1")).WithArgs("acc-1").WillReturnError(dbErr)

		_, err := repo.FindAccountByID(ctx, "acc-1")
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to find account by ID")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_FindAccountsByIDsForUpdate(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxAccountRepository(mock)
	rows := pgxmock.NewRows(accountRowColumns).
		AddRow("acc-a", "1010", "Bank", "asset", "", "", true, "10.00", testNow, "u", testNow, "u")

	// Ids are deduplicated and sorted; missing accounts are simply absent.
	mock.ExpectQuery(sqlLike("FOR UPDATE")).WithArgs([]string{"acc-a", "acc-b"}).WillReturnRows(rows)

	accounts, err := repo.FindAccountsByIDsForUpdate(ctx, []string{"acc-b", "acc-a", "acc-b"})
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Contains(t, accounts, "acc-a")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ApplyBalanceChanges(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgxAccountRepository(mock)
	changes := map[string]decimal.Decimal{
		"acc-b": decimal.RequireFromString("-75.00"),
		"acc-a": decimal.RequireFromString("75.00"),
		"acc-c": decimal.Zero,
	}

	t.Run("updates in id order and skips zero deltas", func(t *testing.T) {
		mock.ExpectExec(sqlLike("UPDATE accounts")).WithArgs("acc-a", dec("75"), testNow, "user-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(sqlLike("UPDATE accounts")).WithArgs("acc-b", dec("-75"), testNow, "user-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.ApplyBalanceChanges(ctx, changes, "user-1", testNow))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		mock.ExpectExec(sqlLike("UPDATE accounts")).WithArgs("acc-a", dec("75"), testNow, "user-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.ApplyBalanceChanges(ctx, map[string]decimal.Decimal{"acc-a": decimal.RequireFromString("75")}, "user-1", testNow)
		var unknown apperrors.UnknownAccountError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "acc-a", unknown.AccountID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
