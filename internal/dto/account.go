package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code        string             `json:"code" binding:"required,max=32"`
	Name        string             `json:"name" binding:"required,max=255"`
	AccountType domain.AccountType `json:"type" binding:"required,oneof=asset liability equity revenue expense"`
	SubType     string             `json:"sub_type" binding:"max=64"`
	Description string             `json:"description"`
}

// ListAccountsParams defines the query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID     string             `json:"id"`
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	AccountType   domain.AccountType `json:"type"`
	SubType       string             `json:"sub_type"`
	Description   string             `json:"description"`
	IsActive      bool               `json:"is_active"`
	Balance       decimal.Decimal    `json:"balance"`
	CreatedAt     time.Time          `json:"created_at"`
	CreatedBy     string             `json:"created_by"`
	LastUpdatedAt time.Time          `json:"last_updated_at"`
	LastUpdatedBy string             `json:"last_updated_by"`
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		Code:          acc.Code,
		Name:          acc.Name,
		AccountType:   acc.AccountType,
		SubType:       acc.SubType,
		Description:   acc.Description,
		IsActive:      acc.IsActive,
		Balance:       acc.Balance,
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
		LastUpdatedAt: acc.LastUpdatedAt,
		LastUpdatedBy: acc.LastUpdatedBy,
	}
}

// ToListAccountsResponse converts a slice of accounts.
func ToListAccountsResponse(accounts []domain.Account) ListAccountsResponse {
	list := make([]AccountResponse, len(accounts))
	for i := range accounts {
		list[i] = ToAccountResponse(&accounts[i])
	}
	return ListAccountsResponse{Accounts: list}
}

// CreateBankAccountRequest defines the data needed to register a bank account.
type CreateBankAccountRequest struct {
	Name           string  `json:"name" binding:"required,max=255"`
	AccountNumber  string  `json:"account_number" binding:"required,max=64"`
	ChartAccountID *string `json:"chart_account_id"`
}

// BankAccountResponse defines the data returned for a bank account.
type BankAccountResponse struct {
	BankAccountID  string    `json:"id"`
	Name           string    `json:"name"`
	AccountNumber  string    `json:"account_number"`
	ChartAccountID *string   `json:"chart_account_id"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
}

// ToBankAccountResponse converts a domain.BankAccount.
func ToBankAccountResponse(b *domain.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		BankAccountID:  b.BankAccountID,
		Name:           b.Name,
		AccountNumber:  b.AccountNumber,
		ChartAccountID: b.ChartAccountID,
		CreatedAt:      b.CreatedAt,
		CreatedBy:      b.CreatedBy,
	}
}
