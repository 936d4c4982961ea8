package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the request conflicts with the current state of a resource.
var ErrConflict = errors.New("conflict with current state")

// ErrUnauthorized indicates that the caller could not be authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInternal indicates an unexpected infrastructure failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates a 404 AppError wrapping ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// UnbalancedEntryError is returned when the debit and credit totals of an entry differ.
type UnbalancedEntryError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced entry: total debit %s does not equal total credit %s",
		e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

func (e UnbalancedEntryError) Unwrap() error { return ErrValidation }

// InvalidLineError is returned when a journal line does not carry exactly one positive side,
// or when an entry has too few lines (Index is -1 in that case).
type InvalidLineError struct {
	Index     int
	AccountID string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Reason    string
}

func (e InvalidLineError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid journal lines: %s", e.Reason)
	}
	return fmt.Sprintf("invalid journal line %d (account %s, debit %s, credit %s): %s",
		e.Index, e.AccountID, e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Reason)
}

func (e InvalidLineError) Unwrap() error { return ErrValidation }

// UnknownAccountError is returned when a line references an account that does not exist.
type UnknownAccountError struct {
	AccountID string
}

func (e UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %s", e.AccountID)
}

func (e UnknownAccountError) Unwrap() error { return ErrValidation }

// ImmutableEntryError is returned when a reversed (or reversing) entry is edited, deleted or reversed.
type ImmutableEntryError struct {
	EntryID string
	Reason  string
}

func (e ImmutableEntryError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("journal entry %s is immutable", e.EntryID)
	}
	return fmt.Sprintf("journal entry %s is immutable: %s", e.EntryID, e.Reason)
}

func (e ImmutableEntryError) Unwrap() error { return ErrConflict }

// AlreadyReversedError is returned when reversal is attempted on an entry that was already reversed.
type AlreadyReversedError struct {
	EntryID string
}

func (e AlreadyReversedError) Error() string {
	return fmt.Sprintf("journal entry %s has already been reversed", e.EntryID)
}

func (e AlreadyReversedError) Unwrap() error { return ErrConflict }

// InvalidEntryNumberError is returned when a caller chosen entry number cannot be used.
type InvalidEntryNumberError struct {
	EntryNumber string
	Reason      string
}

func (e InvalidEntryNumberError) Error() string {
	return fmt.Sprintf("invalid entry number %s: %s", e.EntryNumber, e.Reason)
}

func (e InvalidEntryNumberError) Unwrap() error { return ErrValidation }

// EntryInUseError is returned when editing or deleting an entry that a payment settlement
// or a supplier ledger movement still references. Such entries can only be reversed.
type EntryInUseError struct {
	EntryID       string
	DraftID       string
	LedgerEntryID string
}

func (e EntryInUseError) Error() string {
	if e.DraftID == "" {
		return fmt.Sprintf("journal entry %s is referenced by supplier ledger entry %s", e.EntryID, e.LedgerEntryID)
	}
	return fmt.Sprintf("journal entry %s is referenced by payment settlement %s", e.EntryID, e.DraftID)
}

func (e EntryInUseError) Unwrap() error { return ErrConflict }

// MissingChartOfAccountLinkError is returned when a bank account has no linked posting account.
type MissingChartOfAccountLinkError struct {
	BankAccountID string
}

func (e MissingChartOfAccountLinkError) Error() string {
	return fmt.Sprintf("bank account %s has no linked chart-of-account entry for posting", e.BankAccountID)
}

func (e MissingChartOfAccountLinkError) Unwrap() error { return ErrValidation }

// NumberingConflictError is returned when an entry number was already taken. It is transient
// for auto-assigned numbers.
type NumberingConflictError struct {
	EntryNumber string
	Attempts    int
}

func (e NumberingConflictError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("entry number %s conflicted after %d attempts", e.EntryNumber, e.Attempts)
	}
	return fmt.Sprintf("entry number %s is already in use", e.EntryNumber)
}

func (e NumberingConflictError) Unwrap() error { return ErrConflict }

// InvalidTransitionError is returned when a payment draft is moved along a transition the
// state machine does not allow.
type InvalidTransitionError struct {
	DraftID string
	From    string
	To      string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("payment draft %s cannot move from %s to %s", e.DraftID, e.From, e.To)
}

func (e InvalidTransitionError) Unwrap() error { return ErrConflict }

// IsNumberingConflict reports whether err is (or wraps) a NumberingConflictError.
func IsNumberingConflict(err error) bool {
	var nc NumberingConflictError
	return errors.As(err, &nc)
}
