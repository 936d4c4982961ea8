package accounting

import (
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceTolerance returns the smallest debit/credit difference treated as unbalanced.
func BalanceTolerance() decimal.Decimal {
	return decimal.New(1, -domain.MoneyScale)
}

// MinItems is the minimum number of items of a journal entry.
const MinItems = 2

// CalculateSignedAmount returns the effect of an item on the balance of an account of the given type.
// This is used in both services and repositories to ensure consistent accounting logic.
func CalculateSignedAmount(item domain.JournalItem, accountType domain.AccountType) (decimal.Decimal, error) {
	// DEBIT to ASSET/EXPENSE -> Positive (+)
	// CREDIT to ASSET/EXPENSE -> Negative (-)
	// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
	// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
	net := item.Debit.Sub(item.Credit)
	switch accountType {
	case domain.Asset, domain.Expense:
		return net, nil
	case domain.Liability, domain.Equity, domain.Revenue:
		return net.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, item.AccountID)
	}
}

// Totals are the summed sides of a set of items.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// ValidateItems checks line shape, precision and balance, and returns the totals.
func ValidateItems(items []domain.JournalItem) (Totals, error) {
	if len(items) < MinItems {
		return Totals{}, apperrors.InvalidLineError{
			Index:  -1,
			Reason: fmt.Sprintf("a journal entry needs at least %d items, got %d", MinItems, len(items)),
		}
	}

	totals := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	for i, it := range items {
		if reason := lineShapeError(it); reason != "" {
			return Totals{}, apperrors.InvalidLineError{
				Index: i, AccountID: it.AccountID, Debit: it.Debit, Credit: it.Credit, Reason: reason,
			}
		}
		totals.Debit = totals.Debit.Add(it.Debit)
		totals.Credit = totals.Credit.Add(it.Credit)
	}

	if totals.Debit.Sub(totals.Credit).Abs().GreaterThanOrEqual(BalanceTolerance()) {
		return Totals{}, apperrors.UnbalancedEntryError{Debit: totals.Debit, Credit: totals.Credit}
	}
	return totals, nil
}

func lineShapeError(it domain.JournalItem) string {
	switch {
	case it.AccountID == "":
		return "account is required"
	case it.Debit.IsNegative() || it.Credit.IsNegative():
		return "amounts must not be negative"
	case it.Debit.IsPositive() && it.Credit.IsPositive():
		return "exactly one of debit or credit must be positive"
	case it.Debit.IsZero() && it.Credit.IsZero():
		return "one of debit or credit must be positive"
	case !isMoneyPrecision(it.Debit) || !isMoneyPrecision(it.Credit):
		return "amounts must have at most two decimal places"
	}
	return ""
}

func isMoneyPrecision(d decimal.Decimal) bool {
	return d.Equal(domain.RoundMoney(d))
}

// BalanceEffects sums the signed effect of items per account.
func BalanceEffects(items []domain.JournalItem, accountTypes map[string]domain.AccountType) (map[string]decimal.Decimal, error) {
	effects := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		accountType, ok := accountTypes[it.AccountID]
		if !ok {
			return nil, apperrors.UnknownAccountError{AccountID: it.AccountID}
		}
		signed, err := CalculateSignedAmount(it, accountType)
		if err != nil {
			return nil, err
		}
		effects[it.AccountID] = effects[it.AccountID].Add(signed)
	}
	return effects, nil
}

// NetEffects returns next minus prev per account, dropping zero deltas.
func NetEffects(prev, next map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(prev)+len(next))
	for id, v := range next {
		out[id] = v
	}
	for id, v := range prev {
		out[id] = out[id].Sub(v)
	}
	for id, v := range out {
		if v.IsZero() {
			delete(out, id)
		}
	}
	return out
}

// NegateEffects flips the sign of every delta.
func NegateEffects(effects map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(effects))
	for id, v := range effects {
		out[id] = v.Neg()
	}
	return out
}
