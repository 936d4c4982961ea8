package accounting

import (
	"fmt"
	"strings"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculatePaymentBreakdown takes as much of totalDue as possible from supplier credit
// and the remainder from bank. Negative credit counts as none.
func CalculatePaymentBreakdown(totalDue, credit decimal.Decimal) domain.PaymentBreakdown {
	due := domain.RoundMoney(totalDue)
	available := decimal.Max(decimal.Zero, domain.RoundMoney(credit))
	fromCredit := decimal.Max(decimal.Zero, decimal.Min(due, available))
	fromBank := decimal.Max(decimal.Zero, due.Sub(fromCredit))
	return domain.PaymentBreakdown{
		FromCredit: fromCredit,
		FromBank:   fromBank,
		Total:      fromCredit.Add(fromBank),
	}
}

// CalculateFinalBalance projects current after paying payment. Overdraft is allowed.
func CalculateFinalBalance(current, payment decimal.Decimal) domain.FinalBalance {
	final := domain.RoundMoney(current.Sub(payment))
	return domain.FinalBalance{
		Current:    domain.RoundMoney(current),
		Final:      final,
		IsNegative: final.IsNegative(),
		Difference: domain.RoundMoney(payment),
	}
}

// ValidatePayment always lets the payment proceed; a negative projection only adds a warning.
func ValidatePayment(current, payment decimal.Decimal) domain.PaymentValidation {
	balance := CalculateFinalBalance(current, payment)
	v := domain.PaymentValidation{CanProceed: true, Balance: balance}
	if balance.IsNegative {
		v.Warning = fmt.Sprintf("payment of %s exceeds available balance %s; balance will be %s",
			balance.Difference.StringFixed(2), balance.Current.StringFixed(2), balance.Final.StringFixed(2))
	}
	return v
}

// GenerateDescription describes how a payment for reference is funded, listing only non-zero parts.
func GenerateDescription(reference string, b domain.PaymentBreakdown) string {
	parts := make([]string, 0, 2)
	if b.FromCredit.IsPositive() {
		parts = append(parts, b.FromCredit.StringFixed(2)+" paid from supplier credit")
	}
	if b.FromBank.IsPositive() {
		parts = append(parts, b.FromBank.StringFixed(2)+" paid from bank")
	}
	if len(parts) == 0 {
		return "Payment for " + reference
	}
	return "Payment for " + reference + ": " + strings.Join(parts, "; ")
}
