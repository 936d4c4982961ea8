package domain

// BankAccount is a bank account payments can be drawn from.
type BankAccount struct {
	BankAccountID  string  `json:"bankAccountID"`
	Name           string  `json:"name"`
	AccountNumber  string  `json:"accountNumber"`
	ChartAccountID *string `json:"chartAccountID,omitempty"` // Account postings land on
	AuditFields
}

// PostingAccountID returns the linked chart-of-account id, if any.
func (b BankAccount) PostingAccountID() (string, bool) {
	if b.ChartAccountID == nil || *b.ChartAccountID == "" {
		return "", false
	}
	return *b.ChartAccountID, true
}

// AuditRef implements Auditable.
func (b BankAccount) AuditRef() EntityRef {
	return EntityRef{Type: "bank_account", ID: b.BankAccountID, Table: "bank_accounts"}
}

// AuditAttributes implements Auditable.
func (b BankAccount) AuditAttributes() map[string]string {
	return map[string]string{
		"id":               b.BankAccountID,
		"name":             b.Name,
		"account_number":   b.AccountNumber,
		"chart_account_id": optionalString(b.ChartAccountID),
	}
}
