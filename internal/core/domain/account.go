package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountCategory groups financial accounts for filtering and reporting.
type AccountCategory string

const (
	CategoryChecking   AccountCategory = "CHECKING"
	CategorySavings    AccountCategory = "SAVINGS"
	CategoryCash       AccountCategory = "CASH"
	CategoryInvestment AccountCategory = "INVESTMENT"
)

// Account represents a bank account tracked by the ledger engine.
//
// CurrentBalance is server-maintained: it is only ever mutated by the state
// engine's balance transition or by an explicit administrative correction.
type Account struct {
	AccountID          string          `json:"accountID"`
	Name               string          `json:"name"`
	CurrencyCode       string          `json:"currencyCode"`
	OpeningBalance     decimal.Decimal `json:"openingBalance"`
	OpeningBalanceDate time.Time       `json:"openingBalanceDate"`
	CurrentBalance     decimal.Decimal `json:"currentBalance"`
	CreditLimit        decimal.Decimal `json:"creditLimit"`
	Category           AccountCategory `json:"category"`
	// AlertThreshold, when set, takes precedence over the credit-limit
	// derived threshold for low-balance alerting.
	AlertThreshold *decimal.Decimal `json:"alertThreshold,omitempty"`
	IsActive       bool             `json:"isActive"`
	AuditFields
}

// LowBalanceThreshold resolves the alerting threshold for the account:
// explicit configured threshold, then negative credit limit, then none.
func (a Account) LowBalanceThreshold() (decimal.Decimal, bool) {
	if a.AlertThreshold != nil {
		return *a.AlertThreshold, true
	}
	if a.CreditLimit.IsPositive() {
		return a.CreditLimit.Neg(), true
	}
	return decimal.Zero, false
}
