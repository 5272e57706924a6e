package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account mirrors the financial_accounts table.
type Account struct {
	AccountID          string           `db:"account_id"`
	Name               string           `db:"name"`
	CurrencyCode       string           `db:"currency_code"`
	OpeningBalance     decimal.Decimal  `db:"opening_balance"`
	OpeningBalanceDate time.Time        `db:"opening_balance_date"`
	CurrentBalance     decimal.Decimal  `db:"current_balance"`
	CreditLimit        decimal.Decimal  `db:"credit_limit"`
	Category           string           `db:"category"`
	AlertThreshold     *decimal.Decimal `db:"alert_threshold"`
	IsActive           bool             `db:"is_active"`
	AuditFields
}
