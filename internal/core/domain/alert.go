package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceAlert is a standing low-balance alert for one account, keyed by
// "account-balance:{accountID}". The aggregator upserts active alerts and
// resolves those whose account climbed back above threshold.
type BalanceAlert struct {
	AlertID    string          `json:"alertID"`
	Key        string          `json:"key"`
	AccountID  string          `json:"accountID"`
	Threshold  decimal.Decimal `json:"threshold"`
	Balance    decimal.Decimal `json:"balance"`
	OccurredAt time.Time       `json:"occurredAt"`
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`
	Active     bool            `json:"active"`
}

// AlertKeyForAccount builds the standing-record key for an account alert.
func AlertKeyForAccount(accountID string) string {
	return "account-balance:" + accountID
}
