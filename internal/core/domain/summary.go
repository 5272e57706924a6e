package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryFilter narrows the balance summary to a subset of accounts.
type SummaryFilter struct {
	Category        *AccountCategory `json:"category,omitempty"`
	CostCenterID    *string          `json:"costCenterID,omitempty"`
	AccountID       *string          `json:"accountID,omitempty"`
	IncludeInactive bool             `json:"includeInactive"`
}

// AccountBalanceLine is the per-account row of a balance summary.
type AccountBalanceLine struct {
	AccountID        string          `json:"accountID"`
	Name             string          `json:"name"`
	Category         AccountCategory `json:"category"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	ScheduledIncoming decimal.Decimal `json:"scheduledIncoming"`
	ScheduledOutgoing decimal.Decimal `json:"scheduledOutgoing"`
	ScheduledNet     decimal.Decimal `json:"scheduledNet"`
	ProjectedBalance decimal.Decimal `json:"projectedBalance"`
	LastMovementAt   *time.Time      `json:"lastMovementAt,omitempty"`
	LowBalanceAlert  bool            `json:"lowBalanceAlert"`
}

// BalanceHistoryPoint is one day of the reconstructed balance history.
type BalanceHistoryPoint struct {
	Date    time.Time       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceSummary is the aggregated read-side view over matched accounts.
type BalanceSummary struct {
	Accounts       []AccountBalanceLine  `json:"accounts"`
	TotalCurrent   decimal.Decimal       `json:"totalCurrent"`
	TotalProjected decimal.Decimal       `json:"totalProjected"`
	TotalPending   decimal.Decimal       `json:"totalPending"`
	TopPositive    []AccountBalanceLine  `json:"topPositive"` // At most 3
	TopNegative    []AccountBalanceLine  `json:"topNegative"` // At most 3
	History        []BalanceHistoryPoint `json:"history"`     // Last 7 days
	GeneratedAt    time.Time             `json:"generatedAt"`
}
