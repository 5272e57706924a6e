package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/core/domain"
)

// CreateAccountRequest registers a new bank account.
type CreateAccountRequest struct {
	Name               string           `json:"name" binding:"required"`
	CurrencyCode       string           `json:"currencyCode" binding:"required,len=3"`
	OpeningBalance     decimal.Decimal  `json:"openingBalance"`
	OpeningBalanceDate time.Time        `json:"openingBalanceDate" binding:"required"`
	CreditLimit        decimal.Decimal  `json:"creditLimit"`
	Category           domain.AccountCategory `json:"category" binding:"required"`
	AlertThreshold     *decimal.Decimal `json:"alertThreshold"`
}

// AccountResponse is the API shape of an account.
type AccountResponse struct {
	AccountID      string          `json:"accountID"`
	Name           string          `json:"name"`
	CurrencyCode   string          `json:"currencyCode"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	Category       string          `json:"category"`
	IsActive       bool            `json:"isActive"`
}

// ToAccountResponse converts a domain account.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      a.AccountID,
		Name:           a.Name,
		CurrencyCode:   a.CurrencyCode,
		CurrentBalance: a.CurrentBalance,
		CreditLimit:    a.CreditLimit,
		Category:       string(a.Category),
		IsActive:       a.IsActive,
	}
}

// SummaryQuery binds the balance summary filters from the query string.
type SummaryQuery struct {
	Category        *domain.AccountCategory `form:"category"`
	CostCenterID    *string                 `form:"costCenterID"`
	AccountID       *string                 `form:"accountID"`
	IncludeInactive bool                    `form:"includeInactive"`
}

// ToSummaryFilter converts the query into the domain filter.
func (q SummaryQuery) ToSummaryFilter() domain.SummaryFilter {
	return domain.SummaryFilter{
		Category:        q.Category,
		CostCenterID:    q.CostCenterID,
		AccountID:       q.AccountID,
		IncludeInactive: q.IncludeInactive,
	}
}
