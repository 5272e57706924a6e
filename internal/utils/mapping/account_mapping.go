package mapping

import (
	"github.com/imovelhub/backoffice/internal/core/domain"
	"github.com/imovelhub/backoffice/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:          d.AccountID,
		Name:               d.Name,
		CurrencyCode:       d.CurrencyCode,
		OpeningBalance:     d.OpeningBalance,
		OpeningBalanceDate: d.OpeningBalanceDate,
		CurrentBalance:     d.CurrentBalance,
		CreditLimit:        d.CreditLimit,
		Category:           string(d.Category),
		AlertThreshold:     d.AlertThreshold,
		IsActive:           d.IsActive,
		AuditFields:        toModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:          m.AccountID,
		Name:               m.Name,
		CurrencyCode:       m.CurrencyCode,
		OpeningBalance:     m.OpeningBalance,
		OpeningBalanceDate: m.OpeningBalanceDate,
		CurrentBalance:     m.CurrentBalance,
		CreditLimit:        m.CreditLimit,
		Category:           domain.AccountCategory(m.Category),
		AlertThreshold:     m.AlertThreshold,
		IsActive:           m.IsActive,
		AuditFields:        toDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}
