package mapping

import (
	"github.com/imovelhub/backoffice/internal/core/domain"
	"github.com/imovelhub/backoffice/internal/models"
)

// ToModelEntry converts a domain Entry to a model Entry (row fields only;
// installments and allocations are persisted separately).
func ToModelEntry(d domain.Entry) models.Entry {
	return models.Entry{
		EntryID:           d.EntryID,
		EntryType:         string(d.Type),
		AccountID:         d.AccountID,
		CounterAccountID:  d.CounterAccountID,
		CostCenterID:      d.CostCenterID,
		PropertyID:        d.PropertyID,
		PersonID:          d.PersonID,
		Description:       d.Description,
		Notes:             d.Notes,
		ReferenceCode:     d.ReferenceCode,
		Origin:            string(d.Origin),
		CloneOf:           d.CloneOf,
		MovementDate:      d.MovementDate,
		DueDate:           d.DueDate,
		PaymentDate:       d.PaymentDate,
		Amount:            d.Amount,
		CurrencyCode:      d.CurrencyCode,
		Status:            string(d.Status),
		InstallmentsCount: d.InstallmentsCount,
		PaidInstallments:  d.PaidInstallments,
		AuditFields:       toModelAuditFields(d.AuditFields),
	}
}

// ToDomainEntry converts a model Entry to a domain Entry.
func ToDomainEntry(m models.Entry) domain.Entry {
	return domain.Entry{
		EntryID:           m.EntryID,
		Type:              domain.EntryType(m.EntryType),
		AccountID:         m.AccountID,
		CounterAccountID:  m.CounterAccountID,
		CostCenterID:      m.CostCenterID,
		PropertyID:        m.PropertyID,
		PersonID:          m.PersonID,
		Description:       m.Description,
		Notes:             m.Notes,
		ReferenceCode:     m.ReferenceCode,
		Origin:            domain.EntryOrigin(m.Origin),
		CloneOf:           m.CloneOf,
		MovementDate:      m.MovementDate,
		DueDate:           m.DueDate,
		PaymentDate:       m.PaymentDate,
		Amount:            m.Amount,
		CurrencyCode:      m.CurrencyCode,
		Status:            domain.EntryStatus(m.Status),
		InstallmentsCount: m.InstallmentsCount,
		PaidInstallments:  m.PaidInstallments,
		AuditFields:       toDomainAuditFields(m.AuditFields),
	}
}

// ToModelInstallment converts a domain Installment to a model Installment
func ToModelInstallment(d domain.Installment) models.Installment {
	return models.Installment{
		InstallmentID:       d.InstallmentID,
		EntryID:             d.EntryID,
		Sequence:            d.Sequence,
		MovementDate:        d.MovementDate,
		DueDate:             d.DueDate,
		PaymentDate:         d.PaymentDate,
		PrincipalAmount:     d.PrincipalAmount,
		InterestAmount:      d.InterestAmount,
		PenaltyAmount:       d.PenaltyAmount,
		DiscountAmount:      d.DiscountAmount,
		TotalAmount:         d.TotalAmount,
		Status:              string(d.Status),
		LinkedEntryID:       d.LinkedEntryID,
		ParcelLabel:         d.ParcelLabel,
		ParcelNumber:        d.ParcelNumber,
		ParcelTotal:         d.ParcelTotal,
		SourceEntryID:       d.SourceEntryID,
		SourceInstallmentID: d.SourceInstallmentID,
		Meta:                d.Meta,
		AuditFields:         toModelAuditFields(d.AuditFields),
	}
}

// ToDomainInstallment converts a model Installment to a domain Installment
func ToDomainInstallment(m models.Installment) domain.Installment {
	return domain.Installment{
		InstallmentID:       m.InstallmentID,
		EntryID:             m.EntryID,
		Sequence:            m.Sequence,
		MovementDate:        m.MovementDate,
		DueDate:             m.DueDate,
		PaymentDate:         m.PaymentDate,
		PrincipalAmount:     m.PrincipalAmount,
		InterestAmount:      m.InterestAmount,
		PenaltyAmount:       m.PenaltyAmount,
		DiscountAmount:      m.DiscountAmount,
		TotalAmount:         m.TotalAmount,
		Status:              domain.EntryStatus(m.Status),
		LinkedEntryID:       m.LinkedEntryID,
		ParcelLabel:         m.ParcelLabel,
		ParcelNumber:        m.ParcelNumber,
		ParcelTotal:         m.ParcelTotal,
		SourceEntryID:       m.SourceEntryID,
		SourceInstallmentID: m.SourceInstallmentID,
		Meta:                m.Meta,
		AuditFields:         toDomainAuditFields(m.AuditFields),
	}
}

// ToModelAllocation converts a domain Allocation to a model Allocation
func ToModelAllocation(d domain.Allocation) models.Allocation {
	return models.Allocation{
		AllocationID: d.AllocationID,
		EntryID:      d.EntryID,
		CostCenterID: d.CostCenterID,
		PropertyID:   d.PropertyID,
		Percent:      d.Percent,
		Amount:       d.Amount,
		AuditFields:  toModelAuditFields(d.AuditFields),
	}
}

// ToDomainAllocation converts a model Allocation to a domain Allocation
func ToDomainAllocation(m models.Allocation) domain.Allocation {
	return domain.Allocation{
		AllocationID: m.AllocationID,
		EntryID:      m.EntryID,
		CostCenterID: m.CostCenterID,
		PropertyID:   m.PropertyID,
		Percent:      m.Percent,
		Amount:       m.Amount,
		AuditFields:  toDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBalanceAlert converts a model BalanceAlert to a domain BalanceAlert
func ToDomainBalanceAlert(m models.BalanceAlert) domain.BalanceAlert {
	return domain.BalanceAlert{
		AlertID:    m.AlertID,
		Key:        m.AlertKey,
		AccountID:  m.AccountID,
		Threshold:  m.Threshold,
		Balance:    m.Balance,
		OccurredAt: m.OccurredAt,
		ResolvedAt: m.ResolvedAt,
		Active:     m.Active,
	}
}
