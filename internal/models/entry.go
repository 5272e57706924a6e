package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry mirrors the journal_entries table.
type Entry struct {
	EntryID           string          `db:"entry_id"`
	EntryType         string          `db:"entry_type"`
	AccountID         string          `db:"account_id"`
	CounterAccountID  *string         `db:"counter_account_id"`
	CostCenterID      *string         `db:"cost_center_id"`
	PropertyID        *string         `db:"property_id"`
	PersonID          *string         `db:"person_id"`
	Description       string          `db:"description"`
	Notes             string          `db:"notes"`
	ReferenceCode     string          `db:"reference_code"`
	Origin            string          `db:"origin"`
	CloneOf           *string         `db:"clone_of"`
	MovementDate      time.Time       `db:"movement_date"`
	DueDate           time.Time       `db:"due_date"`
	PaymentDate       *time.Time      `db:"payment_date"`
	Amount            decimal.Decimal `db:"amount"`
	CurrencyCode      string          `db:"currency_code"`
	Status            string          `db:"status"`
	InstallmentsCount int             `db:"installments_count"`
	PaidInstallments  int             `db:"paid_installments"`
	DeletedAt         *time.Time      `db:"deleted_at"`
	AuditFields
}

// Installment mirrors the journal_entry_installments table. The clone
// linkage lives in dedicated columns; meta is import provenance only.
type Installment struct {
	InstallmentID       string          `db:"installment_id"`
	EntryID             string          `db:"entry_id"`
	Sequence            int             `db:"sequence"`
	MovementDate        time.Time       `db:"movement_date"`
	DueDate             time.Time       `db:"due_date"`
	PaymentDate         *time.Time      `db:"payment_date"`
	PrincipalAmount     decimal.Decimal `db:"principal_amount"`
	InterestAmount      decimal.Decimal `db:"interest_amount"`
	PenaltyAmount       decimal.Decimal `db:"penalty_amount"`
	DiscountAmount      decimal.Decimal `db:"discount_amount"`
	TotalAmount         decimal.Decimal `db:"total_amount"`
	Status              string          `db:"status"`
	LinkedEntryID       *string         `db:"linked_entry_id"`
	ParcelLabel         string          `db:"parcel_label"`
	ParcelNumber        int             `db:"parcel_number"`
	ParcelTotal         int             `db:"parcel_total"`
	SourceEntryID       *string         `db:"source_entry_id"`
	SourceInstallmentID *string         `db:"source_installment_id"`
	Meta                map[string]string `db:"meta"`
	AuditFields
}

// Allocation mirrors the journal_entry_allocations table.
type Allocation struct {
	AllocationID string           `db:"allocation_id"`
	EntryID      string           `db:"entry_id"`
	CostCenterID *string          `db:"cost_center_id"`
	PropertyID   *string          `db:"property_id"`
	Percent      *decimal.Decimal `db:"percent"`
	Amount       *decimal.Decimal `db:"amount"`
	AuditFields
}

// BalanceAlert mirrors the balance_alerts table.
type BalanceAlert struct {
	AlertID    string          `db:"alert_id"`
	AlertKey   string          `db:"alert_key"`
	AccountID  string          `db:"account_id"`
	Threshold  decimal.Decimal `db:"threshold"`
	Balance    decimal.Decimal `db:"balance"`
	OccurredAt time.Time       `db:"occurred_at"`
	ResolvedAt *time.Time      `db:"resolved_at"`
	Active     bool            `db:"active"`
}
