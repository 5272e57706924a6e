package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/core/domain"
)

// InstallmentRequest describes one installment of an entry being written.
// TotalAmount follows the caller's convention (principal + interest +
// penalty - discount); it is not recomputed server-side.
type InstallmentRequest struct {
	Sequence        int              `json:"sequence" binding:"required,min=1"`
	MovementDate    time.Time        `json:"movementDate" binding:"required"`
	DueDate         time.Time        `json:"dueDate" binding:"required"`
	PaymentDate     *time.Time       `json:"paymentDate"`
	PrincipalAmount decimal.Decimal  `json:"principalAmount"`
	InterestAmount  decimal.Decimal  `json:"interestAmount"`
	PenaltyAmount   decimal.Decimal  `json:"penaltyAmount"`
	DiscountAmount  decimal.Decimal  `json:"discountAmount"`
	TotalAmount     decimal.Decimal  `json:"totalAmount" binding:"required"`
	Status          domain.EntryStatus `json:"status"`
}

// AllocationRequest splits the entry's cost attribution.
type AllocationRequest struct {
	CostCenterID *string          `json:"costCenterID"`
	PropertyID   *string          `json:"propertyID"`
	Percent      *decimal.Decimal `json:"percent"`
	Amount       *decimal.Decimal `json:"amount"`
}

// CreateEntryRequest is the sole input contract of the Entry Writer. The
// calling layer is responsible for field-level validation before
// construction.
type CreateEntryRequest struct {
	Type             domain.EntryType   `json:"type" binding:"required"`
	AccountID        string             `json:"accountID" binding:"required"`
	CounterAccountID *string            `json:"counterAccountID"`
	CostCenterID     *string            `json:"costCenterID"`
	PropertyID       *string            `json:"propertyID"`
	PersonID         *string            `json:"personID"`
	Description      string             `json:"description" binding:"required"`
	Notes            string             `json:"notes"`
	ReferenceCode    string             `json:"referenceCode"`
	Origin           domain.EntryOrigin `json:"origin"`
	MovementDate     time.Time          `json:"movementDate" binding:"required"`
	DueDate          time.Time          `json:"dueDate" binding:"required"`
	Amount           decimal.Decimal    `json:"amount" binding:"required"`
	CurrencyCode     string             `json:"currencyCode" binding:"required,len=3"`
	Installments     []InstallmentRequest `json:"installments" binding:"required,min=1,dive"`
	Allocations      []AllocationRequest  `json:"allocations" binding:"dive"`
}

// UpdateEntryRequest carries the full replacement state of an entry.
// Installments and allocations are replaced wholesale, never diffed.
type UpdateEntryRequest struct {
	Type             domain.EntryType   `json:"type" binding:"required"`
	AccountID        string             `json:"accountID" binding:"required"`
	CounterAccountID *string            `json:"counterAccountID"`
	CostCenterID     *string            `json:"costCenterID"`
	PropertyID       *string            `json:"propertyID"`
	PersonID         *string            `json:"personID"`
	Description      string             `json:"description" binding:"required"`
	Notes            string             `json:"notes"`
	ReferenceCode    string             `json:"referenceCode"`
	MovementDate     time.Time          `json:"movementDate" binding:"required"`
	DueDate          time.Time          `json:"dueDate" binding:"required"`
	Amount           decimal.Decimal    `json:"amount" binding:"required"`
	CurrencyCode     string             `json:"currencyCode" binding:"required,len=3"`
	Installments     []InstallmentRequest `json:"installments" binding:"required,min=1,dive"`
	Allocations      []AllocationRequest  `json:"allocations" binding:"dive"`
}

// CloneEntryRequest holds optional overrides applied on top of the copied
// source entry.
type CloneEntryRequest struct {
	MovementDate     *time.Time `json:"movementDate"`
	DueDate          *time.Time `json:"dueDate"`
	AccountID        *string    `json:"accountID"`
	CounterAccountID *string    `json:"counterAccountID"`
	ReferenceCode    *string    `json:"referenceCode"`
}

// PayInstallmentRequest settles one installment.
type PayInstallmentRequest struct {
	PaymentDate    time.Time        `json:"paymentDate" binding:"required"`
	InterestAmount *decimal.Decimal `json:"interestAmount"`
	PenaltyAmount  *decimal.Decimal `json:"penaltyAmount"`
	DiscountAmount *decimal.Decimal `json:"discountAmount"`
	TotalAmount    *decimal.Decimal `json:"totalAmount"`
}

// ConfirmMatchRequest settles an installment from a confirmed bank
// statement match, recording import provenance.
type ConfirmMatchRequest struct {
	PaymentDate time.Time        `json:"paymentDate" binding:"required"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
	StatementRef string          `json:"statementRef" binding:"required"`
}

// ListEntriesParams mirrors the repository listing parameters for the API.
type ListEntriesParams struct {
	AccountID          *string             `form:"accountID"`
	Status             *domain.EntryStatus `form:"status"`
	Limit              int                 `form:"limit"`
	NextToken          *string             `form:"nextToken"`
	IncludePlanParents bool                `form:"includePlanParents"`
}
