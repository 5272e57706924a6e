package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies the direction of a journal entry.
type EntryType string

const (
	TypeRevenue  EntryType = "REVENUE"
	TypeExpense  EntryType = "EXPENSE"
	TypeTransfer EntryType = "TRANSFER"
)

// EntryStatus is the lifecycle state of an entry or installment.
type EntryStatus string

const (
	StatusPlanned   EntryStatus = "PLANNED"
	StatusPending   EntryStatus = "PENDING"
	StatusOverdue   EntryStatus = "OVERDUE"
	StatusPaid      EntryStatus = "PAID"
	StatusCancelled EntryStatus = "CANCELLED"
)

// EntryOrigin records what produced an entry.
type EntryOrigin string

const (
	OriginManual          EntryOrigin = "MANUAL"
	OriginImported        EntryOrigin = "IMPORTED"
	OriginRecurring       EntryOrigin = "RECURRING"
	OriginInstallmentPlan EntryOrigin = "INSTALLMENT_PLAN"
	OriginClone           EntryOrigin = "CLONE"
	OriginIntegration     EntryOrigin = "INTEGRATION"
	OriginLegacy          EntryOrigin = "LEGACY"
	OriginScheduled       EntryOrigin = "SCHEDULED"
)

// Entry represents one recorded financial movement with one or more
// installments. Status is always derived from the installments, never
// hand-set.
type Entry struct {
	EntryID          string      `json:"entryID"`
	Type             EntryType   `json:"type"`
	AccountID        string      `json:"accountID"`
	CounterAccountID *string     `json:"counterAccountID,omitempty"` // Required and distinct iff Type == TRANSFER
	CostCenterID     *string     `json:"costCenterID,omitempty"`
	PropertyID       *string     `json:"propertyID,omitempty"`
	PersonID         *string     `json:"personID,omitempty"`
	Description      string      `json:"description"`
	Notes            string      `json:"notes"`
	ReferenceCode    string      `json:"referenceCode"`
	Origin           EntryOrigin `json:"origin"`
	CloneOf          *string     `json:"cloneOf,omitempty"`
	MovementDate     time.Time   `json:"movementDate"`
	DueDate          time.Time   `json:"dueDate"`
	PaymentDate      *time.Time  `json:"paymentDate,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	CurrencyCode     string          `json:"currencyCode"`
	Status           EntryStatus     `json:"status"`
	InstallmentsCount int            `json:"installmentsCount"`
	PaidInstallments  int            `json:"paidInstallments"`
	AuditFields
	Installments []Installment `json:"installments,omitempty"`
	Allocations  []Allocation  `json:"allocations,omitempty"`
}

// IsPlanParent reports whether the entry only exists to drive clone
// generation. Plan parents never touch account balances directly and are
// excluded from operational listings.
func (e Entry) IsPlanParent() bool {
	return e.Origin == OriginInstallmentPlan && e.CloneOf == nil && e.InstallmentsCount > 1
}

// Installment is a single scheduled or settled payment belonging to an entry.
// TotalAmount is supplied by the caller (principal + interest + penalty -
// discount by convention), never auto-derived here.
type Installment struct {
	InstallmentID  string      `json:"installmentID"`
	EntryID        string      `json:"entryID"`
	Sequence       int         `json:"sequence"` // Unique within the entry
	MovementDate   time.Time   `json:"movementDate"`
	DueDate        time.Time   `json:"dueDate"`
	PaymentDate    *time.Time  `json:"paymentDate,omitempty"`
	PrincipalAmount decimal.Decimal `json:"principalAmount"`
	InterestAmount  decimal.Decimal `json:"interestAmount"`
	PenaltyAmount   decimal.Decimal `json:"penaltyAmount"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          EntryStatus     `json:"status"`

	// Plan-parent side of the clone linkage: the clone entry generated for
	// this installment.
	LinkedEntryID *string `json:"linkedEntryID,omitempty"`
	ParcelLabel   string  `json:"parcelLabel,omitempty"`
	ParcelNumber  int     `json:"parcelNumber,omitempty"`
	ParcelTotal   int     `json:"parcelTotal,omitempty"`

	// Clone side of the linkage: back-pointers to the originating plan.
	SourceEntryID       *string `json:"sourceEntryID,omitempty"`
	SourceInstallmentID *string `json:"sourceInstallmentID,omitempty"`

	// Meta carries import provenance only; it is never used for financial
	// computation.
	Meta map[string]string `json:"meta,omitempty"`
	AuditFields
}

// Allocation splits an entry's cost attribution across a cost center and/or
// property, by percentage or fixed amount. Reporting only.
type Allocation struct {
	AllocationID string           `json:"allocationID"`
	EntryID      string           `json:"entryID"`
	CostCenterID *string          `json:"costCenterID,omitempty"`
	PropertyID   *string          `json:"propertyID,omitempty"`
	Percent      *decimal.Decimal `json:"percent,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	AuditFields
}
