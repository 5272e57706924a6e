package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/core/domain"
)

// InstallmentResponse is the API shape of one installment.
type InstallmentResponse struct {
	InstallmentID string          `json:"installmentID"`
	Sequence      int             `json:"sequence"`
	MovementDate  time.Time       `json:"movementDate"`
	DueDate       time.Time       `json:"dueDate"`
	PaymentDate   *time.Time      `json:"paymentDate,omitempty"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        string          `json:"status"`
	LinkedEntryID *string         `json:"linkedEntryID,omitempty"`
	ParcelLabel   string          `json:"parcelLabel,omitempty"`
}

// EntryResponse is the API shape of a journal entry.
type EntryResponse struct {
	EntryID           string                `json:"entryID"`
	Type              string                `json:"type"`
	AccountID         string                `json:"accountID"`
	CounterAccountID  *string               `json:"counterAccountID,omitempty"`
	Description       string                `json:"description"`
	Notes             string                `json:"notes,omitempty"`
	ReferenceCode     string                `json:"referenceCode,omitempty"`
	Origin            string                `json:"origin"`
	CloneOf           *string               `json:"cloneOf,omitempty"`
	MovementDate      time.Time             `json:"movementDate"`
	DueDate           time.Time             `json:"dueDate"`
	PaymentDate       *time.Time            `json:"paymentDate,omitempty"`
	Amount            decimal.Decimal       `json:"amount"`
	CurrencyCode      string                `json:"currencyCode"`
	Status            string                `json:"status"`
	InstallmentsCount int                   `json:"installmentsCount"`
	PaidInstallments  int                   `json:"paidInstallments"`
	CreatedAt         time.Time             `json:"createdAt"`
	Installments      []InstallmentResponse `json:"installments,omitempty"`
}

// ListEntriesResponse wraps a page of entries with the pagination token.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToInstallmentResponse converts a domain installment.
func ToInstallmentResponse(inst *domain.Installment) InstallmentResponse {
	return InstallmentResponse{
		InstallmentID: inst.InstallmentID,
		Sequence:      inst.Sequence,
		MovementDate:  inst.MovementDate,
		DueDate:       inst.DueDate,
		PaymentDate:   inst.PaymentDate,
		TotalAmount:   inst.TotalAmount,
		Status:        string(inst.Status),
		LinkedEntryID: inst.LinkedEntryID,
		ParcelLabel:   inst.ParcelLabel,
	}
}

// ToEntryResponse converts a domain entry with its installments.
func ToEntryResponse(e *domain.Entry) EntryResponse {
	resp := EntryResponse{
		EntryID:           e.EntryID,
		Type:              string(e.Type),
		AccountID:         e.AccountID,
		CounterAccountID:  e.CounterAccountID,
		Description:       e.Description,
		Notes:             e.Notes,
		ReferenceCode:     e.ReferenceCode,
		Origin:            string(e.Origin),
		CloneOf:           e.CloneOf,
		MovementDate:      e.MovementDate,
		DueDate:           e.DueDate,
		PaymentDate:       e.PaymentDate,
		Amount:            e.Amount,
		CurrencyCode:      e.CurrencyCode,
		Status:            string(e.Status),
		InstallmentsCount: e.InstallmentsCount,
		PaidInstallments:  e.PaidInstallments,
		CreatedAt:         e.CreatedAt,
	}
	for i := range e.Installments {
		resp.Installments = append(resp.Installments, ToInstallmentResponse(&e.Installments[i]))
	}
	return resp
}

// ToEntryResponses converts a slice of domain entries.
func ToEntryResponses(entries []domain.Entry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}
