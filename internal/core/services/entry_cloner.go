package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/apperrors"
	"github.com/imovelhub/backoffice/internal/core/domain"
	"github.com/imovelhub/backoffice/internal/dto"
	"github.com/imovelhub/backoffice/internal/middleware"
)

// CloneEntry duplicates a settled or settling entry as a fresh Planned one.
// Only Paid and Pending entries can be cloned; the copy gets a single fresh
// installment with the payment date cleared. The back office uses this for
// "repeat last month's charge" flows.
func (s *entryService) CloneEntry(ctx context.Context, entryID string, req dto.CloneEntryRequest, userID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	source, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if source.Status != domain.StatusPaid && source.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: entry %s is %s", apperrors.ErrInvalidClone, entryID, source.Status)
	}

	now := s.now()
	cloneID := uuid.NewString()

	accountID := source.AccountID
	if req.AccountID != nil {
		accountID = *req.AccountID
	}
	counterAccountID := source.CounterAccountID
	if req.CounterAccountID != nil {
		counterAccountID = req.CounterAccountID
	}
	movementDate := source.MovementDate
	if req.MovementDate != nil {
		movementDate = *req.MovementDate
	}
	dueDate := source.DueDate
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	referenceCode := source.ReferenceCode
	if req.ReferenceCode != nil {
		referenceCode = *req.ReferenceCode
	}

	entry := domain.Entry{
		EntryID:           cloneID,
		Type:              source.Type,
		AccountID:         accountID,
		CounterAccountID:  counterAccountID,
		CostCenterID:      source.CostCenterID,
		PropertyID:        source.PropertyID,
		PersonID:          source.PersonID,
		Description:       source.Description,
		Notes:             source.Notes,
		ReferenceCode:     referenceCode,
		Origin:            domain.OriginClone,
		CloneOf:           &source.EntryID,
		MovementDate:      movementDate,
		DueDate:           dueDate,
		Amount:            source.Amount,
		CurrencyCode:      source.CurrencyCode,
		Status:            domain.StatusPlanned,
		InstallmentsCount: 1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
		Installments: []domain.Installment{
			{
				InstallmentID:   uuid.NewString(),
				EntryID:         cloneID,
				Sequence:        1,
				MovementDate:    movementDate,
				DueDate:         dueDate,
				PrincipalAmount: source.Amount,
				TotalAmount:     source.Amount,
				Status:          domain.StatusPlanned,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     userID,
					LastUpdatedAt: now,
					LastUpdatedBy: userID,
				},
			},
		},
	}
	for i := range source.Allocations {
		alloc := source.Allocations[i]
		alloc.AllocationID = uuid.NewString()
		alloc.EntryID = cloneID
		alloc.AuditFields = entry.AuditFields
		entry.Allocations = append(entry.Allocations, alloc)
	}

	if err := validateEntryAgainstAccounts(ctx, s.accountRepo, &entry); err != nil {
		return nil, err
	}

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	if err := persistEntryGraph(ctx, tx, s.entryRepo, &entry, true); err != nil {
		return nil, err
	}
	if _, err := s.engine.SyncEntryState(ctx, tx, cloneID, PreviousState{Status: domain.StatusPlanned, Amount: decimal.Zero}, userID); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Entry cloned", slog.String("source_entry_id", entryID), slog.String("entry_id", cloneID))
	return s.entryRepo.FindEntryByID(ctx, cloneID)
}
