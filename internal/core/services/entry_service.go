package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/apperrors"
	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
	"github.com/imovelhub/backoffice/internal/dto"
	"github.com/imovelhub/backoffice/internal/middleware"
)

// entryService implements the write side of the ledger engine: the Entry
// Writer plus the externally-triggered transitions (pay, cancel, statement
// match confirm/ignore). Every mutating operation runs the State Engine and
// the Clone Synchronizer inside a single enclosing transaction.
type entryService struct {
	entryRepo   portsrepo.EntryRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	engine      *StateEngine
	cloneSync   *CloneSynchronizer
	publisher   portssvc.RefreshPublisher
	now         func() time.Time
}

// NewEntryService creates the entry service.
func NewEntryService(entryRepo portsrepo.EntryRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, engine *StateEngine, cloneSync *CloneSynchronizer, publisher portssvc.RefreshPublisher) portssvc.EntrySvcFacade {
	return &entryService{
		entryRepo:   entryRepo,
		accountRepo: accountRepo,
		engine:      engine,
		cloneSync:   cloneSync,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.EntrySvcFacade = (*entryService)(nil)

// buildInstallments converts installment requests into domain installments
// for the given entry, checking sequence uniqueness.
func buildInstallments(entryID string, reqs []dto.InstallmentRequest, userID string, now time.Time) ([]domain.Installment, error) {
	seen := make(map[int]struct{}, len(reqs))
	installments := make([]domain.Installment, len(reqs))
	for i, req := range reqs {
		if _, dup := seen[req.Sequence]; dup {
			return nil, fmt.Errorf("%w: duplicate installment sequence %d", apperrors.ErrValidation, req.Sequence)
		}
		seen[req.Sequence] = struct{}{}

		status := req.Status
		if status == "" {
			status = domain.StatusPlanned
		}
		installments[i] = domain.Installment{
			InstallmentID:   uuid.NewString(),
			EntryID:         entryID,
			Sequence:        req.Sequence,
			MovementDate:    req.MovementDate,
			DueDate:         req.DueDate,
			PaymentDate:     req.PaymentDate,
			PrincipalAmount: req.PrincipalAmount,
			InterestAmount:  req.InterestAmount,
			PenaltyAmount:   req.PenaltyAmount,
			DiscountAmount:  req.DiscountAmount,
			TotalAmount:     req.TotalAmount,
			Status:          status,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}
	return installments, nil
}

// buildAllocations converts allocation requests into domain allocations.
func buildAllocations(entryID string, reqs []dto.AllocationRequest, userID string, now time.Time) []domain.Allocation {
	allocations := make([]domain.Allocation, len(reqs))
	for i, req := range reqs {
		allocations[i] = domain.Allocation{
			AllocationID: uuid.NewString(),
			EntryID:      entryID,
			CostCenterID: req.CostCenterID,
			PropertyID:   req.PropertyID,
			Percent:      req.Percent,
			Amount:       req.Amount,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}
	return allocations
}

// CreateEntry validates and persists a new entry with its installments and
// allocations, then synchronizes derived state and installment clones.
func (s *entryService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := s.now()
	entryID := uuid.NewString()

	origin := req.Origin
	if origin == "" {
		origin = domain.OriginManual
	}

	installments, err := buildInstallments(entryID, req.Installments, creatorUserID, now)
	if err != nil {
		return nil, err
	}

	entry := domain.Entry{
		EntryID:           entryID,
		Type:              req.Type,
		AccountID:         req.AccountID,
		CounterAccountID:  req.CounterAccountID,
		CostCenterID:      req.CostCenterID,
		PropertyID:        req.PropertyID,
		PersonID:          req.PersonID,
		Description:       req.Description,
		Notes:             req.Notes,
		ReferenceCode:     req.ReferenceCode,
		Origin:            origin,
		MovementDate:      req.MovementDate,
		DueDate:           req.DueDate,
		Amount:            req.Amount,
		CurrencyCode:      req.CurrencyCode,
		Status:            domain.StatusPlanned,
		InstallmentsCount: len(installments),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
		Installments: installments,
		Allocations:  buildAllocations(entryID, req.Allocations, creatorUserID, now),
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
	if _, err := s.engine.SyncEntryState(ctx, tx, entryID, PreviousState{Status: domain.StatusPlanned, Amount: decimal.Zero}, creatorUserID); err != nil {
		return nil, err
	}
	if _, err := s.cloneSync.Sync(ctx, tx, entryID, creatorUserID); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Entry created", slog.String("entry_id", entryID), slog.Int("installments", len(installments)))
	return s.entryRepo.FindEntryByID(ctx, entryID)
}

// UpdateEntry replaces an entry's content wholesale (installments and
// allocations are deleted and reinserted) and re-derives state.
func (s *entryService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	prev := PreviousState{Status: existing.Status, Amount: existing.Amount}
	now := s.now()

	installments, err := buildInstallments(entryID, req.Installments, userID, now)
	if err != nil {
		return nil, err
	}

	entry := domain.Entry{
		EntryID:           entryID,
		Type:              req.Type,
		AccountID:         req.AccountID,
		CounterAccountID:  req.CounterAccountID,
		CostCenterID:      req.CostCenterID,
		PropertyID:        req.PropertyID,
		PersonID:          req.PersonID,
		Description:       req.Description,
		Notes:             req.Notes,
		ReferenceCode:     req.ReferenceCode,
		Origin:            existing.Origin,
		CloneOf:           existing.CloneOf,
		MovementDate:      req.MovementDate,
		DueDate:           req.DueDate,
		PaymentDate:       existing.PaymentDate,
		Amount:            req.Amount,
		CurrencyCode:      req.CurrencyCode,
		Status:            existing.Status,
		InstallmentsCount: len(installments),
		PaidInstallments:  existing.PaidInstallments,
		AuditFields: domain.AuditFields{
			CreatedAt:     existing.CreatedAt,
			CreatedBy:     existing.CreatedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
		Installments: installments,
		Allocations:  buildAllocations(entryID, req.Allocations, userID, now),
	}

	if err := validateEntryAgainstAccounts(ctx, s.accountRepo, &entry); err != nil {
		return nil, err
	}

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	if err := persistEntryGraph(ctx, tx, s.entryRepo, &entry, false); err != nil {
		return nil, err
	}
	if _, err := s.engine.SyncEntryState(ctx, tx, entryID, prev, userID); err != nil {
		return nil, err
	}
	if _, err := s.cloneSync.Sync(ctx, tx, entryID, userID); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Entry updated", slog.String("entry_id", entryID))
	return s.entryRepo.FindEntryByID(ctx, entryID)
}

// GetEntryByID loads an entry with its installments and allocations.
func (s *entryService) GetEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	return s.entryRepo.FindEntryByID(ctx, entryID)
}

// ListEntries returns a token-paginated page of entries. Plan parents are
// excluded unless explicitly requested.
func (s *entryService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	entries, nextToken, err := s.entryRepo.ListEntries(ctx, portsrepo.ListEntriesParams{
		AccountID:          params.AccountID,
		Status:             params.Status,
		Limit:              limit,
		NextToken:          params.NextToken,
		IncludePlanParents: params.IncludePlanParents,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return &dto.ListEntriesResponse{
		Entries:   dto.ToEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// findInstallmentBySequence locates an installment on the loaded entry.
func findInstallmentBySequence(entry *domain.Entry, sequence int) (*domain.Installment, error) {
	for i := range entry.Installments {
		if entry.Installments[i].Sequence == sequence {
			return &entry.Installments[i], nil
		}
	}
	return nil, fmt.Errorf("%w: installment %d of entry %s", apperrors.ErrNotFound, sequence, entry.EntryID)
}

// ensureSettleable rejects settling an installment that is already paid or
// cancelled.
func ensureSettleable(inst *domain.Installment, sequence int) error {
	if inst.Status == domain.StatusPaid {
		return fmt.Errorf("%w: installment %d is already paid", apperrors.ErrValidation, sequence)
	}
	if inst.Status == domain.StatusCancelled {
		return fmt.Errorf("%w: installment %d is cancelled", apperrors.ErrValidation, sequence)
	}
	return nil
}

// settleInstallment marks the installment paid and runs the state and clone
// sync passes, all inside the caller's transaction.
func (s *entryService) settleInstallment(ctx context.Context, tx pgx.Tx, entry *domain.Entry, inst *domain.Installment, req dto.PayInstallmentRequest, userID string) error {
	prev := PreviousState{Status: entry.Status, Amount: entry.Amount}
	now := s.now()

	paymentDate := req.PaymentDate
	inst.Status = domain.StatusPaid
	inst.PaymentDate = &paymentDate
	if req.InterestAmount != nil {
		inst.InterestAmount = *req.InterestAmount
	}
	if req.PenaltyAmount != nil {
		inst.PenaltyAmount = *req.PenaltyAmount
	}
	if req.DiscountAmount != nil {
		inst.DiscountAmount = *req.DiscountAmount
	}
	if req.TotalAmount != nil {
		inst.TotalAmount = *req.TotalAmount
	}
	inst.LastUpdatedAt = now
	inst.LastUpdatedBy = userID

	if err := s.entryRepo.UpdateInstallment(ctx, tx, *inst); err != nil {
		return fmt.Errorf("failed to update installment %s: %w", inst.InstallmentID, err)
	}

	// Settlement can adjust the installment total; keep the entry amount in
	// step so the balance transition settles what was actually paid.
	newAmount := sumInstallmentTotals(entry.Installments)
	if !newAmount.Equal(entry.Amount) {
		entry.Amount = newAmount
		entry.LastUpdatedAt = now
		entry.LastUpdatedBy = userID
		if err := s.entryRepo.UpdateEntry(ctx, tx, *entry); err != nil {
			return fmt.Errorf("failed to update entry amount for %s: %w", entry.EntryID, err)
		}
	}

	if _, err := s.engine.SyncEntryState(ctx, tx, entry.EntryID, prev, userID); err != nil {
		return err
	}
	if _, err := s.cloneSync.Sync(ctx, tx, entry.EntryID, userID); err != nil {
		return err
	}
	return nil
}

// PayInstallment settles one installment and re-derives the entry's state.
// For a plan parent the linked clone is brought into lockstep by the
// synchronizer and carries the actual balance effect.
func (s *entryService) PayInstallment(ctx context.Context, entryID string, sequence int, req dto.PayInstallmentRequest, userID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	inst, err := findInstallmentBySequence(entry, sequence)
	if err != nil {
		return nil, err
	}
	if err := ensureSettleable(inst, sequence); err != nil {
		return nil, err
	}

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	if err := s.settleInstallment(ctx, tx, entry, inst, req, userID); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Installment paid", slog.String("entry_id", entryID), slog.Int("sequence", sequence))
	return s.entryRepo.FindEntryByID(ctx, entryID)
}

// CancelEntry cancels an entry: open installments flip to Cancelled while
// paid ones keep their settlement record, the entry itself becomes
// terminally Cancelled, and any previously settled balance is reversed
// using the original amount.
func (s *entryService) CancelEntry(ctx context.Context, entryID string, userID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status == domain.StatusCancelled {
		return entry, nil
	}
	prev := PreviousState{Status: entry.Status, Amount: entry.Amount}
	now := s.now()

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	// The terminal status is written explicitly: paid installments stay
	// Paid, so derivation alone would not reach Cancelled.
	entry.Status = domain.StatusCancelled
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID
	if err := s.entryRepo.UpdateEntry(ctx, tx, *entry); err != nil {
		return nil, fmt.Errorf("failed to mark entry %s cancelled: %w", entryID, err)
	}
	if err := s.entryRepo.CancelOpenInstallments(ctx, tx, entryID, userID, now); err != nil {
		return nil, fmt.Errorf("failed to cancel installments of entry %s: %w", entryID, err)
	}
	if _, err := s.engine.SyncEntryState(ctx, tx, entryID, prev, userID); err != nil {
		return nil, err
	}
	if _, err := s.cloneSync.Sync(ctx, tx, entryID, userID); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Entry cancelled", slog.String("entry_id", entryID))
	return s.entryRepo.FindEntryByID(ctx, entryID)
}

// DeleteEntry soft-deletes an entry (and, for plan parents, its clones).
// Settled entries are rejected: their balance effect must be reversed via
// cancel first. The read side drops the entry at the next cache generation.
func (s *entryService) DeleteEntry(ctx context.Context, entryID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status == domain.StatusPaid {
		return fmt.Errorf("%w: entry %s", apperrors.ErrEntrySettled, entryID)
	}
	if entry.CloneOf == nil && entry.InstallmentsCount > 1 && entry.PaidInstallments > 0 {
		return fmt.Errorf("%w: entry %s has paid installments", apperrors.ErrEntrySettled, entryID)
	}
	now := s.now()

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	affected := []string{entry.AccountID}
	if entry.CounterAccountID != nil {
		affected = append(affected, *entry.CounterAccountID)
	}

	if entry.IsPlanParent() {
		clones, err := s.entryRepo.FindClonesByParentID(ctx, tx, entryID)
		if err != nil {
			return fmt.Errorf("failed to load clones of entry %s: %w", entryID, err)
		}
		for i := range clones {
			if err := s.entryRepo.SoftDeleteEntry(ctx, tx, clones[i].EntryID, userID, now); err != nil {
				return fmt.Errorf("failed to delete clone %s: %w", clones[i].EntryID, err)
			}
		}
	}

	if err := s.entryRepo.SoftDeleteEntry(ctx, tx, entryID, userID, now); err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", entryID, err)
	}

	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return err
	}

	if err := s.publisher.PublishBalancesRefresh(ctx, affected); err != nil {
		logger.Warn("Failed to publish balance refresh after delete", slog.String("error", err.Error()))
	}

	logger.Info("Entry deleted", slog.String("entry_id", entryID))
	return nil
}

// ConfirmStatementMatch settles an installment from a confirmed bank
// statement match, recording the statement reference as import provenance.
// Provenance and payment are written in one transaction, so a failed
// settlement never leaves a confirmed-but-unpaid marker behind.
func (s *entryService) ConfirmStatementMatch(ctx context.Context, entryID string, sequence int, req dto.ConfirmMatchRequest, userID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	inst, err := findInstallmentBySequence(entry, sequence)
	if err != nil {
		return nil, err
	}
	if err := ensureSettleable(inst, sequence); err != nil {
		return nil, err
	}

	if inst.Meta == nil {
		inst.Meta = make(map[string]string)
	}
	inst.Meta["statement_ref"] = req.StatementRef
	inst.Meta["match_status"] = "confirmed"

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	payReq := dto.PayInstallmentRequest{
		PaymentDate: req.PaymentDate,
		TotalAmount: req.TotalAmount,
	}
	if err := s.settleInstallment(ctx, tx, entry, inst, payReq, userID); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Statement match confirmed", slog.String("entry_id", entryID), slog.Int("sequence", sequence))
	return s.entryRepo.FindEntryByID(ctx, entryID)
}

// IgnoreStatementMatch records that a proposed statement match was
// dismissed; no state transition happens.
func (s *entryService) IgnoreStatementMatch(ctx context.Context, entryID string, sequence int, statementRef string, userID string) error {
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	inst, err := findInstallmentBySequence(entry, sequence)
	if err != nil {
		return err
	}
	if inst.Meta == nil {
		inst.Meta = make(map[string]string)
	}
	inst.Meta["statement_ref"] = statementRef
	inst.Meta["match_status"] = "ignored"
	inst.LastUpdatedAt = s.now()
	inst.LastUpdatedBy = userID

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	if err := s.entryRepo.UpdateInstallment(ctx, tx, *inst); err != nil {
		return fmt.Errorf("failed to record ignored match on installment %s: %w", inst.InstallmentID, err)
	}
	return s.entryRepo.Commit(ctx, tx)
}

// sumInstallmentTotals adds up the total amounts of all non-cancelled
// installments.
func sumInstallmentTotals(installments []domain.Installment) decimal.Decimal {
	sum := decimal.Zero
	for i := range installments {
		if installments[i].Status == domain.StatusCancelled {
			continue
		}
		sum = sum.Add(installments[i].TotalAmount)
	}
	return sum
}
