package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/apperrors"
	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
	"github.com/imovelhub/backoffice/internal/middleware"
)

// PreviousState is the explicit snapshot of an entry before the current
// operation. It is always passed by the caller, never inferred from stored
// state, so amount corrections survive a status change and an amount change
// landing in the same request.
type PreviousState struct {
	Status domain.EntryStatus
	Amount decimal.Decimal
}

// StateEngine recomputes an entry's derived status from its installments
// and applies the corresponding idempotent balance deltas to the affected
// accounts.
type StateEngine struct {
	entryRepo   portsrepo.EntryRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	publisher   portssvc.RefreshPublisher
	now         func() time.Time
}

// NewStateEngine creates a StateEngine.
func NewStateEngine(entryRepo portsrepo.EntryRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, publisher portssvc.RefreshPublisher) *StateEngine {
	return &StateEngine{
		entryRepo:   entryRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// DeriveStatus computes the entry status from its installments. It is a
// pure function of the stored status and the installment multiset.
func DeriveStatus(stored domain.EntryStatus, installments []domain.Installment) domain.EntryStatus {
	// Cancelled is terminal; no further automatic derivation.
	if stored == domain.StatusCancelled {
		return domain.StatusCancelled
	}
	if len(installments) == 0 {
		return domain.StatusPlanned
	}

	allCancelled := true
	allPaid := true
	anyOverdue := false
	for _, inst := range installments {
		if inst.Status != domain.StatusCancelled {
			allCancelled = false
		}
		if inst.Status != domain.StatusPaid {
			allPaid = false
		}
		if inst.Status == domain.StatusOverdue {
			anyOverdue = true
		}
	}

	switch {
	case allCancelled:
		return domain.StatusCancelled
	case allPaid:
		return domain.StatusPaid
	case anyOverdue:
		return domain.StatusOverdue
	default:
		// Explicit permissive fallback: any combination not enumerated
		// above is treated as Pending.
		return domain.StatusPending
	}
}

// EscalateOverdue flips planned/pending installments whose due date has
// passed to Overdue, in place, and returns the indexes it changed.
func EscalateOverdue(installments []domain.Installment, asOf time.Time) []int {
	var changed []int
	for i := range installments {
		st := installments[i].Status
		if (st == domain.StatusPlanned || st == domain.StatusPending) && installments[i].DueDate.Before(asOf) {
			installments[i].Status = domain.StatusOverdue
			changed = append(changed, i)
		}
	}
	return changed
}

// paidStats returns the paid-installment count and the latest payment date
// among paid installments.
func paidStats(installments []domain.Installment) (int, *time.Time) {
	count := 0
	var latest *time.Time
	for i := range installments {
		if installments[i].Status != domain.StatusPaid {
			continue
		}
		count++
		if pd := installments[i].PaymentDate; pd != nil {
			if latest == nil || pd.After(*latest) {
				latest = pd
			}
		}
	}
	return count, latest
}

// balanceEffect computes the settlement amount to apply for the transition
// from prev to next. The bool is false when there is no balance effect.
func balanceEffect(prev PreviousState, next domain.EntryStatus, currentAmount decimal.Decimal) (decimal.Decimal, bool) {
	switch {
	case prev.Status == next:
		// Only a paid entry whose amount changed needs a correction.
		if next == domain.StatusPaid && !currentAmount.Equal(prev.Amount) {
			return currentAmount.Sub(prev.Amount), true
		}
		return decimal.Zero, false
	case next == domain.StatusPaid:
		return currentAmount, true
	case prev.Status == domain.StatusPaid:
		// Reverse using the original amount, not the current one.
		return prev.Amount.Neg(), true
	default:
		return decimal.Zero, false
	}
}

// SyncEntryState derives the entry's status from its installments, persists
// the derived state, and applies the balance transition for the move from
// prev to the newly derived status. It must run inside the enclosing
// transaction of the top-level operation.
func (e *StateEngine) SyncEntryState(ctx context.Context, tx pgx.Tx, entryID string, prev PreviousState, userID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := e.now()

	entry, err := e.entryRepo.FindEntryByIDTx(ctx, tx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry %s for state sync: %w", entryID, err)
	}

	if entry.Status != domain.StatusCancelled {
		if _, err := e.entryRepo.MarkInstallmentsOverdue(ctx, tx, entryID, now, userID); err != nil {
			return nil, fmt.Errorf("failed to escalate overdue installments for entry %s: %w", entryID, err)
		}
		EscalateOverdue(entry.Installments, now)
	}

	newStatus := DeriveStatus(entry.Status, entry.Installments)
	paidCount, latestPayment := paidStats(entry.Installments)

	if err := e.entryRepo.UpdateDerivedState(ctx, tx, entryID, newStatus, paidCount, latestPayment, userID, now); err != nil {
		return nil, fmt.Errorf("failed to persist derived state for entry %s: %w", entryID, err)
	}

	oldStatus := entry.Status
	entry.Status = newStatus
	entry.PaidInstallments = paidCount
	entry.PaymentDate = latestPayment

	// Multi-installment non-clone entries never settle directly; their
	// clones carry the effect. The shape decides, not the stored origin:
	// within a transaction the synchronizer may not have stamped
	// INSTALLMENT_PLAN on a freshly written entry yet.
	if entry.CloneOf == nil && entry.InstallmentsCount > 1 {
		logger.Debug("Skipping balance transition for plan parent", slog.String("entry_id", entryID))
		return entry, nil
	}

	effect, apply := balanceEffect(prev, newStatus, entry.Amount)
	if !apply {
		return entry, nil
	}

	if err := e.applyEffect(ctx, tx, entry, effect, userID, now); err != nil {
		return nil, err
	}

	logger.Info("Balance transition applied",
		slog.String("entry_id", entryID),
		slog.String("from", string(oldStatus)),
		slog.String("to", string(newStatus)),
		slog.String("effect", effect.String()),
	)

	return entry, nil
}

// ReverseSettlement backs a settled entry's amount out of the affected
// account balances. Used when a paid entry is removed outright instead of
// transitioning, so the applied amount does not strand in the balance.
// Non-paid entries have nothing applied and are a no-op.
func (e *StateEngine) ReverseSettlement(ctx context.Context, tx pgx.Tx, entry *domain.Entry, userID string) error {
	if entry.Status != domain.StatusPaid {
		return nil
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := e.applyEffect(ctx, tx, entry, entry.Amount.Neg(), userID, e.now()); err != nil {
		return err
	}

	logger.Info("Settled amount reversed before removal",
		slog.String("entry_id", entry.EntryID),
		slog.String("amount", entry.Amount.String()),
	)
	return nil
}

// applyEffect maps a settlement effect to per-account deltas, locks the
// account rows, applies the deltas and signals the refresh channel.
func (e *StateEngine) applyEffect(ctx context.Context, tx pgx.Tx, entry *domain.Entry, effect decimal.Decimal, userID string, now time.Time) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	deltas := make(map[string]decimal.Decimal)
	switch entry.Type {
	case domain.TypeRevenue:
		deltas[entry.AccountID] = effect
	case domain.TypeExpense:
		deltas[entry.AccountID] = effect.Neg()
	case domain.TypeTransfer:
		if entry.CounterAccountID == nil {
			return fmt.Errorf("transfer entry %s has no counter account: %w", entry.EntryID, apperrors.ErrInvalidTransfer)
		}
		deltas[entry.AccountID] = effect.Neg()
		deltas[*entry.CounterAccountID] = effect
	default:
		return fmt.Errorf("unknown entry type %q for entry %s", entry.Type, entry.EntryID)
	}

	accountIDs := make([]string, 0, len(deltas))
	for id := range deltas {
		accountIDs = append(accountIDs, id)
	}

	// Lock before read-modify-write; the repository orders locks by
	// account id so opposite-direction transfers cannot deadlock.
	if _, err := e.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return fmt.Errorf("failed to lock accounts for balance transition: %w", err)
	}
	if err := e.accountRepo.ApplyBalanceDeltas(ctx, tx, deltas, userID, now); err != nil {
		return fmt.Errorf("failed to apply balance deltas for entry %s: %w", entry.EntryID, err)
	}

	if err := e.publisher.PublishBalancesRefresh(ctx, accountIDs); err != nil {
		// The cache generation heals itself on the next bump; a failed
		// publish only extends staleness by the cache TTL.
		logger.Warn("Failed to publish balance refresh signal", slog.String("error", err.Error()))
	}
	return nil
}
