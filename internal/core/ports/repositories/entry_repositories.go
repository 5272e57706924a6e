package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imovelhub/backoffice/internal/core/domain"
)

// TxManager exposes transaction lifecycle control for orchestration at the
// service layer. Each top-level operation (create, update, pay, cancel)
// runs inside exactly one transaction.
type TxManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// ListEntriesParams controls entry listing. Plan parents are excluded from
// operational listings unless explicitly requested.
type ListEntriesParams struct {
	AccountID         *string
	Status            *domain.EntryStatus
	Limit             int
	NextToken         *string
	IncludePlanParents bool
}

// EntryRepositoryFacade defines persistence operations for journal entries
// and their installments/allocations.
type EntryRepositoryFacade interface {
	TxManager

	// SaveEntry inserts the entry row only; installments and allocations are
	// written through the Replace methods inside the same transaction.
	SaveEntry(ctx context.Context, tx pgx.Tx, entry domain.Entry) error
	UpdateEntry(ctx context.Context, tx pgx.Tx, entry domain.Entry) error

	// ReplaceInstallments and ReplaceAllocations implement the wholesale
	// delete-and-reinsert contract: no stale rows survive a partial edit.
	ReplaceInstallments(ctx context.Context, tx pgx.Tx, entryID string, installments []domain.Installment) error
	ReplaceAllocations(ctx context.Context, tx pgx.Tx, entryID string, allocations []domain.Allocation) error

	// FindEntryByID loads the entry with installments and allocations,
	// skipping soft-deleted entries.
	FindEntryByID(ctx context.Context, entryID string) (*domain.Entry, error)
	FindEntryByIDTx(ctx context.Context, tx pgx.Tx, entryID string) (*domain.Entry, error)
	FindClonesByParentID(ctx context.Context, tx pgx.Tx, parentID string) ([]domain.Entry, error)
	ListEntries(ctx context.Context, params ListEntriesParams) ([]domain.Entry, *string, error)

	// UpdateDerivedState persists the state engine's output onto the entry.
	UpdateDerivedState(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, paidCount int, paymentDate *time.Time, userID string, now time.Time) error

	// MarkInstallmentsOverdue escalates planned/pending installments whose
	// due date has passed. Returns the number of escalated rows.
	MarkInstallmentsOverdue(ctx context.Context, tx pgx.Tx, entryID string, asOf time.Time, userID string) (int, error)

	UpdateInstallment(ctx context.Context, tx pgx.Tx, installment domain.Installment) error

	// UpdateInstallmentLink persists the clone linkage columns on a plan
	// parent's installment.
	UpdateInstallmentLink(ctx context.Context, tx pgx.Tx, installmentID string, linkedEntryID *string, label string, number, total int, userID string, now time.Time) error

	// ClearInstallmentLinks strips clone linkage from all installments of an
	// entry (plan collapse path).
	ClearInstallmentLinks(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error

	// CancelOpenInstallments flips every non-paid installment of an entry
	// to Cancelled, preserving paid settlement records.
	CancelOpenInstallments(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error

	SoftDeleteEntry(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error

	// HardDeleteEntries removes entries with their installments and
	// allocations; used for orphaned installment clones.
	HardDeleteEntries(ctx context.Context, tx pgx.Tx, entryIDs []string) error
}
