package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imovelhub/backoffice/internal/apperrors"
	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	"github.com/imovelhub/backoffice/internal/models"
	"github.com/imovelhub/backoffice/internal/utils/mapping"
	"github.com/imovelhub/backoffice/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `entry_id, entry_type, account_id, counter_account_id, cost_center_id, property_id, person_id, description, notes, reference_code, origin, clone_of, movement_date, due_date, payment_date, amount, currency_code, status, installments_count, paid_installments, created_at, created_by, last_updated_at, last_updated_by`

const installmentColumns = `installment_id, entry_id, sequence, movement_date, due_date, payment_date, principal_amount, interest_amount, penalty_amount, discount_amount, total_amount, status, linked_entry_id, parcel_label, parcel_number, parcel_total, source_entry_id, source_installment_id, meta, created_at, created_by, last_updated_at, last_updated_by`

// planParentFilter matches entries that only exist to drive clone
// generation; they are hidden from operational listings.
const planParentFilter = `(origin = 'INSTALLMENT_PLAN' AND clone_of IS NULL AND installments_count > 1)`

type PgxEntryRepository struct {
	BaseRepository
}

// newPgxEntryRepository creates a new repository for journal entry data.
func newPgxEntryRepository(pool *pgxpool.Pool) portsrepo.EntryRepositoryFacade {
	return &PgxEntryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxEntryRepository implements portsrepo.EntryRepositoryFacade
var _ portsrepo.EntryRepositoryFacade = (*PgxEntryRepository)(nil)

func scanEntry(row pgx.Row) (models.Entry, error) {
	var m models.Entry
	err := row.Scan(
		&m.EntryID,
		&m.EntryType,
		&m.AccountID,
		&m.CounterAccountID,
		&m.CostCenterID,
		&m.PropertyID,
		&m.PersonID,
		&m.Description,
		&m.Notes,
		&m.ReferenceCode,
		&m.Origin,
		&m.CloneOf,
		&m.MovementDate,
		&m.DueDate,
		&m.PaymentDate,
		&m.Amount,
		&m.CurrencyCode,
		&m.Status,
		&m.InstallmentsCount,
		&m.PaidInstallments,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanInstallment(row pgx.Row) (models.Installment, error) {
	var m models.Installment
	err := row.Scan(
		&m.InstallmentID,
		&m.EntryID,
		&m.Sequence,
		&m.MovementDate,
		&m.DueDate,
		&m.PaymentDate,
		&m.PrincipalAmount,
		&m.InterestAmount,
		&m.PenaltyAmount,
		&m.DiscountAmount,
		&m.TotalAmount,
		&m.Status,
		&m.LinkedEntryID,
		&m.ParcelLabel,
		&m.ParcelNumber,
		&m.ParcelTotal,
		&m.SourceEntryID,
		&m.SourceInstallmentID,
		&m.Meta,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveEntry inserts the entry row. Installments and allocations go through
// the Replace methods in the same transaction.
func (r *PgxEntryRepository) SaveEntry(ctx context.Context, tx pgx.Tx, entry domain.Entry) error {
	m := mapping.ToModelEntry(entry)
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24);
	`
	_, err := tx.Exec(ctx, query,
		m.EntryID, m.EntryType, m.AccountID, m.CounterAccountID, m.CostCenterID,
		m.PropertyID, m.PersonID, m.Description, m.Notes, m.ReferenceCode,
		m.Origin, m.CloneOf, m.MovementDate, m.DueDate, m.PaymentDate,
		m.Amount, m.CurrencyCode, m.Status, m.InstallmentsCount, m.PaidInstallments,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: entry with ID %s already exists", apperrors.ErrDuplicate, m.EntryID)
		}
		return fmt.Errorf("failed to insert entry %s: %w", m.EntryID, err)
	}
	return nil
}

// UpdateEntry rewrites the mutable entry row fields.
func (r *PgxEntryRepository) UpdateEntry(ctx context.Context, tx pgx.Tx, entry domain.Entry) error {
	m := mapping.ToModelEntry(entry)
	query := `
		UPDATE journal_entries
		SET entry_type = $2, account_id = $3, counter_account_id = $4,
		    cost_center_id = $5, property_id = $6, person_id = $7,
		    description = $8, notes = $9, reference_code = $10, origin = $11,
		    movement_date = $12, due_date = $13, amount = $14,
		    currency_code = $15, installments_count = $16,
		    last_updated_at = $17, last_updated_by = $18
		WHERE entry_id = $1 AND deleted_at IS NULL;
	`
	tag, err := tx.Exec(ctx, query,
		m.EntryID, m.EntryType, m.AccountID, m.CounterAccountID, m.CostCenterID,
		m.PropertyID, m.PersonID, m.Description, m.Notes, m.ReferenceCode,
		m.Origin, m.MovementDate, m.DueDate, m.Amount, m.CurrencyCode,
		m.InstallmentsCount, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", m.EntryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("entry " + m.EntryID)
	}
	return nil
}

// ReplaceInstallments deletes and reinserts the entry's installments.
func (r *PgxEntryRepository) ReplaceInstallments(ctx context.Context, tx pgx.Tx, entryID string, installments []domain.Installment) error {
	if _, err := tx.Exec(ctx, `DELETE FROM journal_entry_installments WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("failed to clear installments of entry %s: %w", entryID, err)
	}
	if len(installments) == 0 {
		return nil
	}

	query := `
		INSERT INTO journal_entry_installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23);
	`
	batch := &pgx.Batch{}
	for i := range installments {
		m := mapping.ToModelInstallment(installments[i])
		batch.Queue(query,
			m.InstallmentID, m.EntryID, m.Sequence, m.MovementDate, m.DueDate,
			m.PaymentDate, m.PrincipalAmount, m.InterestAmount, m.PenaltyAmount,
			m.DiscountAmount, m.TotalAmount, m.Status, m.LinkedEntryID,
			m.ParcelLabel, m.ParcelNumber, m.ParcelTotal, m.SourceEntryID,
			m.SourceInstallmentID, m.Meta,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert installments of entry %s: %w", entryID, err)
	}
	return nil
}

// ReplaceAllocations deletes and reinserts the entry's allocations.
func (r *PgxEntryRepository) ReplaceAllocations(ctx context.Context, tx pgx.Tx, entryID string, allocations []domain.Allocation) error {
	if _, err := tx.Exec(ctx, `DELETE FROM journal_entry_allocations WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("failed to clear allocations of entry %s: %w", entryID, err)
	}
	if len(allocations) == 0 {
		return nil
	}

	query := `
		INSERT INTO journal_entry_allocations (allocation_id, entry_id, cost_center_id, property_id, percent, amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for i := range allocations {
		m := mapping.ToModelAllocation(allocations[i])
		batch.Queue(query,
			m.AllocationID, m.EntryID, m.CostCenterID, m.PropertyID,
			m.Percent, m.Amount,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert allocations of entry %s: %w", entryID, err)
	}
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PgxEntryRepository) findEntry(ctx context.Context, q queryer, entryID string) (*domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE entry_id = $1 AND deleted_at IS NULL;
	`
	m, err := scanEntry(q.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("entry " + entryID)
		}
		return nil, fmt.Errorf("failed to find entry by ID %s: %w", entryID, err)
	}
	entry := mapping.ToDomainEntry(m)

	installments, err := r.loadInstallments(ctx, q, entryID)
	if err != nil {
		return nil, err
	}
	entry.Installments = installments

	allocations, err := r.loadAllocations(ctx, q, entryID)
	if err != nil {
		return nil, err
	}
	entry.Allocations = allocations

	return &entry, nil
}

func (r *PgxEntryRepository) loadInstallments(ctx context.Context, q queryer, entryID string) ([]domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM journal_entry_installments
		WHERE entry_id = $1
		ORDER BY sequence;
	`
	rows, err := q.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load installments of entry %s: %w", entryID, err)
	}
	defer rows.Close()

	var installments []domain.Installment
	for rows.Next() {
		m, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		installments = append(installments, mapping.ToDomainInstallment(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading installment rows: %w", err)
	}
	return installments, nil
}

func (r *PgxEntryRepository) loadAllocations(ctx context.Context, q queryer, entryID string) ([]domain.Allocation, error) {
	query := `
		SELECT allocation_id, entry_id, cost_center_id, property_id, percent, amount, created_at, created_by, last_updated_at, last_updated_by
		FROM journal_entry_allocations
		WHERE entry_id = $1;
	`
	rows, err := q.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations of entry %s: %w", entryID, err)
	}
	defer rows.Close()

	var allocations []domain.Allocation
	for rows.Next() {
		var m models.Allocation
		if err := rows.Scan(
			&m.AllocationID, &m.EntryID, &m.CostCenterID, &m.PropertyID,
			&m.Percent, &m.Amount,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		allocations = append(allocations, mapping.ToDomainAllocation(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading allocation rows: %w", err)
	}
	return allocations, nil
}

// FindEntryByID loads an entry with its installments and allocations.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	return r.findEntry(ctx, r.Pool, entryID)
}

// FindEntryByIDTx is FindEntryByID reading through the given transaction,
// so in-flight writes of the same transaction are visible.
func (r *PgxEntryRepository) FindEntryByIDTx(ctx context.Context, tx pgx.Tx, entryID string) (*domain.Entry, error) {
	return r.findEntry(ctx, tx, entryID)
}

// FindClonesByParentID loads the non-deleted clone entries of a plan parent,
// each with its installments.
func (r *PgxEntryRepository) FindClonesByParentID(ctx context.Context, tx pgx.Tx, parentID string) ([]domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE clone_of = $1 AND deleted_at IS NULL
		ORDER BY movement_date, entry_id;
	`
	rows, err := tx.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load clones of entry %s: %w", parentID, err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clone row: %w", err)
		}
		entries = append(entries, mapping.ToDomainEntry(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading clone rows: %w", err)
	}

	for i := range entries {
		installments, err := r.loadInstallments(ctx, tx, entries[i].EntryID)
		if err != nil {
			return nil, err
		}
		entries[i].Installments = installments
	}
	return entries, nil
}

// ListEntries returns a page of entries ordered by movement date then id,
// newest first, with a continuation token.
func (r *PgxEntryRepository) ListEntries(ctx context.Context, params portsrepo.ListEntriesParams) ([]domain.Entry, *string, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE deleted_at IS NULL
	`
	args := []any{}
	argPos := 1

	if !params.IncludePlanParents {
		query += " AND NOT " + planParentFilter
	}
	if params.AccountID != nil {
		query += fmt.Sprintf(" AND (account_id = $%d OR counter_account_id = $%d)", argPos, argPos)
		args = append(args, *params.AccountID)
		argPos++
	}
	if params.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, string(*params.Status))
		argPos++
	}
	if params.NextToken != nil {
		movementDate, entryID, err := pagination.DecodeToken(*params.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += fmt.Sprintf(" AND (movement_date, entry_id) < ($%d, $%d)", argPos, argPos+1)
		args = append(args, movementDate, entryID)
		argPos += 2
	}

	// Fetch one extra row to know whether another page exists.
	query += fmt.Sprintf(" ORDER BY movement_date DESC, entry_id DESC LIMIT $%d;", argPos)
	args = append(args, params.Limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, mapping.ToDomainEntry(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed reading entry rows: %w", err)
	}

	var nextToken *string
	if len(entries) > params.Limit {
		entries = entries[:params.Limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeToken(last.MovementDate, last.EntryID)
		nextToken = &token
	}

	for i := range entries {
		installments, err := r.loadInstallments(ctx, r.Pool, entries[i].EntryID)
		if err != nil {
			return nil, nil, err
		}
		entries[i].Installments = installments
	}
	return entries, nextToken, nil
}

// UpdateDerivedState persists the state engine's output onto the entry row.
func (r *PgxEntryRepository) UpdateDerivedState(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, paidCount int, paymentDate *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $2, paid_installments = $3, payment_date = $4,
		    last_updated_at = $5, last_updated_by = $6
		WHERE entry_id = $1 AND deleted_at IS NULL;
	`
	tag, err := tx.Exec(ctx, query, entryID, string(status), paidCount, paymentDate, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update derived state of entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("entry " + entryID)
	}
	return nil
}

// MarkInstallmentsOverdue escalates planned/pending installments whose due
// date has passed. Returns the number of escalated rows.
func (r *PgxEntryRepository) MarkInstallmentsOverdue(ctx context.Context, tx pgx.Tx, entryID string, asOf time.Time, userID string) (int, error) {
	query := `
		UPDATE journal_entry_installments
		SET status = 'OVERDUE', last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1
		  AND status IN ('PLANNED', 'PENDING')
		  AND due_date < $2;
	`
	tag, err := tx.Exec(ctx, query, entryID, asOf, asOf, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to escalate overdue installments of entry %s: %w", entryID, err)
	}
	return int(tag.RowsAffected()), nil
}

// UpdateInstallment rewrites one installment row.
func (r *PgxEntryRepository) UpdateInstallment(ctx context.Context, tx pgx.Tx, installment domain.Installment) error {
	m := mapping.ToModelInstallment(installment)
	query := `
		UPDATE journal_entry_installments
		SET movement_date = $2, due_date = $3, payment_date = $4,
		    principal_amount = $5, interest_amount = $6, penalty_amount = $7,
		    discount_amount = $8, total_amount = $9, status = $10, meta = $11,
		    last_updated_at = $12, last_updated_by = $13
		WHERE installment_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		m.InstallmentID, m.MovementDate, m.DueDate, m.PaymentDate,
		m.PrincipalAmount, m.InterestAmount, m.PenaltyAmount,
		m.DiscountAmount, m.TotalAmount, m.Status, m.Meta,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update installment %s: %w", m.InstallmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("installment " + m.InstallmentID)
	}
	return nil
}

// UpdateInstallmentLink persists the clone linkage columns on a plan
// parent's installment.
func (r *PgxEntryRepository) UpdateInstallmentLink(ctx context.Context, tx pgx.Tx, installmentID string, linkedEntryID *string, label string, number, total int, userID string, now time.Time) error {
	query := `
		UPDATE journal_entry_installments
		SET linked_entry_id = $2, parcel_label = $3, parcel_number = $4,
		    parcel_total = $5, last_updated_at = $6, last_updated_by = $7
		WHERE installment_id = $1;
	`
	tag, err := tx.Exec(ctx, query, installmentID, linkedEntryID, label, number, total, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update clone link of installment %s: %w", installmentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("installment " + installmentID)
	}
	return nil
}

// ClearInstallmentLinks strips clone linkage from all installments of an
// entry; used when a plan collapses back to a single installment.
func (r *PgxEntryRepository) ClearInstallmentLinks(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error {
	query := `
		UPDATE journal_entry_installments
		SET linked_entry_id = NULL, parcel_label = '', parcel_number = 0,
		    parcel_total = 0, last_updated_at = $2, last_updated_by = $3
		WHERE entry_id = $1;
	`
	if _, err := tx.Exec(ctx, query, entryID, now, userID); err != nil {
		return fmt.Errorf("failed to clear clone links of entry %s: %w", entryID, err)
	}
	return nil
}

// CancelOpenInstallments flips every non-paid installment of an entry to
// Cancelled. Paid installments keep their settlement record.
func (r *PgxEntryRepository) CancelOpenInstallments(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error {
	query := `
		UPDATE journal_entry_installments
		SET status = 'CANCELLED', last_updated_at = $2, last_updated_by = $3
		WHERE entry_id = $1 AND status <> 'PAID';
	`
	if _, err := tx.Exec(ctx, query, entryID, now, userID); err != nil {
		return fmt.Errorf("failed to cancel open installments of entry %s: %w", entryID, err)
	}
	return nil
}

// SoftDeleteEntry hides an entry from all reads without losing history.
func (r *PgxEntryRepository) SoftDeleteEntry(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error {
	query := `
		UPDATE journal_entries
		SET deleted_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE entry_id = $1 AND deleted_at IS NULL;
	`
	tag, err := tx.Exec(ctx, query, entryID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to soft delete entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("entry " + entryID)
	}
	return nil
}

// HardDeleteEntries removes entries with their installments and allocations.
// Only used for clone entries that lost their source installment.
func (r *PgxEntryRepository) HardDeleteEntries(ctx context.Context, tx pgx.Tx, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM journal_entry_installments WHERE entry_id = ANY($1);`, entryIDs); err != nil {
		return fmt.Errorf("failed to delete installments of clone entries: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM journal_entry_allocations WHERE entry_id = ANY($1);`, entryIDs); err != nil {
		return fmt.Errorf("failed to delete allocations of clone entries: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = ANY($1);`, entryIDs); err != nil {
		return fmt.Errorf("failed to delete clone entries: %w", err)
	}
	return nil
}
