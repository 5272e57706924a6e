package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxBalanceReadRepository struct {
	pool *pgxpool.Pool
}

// newPgxBalanceReadRepository creates the read-side reporting repository.
func newPgxBalanceReadRepository(pool *pgxpool.Pool) portsrepo.BalanceReadRepositoryFacade {
	return &PgxBalanceReadRepository{pool: pool}
}

// Ensure PgxBalanceReadRepository implements portsrepo.BalanceReadRepositoryFacade
var _ portsrepo.BalanceReadRepositoryFacade = (*PgxBalanceReadRepository)(nil)

// FindScheduledDeltas aggregates the not-yet-settled installment totals per
// account. Revenue installments count as incoming, expense as outgoing, and
// both transfer legs are counted from their own side. Plan parents never
// contribute; their clones do.
func (r *PgxBalanceReadRepository) FindScheduledDeltas(ctx context.Context, accountIDs []string) (map[string]domain.ScheduledDelta, error) {
	deltas := make(map[string]domain.ScheduledDelta, len(accountIDs))
	if len(accountIDs) == 0 {
		return deltas, nil
	}

	query := `
		SELECT t.account_id, SUM(t.incoming), SUM(t.outgoing)
		FROM (
			SELECT e.account_id,
			       CASE WHEN e.entry_type = 'REVENUE' THEN i.total_amount ELSE 0 END AS incoming,
			       CASE WHEN e.entry_type IN ('EXPENSE', 'TRANSFER') THEN i.total_amount ELSE 0 END AS outgoing
			FROM journal_entry_installments i
			JOIN journal_entries e ON e.entry_id = i.entry_id
			WHERE e.deleted_at IS NULL
			  AND i.status IN ('PLANNED', 'PENDING', 'OVERDUE')
			  AND NOT ` + planParentFilter + `
			  AND e.account_id = ANY($1)
			UNION ALL
			SELECT e.counter_account_id, i.total_amount, 0
			FROM journal_entry_installments i
			JOIN journal_entries e ON e.entry_id = i.entry_id
			WHERE e.deleted_at IS NULL
			  AND i.status IN ('PLANNED', 'PENDING', 'OVERDUE')
			  AND NOT ` + planParentFilter + `
			  AND e.entry_type = 'TRANSFER'
			  AND e.counter_account_id = ANY($1)
		) t
		GROUP BY t.account_id;
	`
	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scheduled deltas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var delta domain.ScheduledDelta
		if err := rows.Scan(&delta.AccountID, &delta.Incoming, &delta.Outgoing); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled delta row: %w", err)
		}
		deltas[delta.AccountID] = delta
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading scheduled delta rows: %w", err)
	}
	return deltas, nil
}

// FindLastMovementDates returns the latest settled payment date per account,
// counting both legs of transfers.
func (r *PgxBalanceReadRepository) FindLastMovementDates(ctx context.Context, accountIDs []string) (map[string]time.Time, error) {
	dates := make(map[string]time.Time, len(accountIDs))
	if len(accountIDs) == 0 {
		return dates, nil
	}

	query := `
		SELECT t.account_id, MAX(t.payment_date)
		FROM (
			SELECT e.account_id, i.payment_date
			FROM journal_entry_installments i
			JOIN journal_entries e ON e.entry_id = i.entry_id
			WHERE e.deleted_at IS NULL
			  AND i.status = 'PAID'
			  AND i.payment_date IS NOT NULL
			  AND e.account_id = ANY($1)
			UNION ALL
			SELECT e.counter_account_id, i.payment_date
			FROM journal_entry_installments i
			JOIN journal_entries e ON e.entry_id = i.entry_id
			WHERE e.deleted_at IS NULL
			  AND i.status = 'PAID'
			  AND i.payment_date IS NOT NULL
			  AND e.entry_type = 'TRANSFER'
			  AND e.counter_account_id = ANY($1)
		) t
		GROUP BY t.account_id;
	`
	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load last movement dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var accountID string
		var last time.Time
		if err := rows.Scan(&accountID, &last); err != nil {
			return nil, fmt.Errorf("failed to scan last movement row: %w", err)
		}
		dates[accountID] = last
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading last movement rows: %w", err)
	}
	return dates, nil
}

// FindDailyNetSettled returns the net settled movement per day (keyed by
// YYYY-MM-DD) across the given accounts within [from, to]. Transfers between
// two accounts of the set net out to zero for that day.
func (r *PgxBalanceReadRepository) FindDailyNetSettled(ctx context.Context, accountIDs []string, from, to time.Time) (map[string]decimal.Decimal, error) {
	daily := make(map[string]decimal.Decimal)
	if len(accountIDs) == 0 {
		return daily, nil
	}

	query := `
		SELECT to_char(t.payment_date::date, 'YYYY-MM-DD'), SUM(t.net)
		FROM (
			SELECT i.payment_date,
			       CASE WHEN e.entry_type = 'REVENUE' THEN i.total_amount ELSE -i.total_amount END AS net
			FROM journal_entry_installments i
			JOIN journal_entries e ON e.entry_id = i.entry_id
			WHERE e.deleted_at IS NULL
			  AND i.status = 'PAID'
			  AND i.payment_date >= $2 AND i.payment_date < $3
			  AND NOT ` + planParentFilter + `
			  AND e.account_id = ANY($1)
			UNION ALL
			SELECT i.payment_date, i.total_amount
			FROM journal_entry_installments i
			JOIN journal_entries e ON e.entry_id = i.entry_id
			WHERE e.deleted_at IS NULL
			  AND i.status = 'PAID'
			  AND i.payment_date >= $2 AND i.payment_date < $3
			  AND NOT ` + planParentFilter + `
			  AND e.entry_type = 'TRANSFER'
			  AND e.counter_account_id = ANY($1)
		) t
		GROUP BY 1;
	`
	rows, err := r.pool.Query(ctx, query, accountIDs, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily settled movement: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var net decimal.Decimal
		if err := rows.Scan(&day, &net); err != nil {
			return nil, fmt.Errorf("failed to scan daily settled row: %w", err)
		}
		daily[day] = net
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading daily settled rows: %w", err)
	}
	return daily, nil
}
