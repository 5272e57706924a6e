package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	"github.com/imovelhub/backoffice/internal/models"
	"github.com/imovelhub/backoffice/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAlertRepository struct {
	pool *pgxpool.Pool
}

// newPgxAlertRepository creates the repository for standing balance alerts.
func newPgxAlertRepository(pool *pgxpool.Pool) portsrepo.AlertRepositoryFacade {
	return &PgxAlertRepository{pool: pool}
}

// Ensure PgxAlertRepository implements portsrepo.AlertRepositoryFacade
var _ portsrepo.AlertRepositoryFacade = (*PgxAlertRepository)(nil)

// FindActiveAlerts returns all standing alerts keyed by alert key.
func (r *PgxAlertRepository) FindActiveAlerts(ctx context.Context) (map[string]domain.BalanceAlert, error) {
	query := `
		SELECT alert_id, alert_key, account_id, threshold, balance, occurred_at, resolved_at, active
		FROM balance_alerts
		WHERE active = TRUE;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}
	defer rows.Close()

	alerts := make(map[string]domain.BalanceAlert)
	for rows.Next() {
		var m models.BalanceAlert
		if err := rows.Scan(&m.AlertID, &m.AlertKey, &m.AccountID, &m.Threshold, &m.Balance, &m.OccurredAt, &m.ResolvedAt, &m.Active); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alert := mapping.ToDomainBalanceAlert(m)
		alerts[alert.Key] = alert
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading alert rows: %w", err)
	}
	return alerts, nil
}

// UpsertActiveAlert inserts or refreshes a standing alert. On conflict the
// balance and threshold are refreshed but occurred_at keeps the earliest
// value, so the alert records when the account first dropped below.
func (r *PgxAlertRepository) UpsertActiveAlert(ctx context.Context, alert domain.BalanceAlert) error {
	query := `
		INSERT INTO balance_alerts (alert_id, alert_key, account_id, threshold, balance, occurred_at, resolved_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, TRUE)
		ON CONFLICT (alert_key) WHERE active
		DO UPDATE SET threshold = EXCLUDED.threshold,
		              balance = EXCLUDED.balance,
		              occurred_at = LEAST(balance_alerts.occurred_at, EXCLUDED.occurred_at);
	`
	if _, err := r.pool.Exec(ctx, query,
		alert.AlertID, alert.Key, alert.AccountID, alert.Threshold, alert.Balance, alert.OccurredAt,
	); err != nil {
		return fmt.Errorf("failed to upsert alert %s: %w", alert.Key, err)
	}
	return nil
}

// ResolveAlert closes the standing alert for the given key.
func (r *PgxAlertRepository) ResolveAlert(ctx context.Context, alertKey string, resolvedAt time.Time) error {
	query := `
		UPDATE balance_alerts
		SET active = FALSE, resolved_at = $2
		WHERE alert_key = $1 AND active = TRUE;
	`
	if _, err := r.pool.Exec(ctx, query, alertKey, resolvedAt); err != nil {
		return fmt.Errorf("failed to resolve alert %s: %w", alertKey, err)
	}
	return nil
}
