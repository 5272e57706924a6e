package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/core/domain"
)

// BalanceReadRepositoryFacade serves the aggregator's read-side queries.
// These run outside any transaction and take no locks.
type BalanceReadRepositoryFacade interface {
	// FindScheduledDeltas aggregates not-yet-settled installment totals per
	// account, including both transfer legs. Plan parents are skipped.
	FindScheduledDeltas(ctx context.Context, accountIDs []string) (map[string]domain.ScheduledDelta, error)

	FindLastMovementDates(ctx context.Context, accountIDs []string) (map[string]time.Time, error)

	// FindDailyNetSettled returns the net settled movement per day (keyed
	// by YYYY-MM-DD) across the given accounts within [from, to].
	FindDailyNetSettled(ctx context.Context, accountIDs []string, from, to time.Time) (map[string]decimal.Decimal, error)
}

// AlertRepositoryFacade persists standing low-balance alerts.
type AlertRepositoryFacade interface {
	FindActiveAlerts(ctx context.Context) (map[string]domain.BalanceAlert, error)

	// UpsertActiveAlert inserts or refreshes an active alert, preserving the
	// earliest occurred_at of the standing record.
	UpsertActiveAlert(ctx context.Context, alert domain.BalanceAlert) error

	ResolveAlert(ctx context.Context, alertKey string, resolvedAt time.Time) error
}
