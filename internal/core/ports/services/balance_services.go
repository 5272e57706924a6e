package services

import (
	"context"

	"github.com/imovelhub/backoffice/internal/core/domain"
)

// BalanceSvcFacade is the cached read-side balance aggregation service.
type BalanceSvcFacade interface {
	// AccountBalanceSummary computes (or serves from cache) the per-account
	// and global balance summary for the given filter set.
	AccountBalanceSummary(ctx context.Context, userID string, filter domain.SummaryFilter) (*domain.BalanceSummary, error)

	// InvalidateSummaries bumps the cache generation; cached entries of
	// older generations are never served again.
	InvalidateSummaries(ctx context.Context, accountIDs []string) error
}

// SummaryCache is the versioned cache backing the balance aggregator.
// Invalidation bumps the version counter instead of deleting entries,
// which keeps it O(1) regardless of cached filter combinations.
type SummaryCache interface {
	Version(ctx context.Context) (int64, error)
	Bump(ctx context.Context) (int64, error)
	GetSummary(ctx context.Context, key string) (*domain.BalanceSummary, bool, error)
	SetSummary(ctx context.Context, key string, summary *domain.BalanceSummary) error
}

// RefreshPublisher emits the account-balances-should-refresh signal. It is
// the sole coupling point between the write path and the read-side cache.
type RefreshPublisher interface {
	PublishBalancesRefresh(ctx context.Context, accountIDs []string) error
}
