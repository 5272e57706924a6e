package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/core/domain"
)

// AccountRepositoryFacade defines persistence operations for bank accounts.
type AccountRepositoryFacade interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter domain.SummaryFilter) ([]domain.Account, error)

	// FindAccountsByIDsForUpdate locks the account rows (FOR UPDATE, ordered
	// by account_id so concurrent transfers on the same pair never deadlock)
	// and returns them keyed by id. Must be called within a transaction.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// ApplyBalanceDeltas adds each delta to current_balance inside the given
	// transaction. Rows must already be locked by the caller.
	ApplyBalanceDeltas(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, now time.Time) error
}
