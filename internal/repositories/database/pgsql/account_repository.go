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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, name, currency_code, opening_balance, opening_balance_date, current_balance, credit_limit, category, alert_threshold, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Name,
		&m.CurrencyCode,
		&m.OpeningBalance,
		&m.OpeningBalanceDate,
		&m.CurrentBalance,
		&m.CreditLimit,
		&m.Category,
		&m.AlertThreshold,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	modelAcc := mapping.ToModelAccount(account)

	query := `
		INSERT INTO financial_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.pool.Exec(ctx, query,
		modelAcc.AccountID,
		modelAcc.Name,
		modelAcc.CurrencyCode,
		modelAcc.OpeningBalance,
		modelAcc.OpeningBalanceDate,
		modelAcc.CurrentBalance,
		modelAcc.CreditLimit,
		modelAcc.Category,
		modelAcc.AlertThreshold,
		modelAcc.IsActive,
		modelAcc.CreatedAt,
		modelAcc.CreatedBy,
		modelAcc.LastUpdatedAt,
		modelAcc.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, modelAcc.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", modelAcc.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM financial_accounts
		WHERE account_id = $1;
	`
	modelAcc, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("account " + accountID)
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}

	domainAcc := mapping.ToDomainAccount(modelAcc)
	return &domainAcc, nil
}

// ListAccounts returns accounts matching the filter, ordered by name.
// Inactive accounts are excluded unless requested. The cost center filter
// keeps accounts that have journal activity allocated to that cost center.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, filter domain.SummaryFilter) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM financial_accounts a
		WHERE 1=1
	`
	args := []any{}
	argPos := 1

	if !filter.IncludeInactive {
		query += " AND a.is_active = TRUE"
	}
	if filter.AccountID != nil {
		query += fmt.Sprintf(" AND a.account_id = $%d", argPos)
		args = append(args, *filter.AccountID)
		argPos++
	}
	if filter.Category != nil {
		query += fmt.Sprintf(" AND a.category = $%d", argPos)
		args = append(args, string(*filter.Category))
		argPos++
	}
	if filter.CostCenterID != nil {
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM journal_entries e
			WHERE e.account_id = a.account_id
			  AND e.deleted_at IS NULL
			  AND (e.cost_center_id = $%d OR EXISTS (
				SELECT 1 FROM journal_entry_allocations al
				WHERE al.entry_id = e.entry_id AND al.cost_center_id = $%d))
		)`, argPos, argPos)
		args = append(args, *filter.CostCenterID)
		argPos++
	}
	query += " ORDER BY a.name;"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, mapping.ToDomainAccount(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading account rows: %w", err)
	}
	return accounts, nil
}

// FindAccountsByIDsForUpdate locks the given accounts FOR UPDATE within the
// transaction and returns them keyed by id. Rows are locked in account_id
// order so concurrent transfers over the same pair never deadlock.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM financial_accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts for update: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accounts[m.AccountID] = mapping.ToDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading locked account rows: %w", err)
	}

	for _, id := range accountIDs {
		if _, ok := accounts[id]; !ok {
			return nil, apperrors.NewNotFoundError("account " + id)
		}
	}
	return accounts, nil
}

// ApplyBalanceDeltas adds each delta to current_balance inside the given
// transaction. The caller must already hold row locks on all accounts.
func (r *PgxAccountRepository) ApplyBalanceDeltas(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, now time.Time) error {
	if len(deltas) == 0 {
		return nil
	}

	query := `
		UPDATE financial_accounts
		SET current_balance = current_balance + $1,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE account_id = $4;
	`
	batch := &pgx.Batch{}
	for accountID, delta := range deltas {
		if delta.IsZero() {
			continue
		}
		batch.Queue(query, delta, now, userID, accountID)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to apply balance deltas: %w", err)
	}
	return nil
}
