package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
)

// --- Mock EntryRepository ---

type MockEntryRepository struct {
	mock.Mock
}

var _ portsrepo.EntryRepositoryFacade = (*MockEntryRepository)(nil)

func (m *MockEntryRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockEntryRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockEntryRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockEntryRepository) SaveEntry(ctx context.Context, tx pgx.Tx, entry domain.Entry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) UpdateEntry(ctx context.Context, tx pgx.Tx, entry domain.Entry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) ReplaceInstallments(ctx context.Context, tx pgx.Tx, entryID string, installments []domain.Installment) error {
	args := m.Called(ctx, tx, entryID, installments)
	return args.Error(0)
}

func (m *MockEntryRepository) ReplaceAllocations(ctx context.Context, tx pgx.Tx, entryID string, allocations []domain.Allocation) error {
	args := m.Called(ctx, tx, entryID, allocations)
	return args.Error(0)
}

func (m *MockEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockEntryRepository) FindEntryByIDTx(ctx context.Context, tx pgx.Tx, entryID string) (*domain.Entry, error) {
	args := m.Called(ctx, tx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockEntryRepository) FindClonesByParentID(ctx context.Context, tx pgx.Tx, parentID string) ([]domain.Entry, error) {
	args := m.Called(ctx, tx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entry), args.Error(1)
}

func (m *MockEntryRepository) ListEntries(ctx context.Context, params portsrepo.ListEntriesParams) ([]domain.Entry, *string, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var nextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		nextToken = &tokenVal
	}
	return args.Get(0).([]domain.Entry), nextToken, args.Error(2)
}

func (m *MockEntryRepository) UpdateDerivedState(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, paidCount int, paymentDate *time.Time, userID string, now time.Time) error {
	args := m.Called(ctx, tx, entryID, status, paidCount, paymentDate, userID, now)
	return args.Error(0)
}

func (m *MockEntryRepository) MarkInstallmentsOverdue(ctx context.Context, tx pgx.Tx, entryID string, asOf time.Time, userID string) (int, error) {
	args := m.Called(ctx, tx, entryID, asOf, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockEntryRepository) UpdateInstallment(ctx context.Context, tx pgx.Tx, installment domain.Installment) error {
	args := m.Called(ctx, tx, installment)
	return args.Error(0)
}

func (m *MockEntryRepository) UpdateInstallmentLink(ctx context.Context, tx pgx.Tx, installmentID string, linkedEntryID *string, label string, number, total int, userID string, now time.Time) error {
	args := m.Called(ctx, tx, installmentID, linkedEntryID, label, number, total, userID, now)
	return args.Error(0)
}

func (m *MockEntryRepository) ClearInstallmentLinks(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, entryID, userID, now)
	return args.Error(0)
}

func (m *MockEntryRepository) CancelOpenInstallments(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, entryID, userID, now)
	return args.Error(0)
}

func (m *MockEntryRepository) SoftDeleteEntry(ctx context.Context, tx pgx.Tx, entryID string, userID string, now time.Time) error {
	args := m.Called(ctx, tx, entryID, userID, now)
	return args.Error(0)
}

func (m *MockEntryRepository) HardDeleteEntries(ctx context.Context, tx pgx.Tx, entryIDs []string) error {
	args := m.Called(ctx, tx, entryIDs)
	return args.Error(0)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, filter domain.SummaryFilter) ([]domain.Account, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ApplyBalanceDeltas(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, deltas, userID, now)
	return args.Error(0)
}

// --- Mock RefreshPublisher ---

type MockRefreshPublisher struct {
	mock.Mock
}

var _ portssvc.RefreshPublisher = (*MockRefreshPublisher)(nil)

func (m *MockRefreshPublisher) PublishBalancesRefresh(ctx context.Context, accountIDs []string) error {
	args := m.Called(ctx, accountIDs)
	return args.Error(0)
}

// --- Mock BalanceReadRepository ---

type MockBalanceReadRepository struct {
	mock.Mock
}

var _ portsrepo.BalanceReadRepositoryFacade = (*MockBalanceReadRepository)(nil)

func (m *MockBalanceReadRepository) FindScheduledDeltas(ctx context.Context, accountIDs []string) (map[string]domain.ScheduledDelta, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.ScheduledDelta), args.Error(1)
}

func (m *MockBalanceReadRepository) FindLastMovementDates(ctx context.Context, accountIDs []string) (map[string]time.Time, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]time.Time), args.Error(1)
}

func (m *MockBalanceReadRepository) FindDailyNetSettled(ctx context.Context, accountIDs []string, from, to time.Time) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, accountIDs, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

// --- Mock AlertRepository ---

type MockAlertRepository struct {
	mock.Mock
}

var _ portsrepo.AlertRepositoryFacade = (*MockAlertRepository)(nil)

func (m *MockAlertRepository) FindActiveAlerts(ctx context.Context) (map[string]domain.BalanceAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.BalanceAlert), args.Error(1)
}

func (m *MockAlertRepository) UpsertActiveAlert(ctx context.Context, alert domain.BalanceAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) ResolveAlert(ctx context.Context, alertKey string, resolvedAt time.Time) error {
	args := m.Called(ctx, alertKey, resolvedAt)
	return args.Error(0)
}

// --- Fake SummaryCache ---

// fakeSummaryCache is an in-memory versioned cache for aggregator tests.
type fakeSummaryCache struct {
	version int64
	entries map[string]*domain.BalanceSummary
}

var _ portssvc.SummaryCache = (*fakeSummaryCache)(nil)

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{entries: make(map[string]*domain.BalanceSummary)}
}

func (c *fakeSummaryCache) Version(ctx context.Context) (int64, error) {
	return c.version, nil
}

func (c *fakeSummaryCache) Bump(ctx context.Context) (int64, error) {
	c.version++
	return c.version, nil
}

func (c *fakeSummaryCache) GetSummary(ctx context.Context, key string) (*domain.BalanceSummary, bool, error) {
	summary, ok := c.entries[key]
	return summary, ok, nil
}

func (c *fakeSummaryCache) SetSummary(ctx context.Context, key string, summary *domain.BalanceSummary) error {
	c.entries[key] = summary
	return nil
}
