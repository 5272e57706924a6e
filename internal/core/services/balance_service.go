package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
	"github.com/imovelhub/backoffice/internal/middleware"
)

const (
	historyDays = 7
	topAccounts = 3
)

// balanceService is the read-side balance aggregator. It assembles the
// per-account and global summary from current balances plus scheduled
// installment deltas, reconstructs a short balance history backwards from
// today, and maintains standing low-balance alerts as a side effect.
type balanceService struct {
	accountRepo   portsrepo.AccountRepositoryFacade
	readRepo      portsrepo.BalanceReadRepositoryFacade
	alertRepo     portsrepo.AlertRepositoryFacade
	cache         portssvc.SummaryCache
	alertsEnabled bool
	now           func() time.Time
}

// NewBalanceService creates the balance aggregator.
func NewBalanceService(accountRepo portsrepo.AccountRepositoryFacade, readRepo portsrepo.BalanceReadRepositoryFacade, alertRepo portsrepo.AlertRepositoryFacade, cache portssvc.SummaryCache, alertsEnabled bool) portssvc.BalanceSvcFacade {
	return &balanceService{
		accountRepo:   accountRepo,
		readRepo:      readRepo,
		alertRepo:     alertRepo,
		cache:         cache,
		alertsEnabled: alertsEnabled,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

// summaryCacheKey builds the versioned cache key. The filter is hashed so
// any filter combination gets its own slot under the current generation.
func summaryCacheKey(version int64, userID string, filter domain.SummaryFilter) string {
	raw, _ := json.Marshal(filter)
	digest := sha256.Sum256(raw)
	return fmt.Sprintf("balance:summary:%d:%s:%s", version, userID, hex.EncodeToString(digest[:]))
}

// AccountBalanceSummary serves the summary from cache when the generation
// matches, otherwise recomputes and stores it.
func (s *balanceService) AccountBalanceSummary(ctx context.Context, userID string, filter domain.SummaryFilter) (*domain.BalanceSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	version, err := s.cache.Version(ctx)
	if err != nil {
		logger.Warn("Summary cache unavailable, computing directly", slog.String("error", err.Error()))
		return s.computeSummary(ctx, filter)
	}

	key := summaryCacheKey(version, userID, filter)
	if cached, ok, err := s.cache.GetSummary(ctx, key); err != nil {
		logger.Warn("Summary cache read failed", slog.String("error", err.Error()))
	} else if ok {
		return cached, nil
	}

	summary, err := s.computeSummary(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSummary(ctx, key, summary); err != nil {
		logger.Warn("Summary cache write failed", slog.String("error", err.Error()))
	}
	return summary, nil
}

// InvalidateSummaries bumps the cache generation so every cached filter
// combination goes stale at once.
func (s *balanceService) InvalidateSummaries(ctx context.Context, accountIDs []string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	version, err := s.cache.Bump(ctx)
	if err != nil {
		return fmt.Errorf("failed to bump summary cache generation: %w", err)
	}
	logger.Debug("Summary cache invalidated",
		slog.Int64("generation", version),
		slog.Int("accounts", len(accountIDs)))
	return nil
}

func (s *balanceService) computeSummary(ctx context.Context, filter domain.SummaryFilter) (*domain.BalanceSummary, error) {
	now := s.now()

	accounts, err := s.accountRepo.ListAccounts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for summary: %w", err)
	}

	accountIDs := make([]string, len(accounts))
	for i := range accounts {
		accountIDs[i] = accounts[i].AccountID
	}

	deltas, err := s.readRepo.FindScheduledDeltas(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scheduled deltas: %w", err)
	}
	lastMovements, err := s.readRepo.FindLastMovementDates(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load last movement dates: %w", err)
	}

	summary := &domain.BalanceSummary{
		TotalCurrent:   decimal.Zero,
		TotalProjected: decimal.Zero,
		TotalPending:   decimal.Zero,
		GeneratedAt:    now,
	}

	for i := range accounts {
		account := &accounts[i]
		delta := deltas[account.AccountID]
		projected := account.CurrentBalance.Add(delta.Net())

		line := domain.AccountBalanceLine{
			AccountID:         account.AccountID,
			Name:              account.Name,
			Category:          account.Category,
			CurrentBalance:    account.CurrentBalance,
			ScheduledIncoming: delta.Incoming,
			ScheduledOutgoing: delta.Outgoing,
			ScheduledNet:      delta.Net(),
			ProjectedBalance:  projected,
		}
		if last, ok := lastMovements[account.AccountID]; ok {
			lastCopy := last
			line.LastMovementAt = &lastCopy
		}
		if threshold, ok := account.LowBalanceThreshold(); ok {
			line.LowBalanceAlert = account.CurrentBalance.LessThan(threshold)
		}

		summary.Accounts = append(summary.Accounts, line)
		summary.TotalCurrent = summary.TotalCurrent.Add(account.CurrentBalance)
		summary.TotalProjected = summary.TotalProjected.Add(projected)
		summary.TotalPending = summary.TotalPending.Add(delta.Net())
	}

	summary.TopPositive, summary.TopNegative = rankAccounts(summary.Accounts)

	history, err := s.buildHistory(ctx, accountIDs, summary.TotalCurrent, now)
	if err != nil {
		return nil, err
	}
	summary.History = history

	if s.alertsEnabled {
		if err := s.reconcileAlerts(ctx, accounts, now); err != nil {
			middleware.GetLoggerFromCtx(ctx).Warn("Failed to reconcile balance alerts", slog.String("error", err.Error()))
		}
	}

	return summary, nil
}

// rankAccounts returns the top positive and top negative balances, at most
// three each. Accounts at exactly zero appear in neither list.
func rankAccounts(lines []domain.AccountBalanceLine) (positive, negative []domain.AccountBalanceLine) {
	sorted := make([]domain.AccountBalanceLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CurrentBalance.GreaterThan(sorted[j].CurrentBalance)
	})
	for i := range sorted {
		if sorted[i].CurrentBalance.IsPositive() && len(positive) < topAccounts {
			positive = append(positive, sorted[i])
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].CurrentBalance.IsNegative() && len(negative) < topAccounts {
			negative = append(negative, sorted[i])
		}
	}
	return positive, negative
}

// buildHistory reconstructs the aggregate balance for each of the last
// historyDays days by walking backwards from today's total: the balance at
// the end of day d-1 equals the balance at the end of day d minus the net
// settled movement of day d.
func (s *balanceService) buildHistory(ctx context.Context, accountIDs []string, totalCurrent decimal.Decimal, now time.Time) ([]domain.BalanceHistoryPoint, error) {
	today := now.Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(historyDays - 1))

	dailyNet, err := s.readRepo.FindDailyNetSettled(ctx, accountIDs, from, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily settled movement: %w", err)
	}

	points := make([]domain.BalanceHistoryPoint, historyDays)
	balance := totalCurrent
	for i := historyDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -(historyDays - 1 - i))
		points[i] = domain.BalanceHistoryPoint{Date: day, Balance: balance}
		if net, ok := dailyNet[day.Format("2006-01-02")]; ok {
			balance = balance.Sub(net)
		}
	}
	return points, nil
}

// reconcileAlerts upserts a standing alert for each account below its
// threshold and resolves alerts whose account recovered. Accounts without a
// usable threshold never alert.
func (s *balanceService) reconcileAlerts(ctx context.Context, accounts []domain.Account, now time.Time) error {
	active, err := s.alertRepo.FindActiveAlerts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active alerts: %w", err)
	}

	for i := range accounts {
		account := &accounts[i]
		threshold, ok := account.LowBalanceThreshold()
		if !ok {
			continue
		}
		key := domain.AlertKeyForAccount(account.AccountID)
		below := account.CurrentBalance.LessThan(threshold)

		if below {
			alert := domain.BalanceAlert{
				AlertID:    uuid.NewString(),
				Key:        key,
				AccountID:  account.AccountID,
				Threshold:  threshold,
				Balance:    account.CurrentBalance,
				OccurredAt: now,
				Active:     true,
			}
			if err := s.alertRepo.UpsertActiveAlert(ctx, alert); err != nil {
				return fmt.Errorf("failed to upsert alert for account %s: %w", account.AccountID, err)
			}
		} else if _, standing := active[key]; standing {
			if err := s.alertRepo.ResolveAlert(ctx, key, now); err != nil {
				return fmt.Errorf("failed to resolve alert for account %s: %w", account.AccountID, err)
			}
		}
	}
	return nil
}
