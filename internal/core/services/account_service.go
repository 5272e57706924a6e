package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
	"github.com/imovelhub/backoffice/internal/dto"
	"github.com/imovelhub/backoffice/internal/middleware"
)

type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	now         func() time.Time
}

// NewAccountService creates the account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount registers a bank account. The current balance starts at the
// opening balance; all later movement goes through settled entries.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := s.now()

	account := domain.Account{
		AccountID:          uuid.NewString(),
		Name:               req.Name,
		CurrencyCode:       req.CurrencyCode,
		OpeningBalance:     req.OpeningBalance,
		OpeningBalanceDate: req.OpeningBalanceDate,
		CurrentBalance:     req.OpeningBalance,
		CreditLimit:        req.CreditLimit,
		Category:           req.Category,
		AlertThreshold:     req.AlertThreshold,
		IsActive:           true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("name", account.Name))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, accountID)
}

func (s *accountService) ListAccounts(ctx context.Context, filter domain.SummaryFilter) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx, filter)
}
