package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/imovelhub/backoffice/internal/apperrors"
	"github.com/imovelhub/backoffice/internal/core/domain"
	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
	"github.com/imovelhub/backoffice/internal/core/services"
	"github.com/imovelhub/backoffice/internal/dto"
)

type AccountServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	accountRepo *MockAccountRepository
	service     portssvc.AccountSvcFacade
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.accountRepo = new(MockAccountRepository)
	s.service = services.NewAccountService(s.accountRepo)
}

func (s *AccountServiceTestSuite) TestCreateAccountStartsAtOpeningBalance() {
	req := dto.CreateAccountRequest{
		Name:               "Condo Operations",
		CurrencyCode:       "BRL",
		OpeningBalance:     decimal.RequireFromString("2500"),
		OpeningBalanceDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Category:           domain.CategoryChecking,
	}

	var saved domain.Account
	s.accountRepo.On("SaveAccount", s.ctx, mock.AnythingOfType("domain.Account")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(domain.Account)
	}).Return(nil).Once()

	account, err := s.service.CreateAccount(s.ctx, req, "user-1")

	s.Require().NoError(err)
	s.NotEmpty(account.AccountID)
	s.True(account.CurrentBalance.Equal(req.OpeningBalance))
	s.True(account.IsActive)
	s.Equal("user-1", account.CreatedBy)
	s.Equal(saved.AccountID, account.AccountID)
	s.accountRepo.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestCreateAccountPropagatesDuplicate() {
	req := dto.CreateAccountRequest{
		Name:           "Condo Operations",
		CurrencyCode:   "BRL",
		OpeningBalance: decimal.Zero,
		Category:       domain.CategoryChecking,
	}
	s.accountRepo.On("SaveAccount", s.ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	_, err := s.service.CreateAccount(s.ctx, req, "user-1")

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *AccountServiceTestSuite) TestGetAccountByID() {
	expected := &domain.Account{AccountID: "acct-1", Name: "Main"}
	s.accountRepo.On("FindAccountByID", s.ctx, "acct-1").Return(expected, nil).Once()

	account, err := s.service.GetAccountByID(s.ctx, "acct-1")

	s.Require().NoError(err)
	s.Equal(expected, account)
}

func (s *AccountServiceTestSuite) TestListAccountsPassesFilter() {
	category := domain.CategorySavings
	filter := domain.SummaryFilter{Category: &category}
	s.accountRepo.On("ListAccounts", s.ctx, filter).Return([]domain.Account{{AccountID: "acct-1"}}, nil).Once()

	accounts, err := s.service.ListAccounts(s.ctx, filter)

	s.Require().NoError(err)
	s.Len(accounts, 1)
	s.accountRepo.AssertExpectations(s.T())
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
