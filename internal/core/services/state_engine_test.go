package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/imovelhub/backoffice/internal/core/domain"
	"github.com/imovelhub/backoffice/internal/core/services"
)

func installment(status domain.EntryStatus, total string, due time.Time, paid *time.Time) domain.Installment {
	return domain.Installment{
		InstallmentID: "inst-" + string(status),
		Sequence:      1,
		DueDate:       due,
		PaymentDate:   paid,
		TotalAmount:   decimal.RequireFromString(total),
		Status:        status,
	}
}

func TestDeriveStatus(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name     string
		stored   domain.EntryStatus
		statuses []domain.EntryStatus
		want     domain.EntryStatus
	}{
		{"cancelled entry stays cancelled", domain.StatusCancelled, []domain.EntryStatus{domain.StatusPaid}, domain.StatusCancelled},
		{"no installments means planned", domain.StatusPending, nil, domain.StatusPlanned},
		{"all cancelled", domain.StatusPending, []domain.EntryStatus{domain.StatusCancelled, domain.StatusCancelled}, domain.StatusCancelled},
		{"all paid", domain.StatusPending, []domain.EntryStatus{domain.StatusPaid, domain.StatusPaid}, domain.StatusPaid},
		{"any overdue wins over paid", domain.StatusPending, []domain.EntryStatus{domain.StatusPaid, domain.StatusOverdue}, domain.StatusOverdue},
		{"partial payment is pending", domain.StatusPlanned, []domain.EntryStatus{domain.StatusPaid, domain.StatusPlanned}, domain.StatusPending},
		{"paid plus cancelled is pending", domain.StatusPlanned, []domain.EntryStatus{domain.StatusPaid, domain.StatusCancelled}, domain.StatusPending},
		{"all planned is pending", domain.StatusPlanned, []domain.EntryStatus{domain.StatusPlanned, domain.StatusPlanned}, domain.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var installments []domain.Installment
			for _, st := range tt.statuses {
				installments = append(installments, installment(st, "100", future, nil))
			}
			got := services.DeriveStatus(tt.stored, installments)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEscalateOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	installments := []domain.Installment{
		installment(domain.StatusPlanned, "100", past, nil),
		installment(domain.StatusPending, "100", past, nil),
		installment(domain.StatusPaid, "100", past, nil),
		installment(domain.StatusPlanned, "100", future, nil),
		installment(domain.StatusCancelled, "100", past, nil),
	}

	changed := services.EscalateOverdue(installments, now)

	assert.Equal(t, []int{0, 1}, changed)
	assert.Equal(t, domain.StatusOverdue, installments[0].Status)
	assert.Equal(t, domain.StatusOverdue, installments[1].Status)
	assert.Equal(t, domain.StatusPaid, installments[2].Status)
	assert.Equal(t, domain.StatusPlanned, installments[3].Status)
	assert.Equal(t, domain.StatusCancelled, installments[4].Status)
}

// --- SyncEntryState suite ---

type StateEngineTestSuite struct {
	suite.Suite
	ctx         context.Context
	entryRepo   *MockEntryRepository
	accountRepo *MockAccountRepository
	publisher   *MockRefreshPublisher
	engine      *services.StateEngine
	future      time.Time
}

func (s *StateEngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.entryRepo = new(MockEntryRepository)
	s.accountRepo = new(MockAccountRepository)
	s.publisher = new(MockRefreshPublisher)
	s.engine = services.NewStateEngine(s.entryRepo, s.accountRepo, s.publisher)
	s.future = time.Now().Add(30 * 24 * time.Hour)
}

func (s *StateEngineTestSuite) entry(entryType domain.EntryType, status domain.EntryStatus, amount string, installments ...domain.Installment) *domain.Entry {
	counter := "acct-counter"
	e := &domain.Entry{
		EntryID:           "entry-1",
		Type:              entryType,
		AccountID:         "acct-origin",
		Description:       "rent",
		Origin:            domain.OriginManual,
		Amount:            decimal.RequireFromString(amount),
		CurrencyCode:      "BRL",
		Status:            status,
		InstallmentsCount: len(installments),
		Installments:      installments,
	}
	if entryType == domain.TypeTransfer {
		e.CounterAccountID = &counter
	}
	return e
}

func (s *StateEngineTestSuite) expectStateWrite(entry *domain.Entry) {
	s.entryRepo.On("FindEntryByIDTx", s.ctx, mock.Anything, entry.EntryID).Return(entry, nil).Once()
	if entry.Status != domain.StatusCancelled {
		s.entryRepo.On("MarkInstallmentsOverdue", s.ctx, mock.Anything, entry.EntryID, mock.Anything, "user-1").Return(0, nil).Once()
	}
	s.entryRepo.On("UpdateDerivedState", s.ctx, mock.Anything, entry.EntryID, mock.Anything, mock.Anything, mock.Anything, "user-1", mock.Anything).Return(nil).Once()
}

func (s *StateEngineTestSuite) expectBalanceWrite(expected map[string]string) {
	s.accountRepo.On("FindAccountsByIDsForUpdate", s.ctx, mock.Anything, mock.Anything).Return(map[string]domain.Account{}, nil).Once()
	s.accountRepo.On("ApplyBalanceDeltas", s.ctx, mock.Anything, mock.MatchedBy(func(deltas map[string]decimal.Decimal) bool {
		if len(deltas) != len(expected) {
			return false
		}
		for id, want := range expected {
			got, ok := deltas[id]
			if !ok || !got.Equal(decimal.RequireFromString(want)) {
				return false
			}
		}
		return true
	}), "user-1", mock.Anything).Return(nil).Once()
	s.publisher.On("PublishBalancesRefresh", s.ctx, mock.Anything).Return(nil).Once()
}

func (s *StateEngineTestSuite) TestRevenueIntoPaidCreditsAccount() {
	paidAt := time.Now()
	entry := s.entry(domain.TypeRevenue, domain.StatusPending, "100",
		installment(domain.StatusPaid, "100", s.future, &paidAt))

	s.expectStateWrite(entry)
	s.expectBalanceWrite(map[string]string{"acct-origin": "100"})

	result, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPending, Amount: decimal.RequireFromString("100")}, "user-1")

	s.NoError(err)
	s.Equal(domain.StatusPaid, result.Status)
	s.Equal(1, result.PaidInstallments)
	s.entryRepo.AssertExpectations(s.T())
	s.accountRepo.AssertExpectations(s.T())
}

func (s *StateEngineTestSuite) TestExpenseIntoPaidDebitsAccount() {
	paidAt := time.Now()
	entry := s.entry(domain.TypeExpense, domain.StatusPending, "250.50",
		installment(domain.StatusPaid, "250.50", s.future, &paidAt))

	s.expectStateWrite(entry)
	s.expectBalanceWrite(map[string]string{"acct-origin": "-250.50"})

	_, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPending, Amount: decimal.RequireFromString("250.50")}, "user-1")

	s.NoError(err)
	s.accountRepo.AssertExpectations(s.T())
}

func (s *StateEngineTestSuite) TestTransferMovesMoneyBetweenAccounts() {
	paidAt := time.Now()
	entry := s.entry(domain.TypeTransfer, domain.StatusPending, "500",
		installment(domain.StatusPaid, "500", s.future, &paidAt))

	s.expectStateWrite(entry)
	s.expectBalanceWrite(map[string]string{"acct-origin": "-500", "acct-counter": "500"})

	_, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPending, Amount: decimal.RequireFromString("500")}, "user-1")

	s.NoError(err)
	s.accountRepo.AssertExpectations(s.T())
}

func (s *StateEngineTestSuite) TestLeavingPaidReversesOriginalAmount() {
	// The entry was settled at 80, then edited to 120 while simultaneously
	// being reopened; the reversal must use the original 80.
	entry := s.entry(domain.TypeRevenue, domain.StatusPending, "120",
		installment(domain.StatusPlanned, "120", s.future, nil))

	s.expectStateWrite(entry)
	s.expectBalanceWrite(map[string]string{"acct-origin": "-80"})

	result, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPaid, Amount: decimal.RequireFromString("80")}, "user-1")

	s.NoError(err)
	s.Equal(domain.StatusPending, result.Status)
	s.accountRepo.AssertExpectations(s.T())
}

func (s *StateEngineTestSuite) TestPaidAmountCorrectionAppliesDifference() {
	paidAt := time.Now()
	entry := s.entry(domain.TypeRevenue, domain.StatusPaid, "120",
		installment(domain.StatusPaid, "120", s.future, &paidAt))

	s.expectStateWrite(entry)
	s.expectBalanceWrite(map[string]string{"acct-origin": "20"})

	_, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPaid, Amount: decimal.RequireFromString("100")}, "user-1")

	s.NoError(err)
	s.accountRepo.AssertExpectations(s.T())
}

func (s *StateEngineTestSuite) TestPaidAmountCorrectionIsSymmetric() {
	// Correcting back from 120 to 100 must apply the exact opposite delta.
	paidAt := time.Now()
	entry := s.entry(domain.TypeRevenue, domain.StatusPaid, "100",
		installment(domain.StatusPaid, "100", s.future, &paidAt))

	s.expectStateWrite(entry)
	s.expectBalanceWrite(map[string]string{"acct-origin": "-20"})

	_, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPaid, Amount: decimal.RequireFromString("120")}, "user-1")

	s.NoError(err)
	s.accountRepo.AssertExpectations(s.T())
}

func (s *StateEngineTestSuite) TestNonSettlingTransitionTouchesNoBalances() {
	entry := s.entry(domain.TypeRevenue, domain.StatusPlanned, "100",
		installment(domain.StatusPlanned, "100", s.future, nil))

	s.expectStateWrite(entry)

	result, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPlanned, Amount: decimal.RequireFromString("100")}, "user-1")

	s.NoError(err)
	s.Equal(domain.StatusPending, result.Status)
	s.accountRepo.AssertNotCalled(s.T(), "ApplyBalanceDeltas", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *StateEngineTestSuite) TestPlanParentNeverTouchesBalances() {
	paidAt := time.Now()
	entry := s.entry(domain.TypeRevenue, domain.StatusPending, "300",
		installment(domain.StatusPaid, "100", s.future, &paidAt),
		installment(domain.StatusPaid, "100", s.future, &paidAt),
		installment(domain.StatusPaid, "100", s.future, &paidAt))
	entry.Origin = domain.OriginInstallmentPlan

	s.expectStateWrite(entry)

	result, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPending, Amount: decimal.RequireFromString("300")}, "user-1")

	s.NoError(err)
	s.Equal(domain.StatusPaid, result.Status)
	s.accountRepo.AssertNotCalled(s.T(), "ApplyBalanceDeltas", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *StateEngineTestSuite) TestMultiInstallmentEntrySettlesThroughClonesOnly() {
	// A freshly written two-installment entry must not settle directly
	// even while its stored origin still reads MANUAL; the shape alone
	// decides, and the clones carry the effect.
	paidAt := time.Now()
	entry := s.entry(domain.TypeRevenue, domain.StatusPending, "1000",
		installment(domain.StatusPaid, "500", s.future, &paidAt),
		installment(domain.StatusPaid, "500", s.future, &paidAt))

	s.expectStateWrite(entry)

	result, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusPending, Amount: decimal.RequireFromString("1000")}, "user-1")

	s.NoError(err)
	s.Equal(domain.StatusPaid, result.Status)
	s.Equal(domain.OriginManual, entry.Origin)
	s.accountRepo.AssertNotCalled(s.T(), "ApplyBalanceDeltas", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *StateEngineTestSuite) TestReverseSettlementBacksOutPaidAmount() {
	paidAt := time.Now()
	entry := s.entry(domain.TypeExpense, domain.StatusPaid, "250",
		installment(domain.StatusPaid, "250", s.future, &paidAt))

	s.expectBalanceWrite(map[string]string{"acct-origin": "250"})

	err := s.engine.ReverseSettlement(s.ctx, nil, entry, "user-1")

	s.NoError(err)
	s.accountRepo.AssertExpectations(s.T())
}

func (s *StateEngineTestSuite) TestReverseSettlementIgnoresUnsettledEntries() {
	entry := s.entry(domain.TypeExpense, domain.StatusPending, "250",
		installment(domain.StatusPending, "250", s.future, nil))

	err := s.engine.ReverseSettlement(s.ctx, nil, entry, "user-1")

	s.NoError(err)
	s.accountRepo.AssertNotCalled(s.T(), "ApplyBalanceDeltas", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *StateEngineTestSuite) TestCancelledEntrySkipsOverdueEscalation() {
	entry := s.entry(domain.TypeRevenue, domain.StatusCancelled, "100",
		installment(domain.StatusCancelled, "100", s.future, nil))

	s.expectStateWrite(entry)

	result, err := s.engine.SyncEntryState(s.ctx, nil, "entry-1", services.PreviousState{Status: domain.StatusCancelled, Amount: decimal.RequireFromString("100")}, "user-1")

	s.NoError(err)
	s.Equal(domain.StatusCancelled, result.Status)
	s.entryRepo.AssertNotCalled(s.T(), "MarkInstallmentsOverdue", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStateEngineTestSuite(t *testing.T) {
	suite.Run(t, new(StateEngineTestSuite))
}
