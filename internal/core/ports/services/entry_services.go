package services

import (
	"context"

	"github.com/imovelhub/backoffice/internal/core/domain"
	"github.com/imovelhub/backoffice/internal/dto"
)

// EntrySvcFacade exposes the ledger engine's write-side operations. Every
// mutating call runs inside a single database transaction and returns the
// entry reloaded with all relations.
type EntrySvcFacade interface {
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.Entry, error)
	UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.Entry, error)
	GetEntryByID(ctx context.Context, entryID string) (*domain.Entry, error)
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
	CloneEntry(ctx context.Context, entryID string, req dto.CloneEntryRequest, userID string) (*domain.Entry, error)
	PayInstallment(ctx context.Context, entryID string, sequence int, req dto.PayInstallmentRequest, userID string) (*domain.Entry, error)
	CancelEntry(ctx context.Context, entryID string, userID string) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, entryID string, userID string) error

	// ConfirmStatementMatch and IgnoreStatementMatch are the two mutating
	// operations triggered by the external bank-statement matching flow.
	ConfirmStatementMatch(ctx context.Context, entryID string, sequence int, req dto.ConfirmMatchRequest, userID string) (*domain.Entry, error)
	IgnoreStatementMatch(ctx context.Context, entryID string, sequence int, statementRef string, userID string) error
}

// AccountSvcFacade exposes account registration and lookup.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter domain.SummaryFilter) ([]domain.Account, error)
}
