package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/imovelhub/backoffice/internal/apperrors"
	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
)

// validateEntryAgainstAccounts enforces the Writer's preconditions before
// any row is written: the origin account's currency must match the entry's
// currency, and transfers need a distinct, existing counter account.
func validateEntryAgainstAccounts(ctx context.Context, accountRepo portsrepo.AccountRepositoryFacade, entry *domain.Entry) error {
	account, err := accountRepo.FindAccountByID(ctx, entry.AccountID)
	if err != nil {
		return fmt.Errorf("failed to resolve account %s: %w", entry.AccountID, err)
	}
	if account.CurrencyCode != entry.CurrencyCode {
		return fmt.Errorf("%w: account currency %s, entry currency %s", apperrors.ErrCurrencyMismatch, account.CurrencyCode, entry.CurrencyCode)
	}

	if entry.Type == domain.TypeTransfer {
		if entry.CounterAccountID == nil || *entry.CounterAccountID == "" {
			return fmt.Errorf("%w: counter account is required", apperrors.ErrInvalidTransfer)
		}
		if *entry.CounterAccountID == entry.AccountID {
			return fmt.Errorf("%w: counter account must differ from origin", apperrors.ErrInvalidTransfer)
		}
		if _, err := accountRepo.FindAccountByID(ctx, *entry.CounterAccountID); err != nil {
			return fmt.Errorf("failed to resolve counter account %s: %w", *entry.CounterAccountID, err)
		}
	} else if entry.CounterAccountID != nil {
		return fmt.Errorf("%w: counter account is only valid for transfers", apperrors.ErrValidation)
	}

	return nil
}

// persistEntryGraph writes the entry row plus its installments and
// allocations inside the given transaction. Updates replace installments
// and allocations wholesale so no stale rows survive a partial edit.
func persistEntryGraph(ctx context.Context, tx pgx.Tx, repo portsrepo.EntryRepositoryFacade, entry *domain.Entry, isNew bool) error {
	if isNew {
		if err := repo.SaveEntry(ctx, tx, *entry); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
		}
	} else {
		if err := repo.UpdateEntry(ctx, tx, *entry); err != nil {
			return fmt.Errorf("failed to update entry %s: %w", entry.EntryID, err)
		}
	}

	if err := repo.ReplaceInstallments(ctx, tx, entry.EntryID, entry.Installments); err != nil {
		return fmt.Errorf("failed to replace installments for entry %s: %w", entry.EntryID, err)
	}
	if err := repo.ReplaceAllocations(ctx, tx, entry.EntryID, entry.Allocations); err != nil {
		return fmt.Errorf("failed to replace allocations for entry %s: %w", entry.EntryID, err)
	}
	return nil
}
