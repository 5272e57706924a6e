package pgsql

import (
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:     newPgxAccountRepository(dbPool),
		EntryRepo:       newPgxEntryRepository(dbPool),
		BalanceReadRepo: newPgxBalanceReadRepository(dbPool),
		AlertRepo:       newPgxAlertRepository(dbPool),
	}
}
