package services

import (
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
)

// ContainerOptions carries the cross-cutting dependencies of the service
// layer.
type ContainerOptions struct {
	Cache         portssvc.SummaryCache
	Publisher     portssvc.RefreshPublisher
	AlertsEnabled bool
}

// NewContainer creates the service container with properly initialized
// dependencies. The state engine and clone synchronizer are shared by all
// entry operations so every write path derives state the same way.
func NewContainer(repos portsrepo.RepositoryProvider, opts ContainerOptions) *portssvc.ServiceContainer {
	engine := NewStateEngine(repos.EntryRepo, repos.AccountRepo, opts.Publisher)
	cloneSync := NewCloneSynchronizer(repos.EntryRepo, engine)

	return &portssvc.ServiceContainer{
		Entry:   NewEntryService(repos.EntryRepo, repos.AccountRepo, engine, cloneSync, opts.Publisher),
		Account: NewAccountService(repos.AccountRepo),
		Balance: NewBalanceService(repos.AccountRepo, repos.BalanceReadRepo, repos.AlertRepo, opts.Cache, opts.AlertsEnabled),
	}
}
