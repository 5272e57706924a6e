package services

// ServiceContainer holds instances of all the application services.
// Handlers depend on this instead of concrete service types.
type ServiceContainer struct {
	Entry   EntrySvcFacade
	Account AccountSvcFacade
	Balance BalanceSvcFacade
}
