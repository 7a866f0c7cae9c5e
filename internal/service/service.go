package service

import (
	"context"

	"papertrail_cli/internal/logger"
	"papertrail_cli/internal/models"
	"papertrail_cli/internal/repository"
)

// Resolver turns merged command-line/config options into validated query
// parameters, resolving system and group names against the remote service.
type Resolver interface {
	Resolve(ctx context.Context, opts Options) (QueryParameters, error)
}

// Poller drives searches for a parameter set until the run is done.
type Poller interface {
	Run(ctx context.Context, p QueryParameters, out Emitter) (RunStats, error)
}

// Emitter writes one page of results. Implementations flush per page.
type Emitter interface {
	Emit(page models.Page) error
}

// Service aggregates the search services.
type Service struct {
	Resolver
	Poller
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, log *logger.Logger) *Service {
	return &Service{
		Resolver: NewResolverService(repos.Sources),
		Poller:   NewPollingEngine(repos.Events, log),
	}
}
