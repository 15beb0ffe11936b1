// Package container provides dependency injection for GateFlow services.
package container

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/config"
	"github.com/gateflow-tech/gateflow/internal/errors"
	"github.com/gateflow-tech/gateflow/internal/infrastructure/directory"
	"github.com/gateflow-tech/gateflow/internal/infrastructure/events"
	"github.com/gateflow-tech/gateflow/internal/infrastructure/persistence"
	"github.com/gateflow-tech/gateflow/internal/pending"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

// Closeable represents a component that can be closed/shutdown.
type Closeable interface {
	Close() error
}

// App wires configuration, stores, the workflow catalog and the lifecycle
// use cases together for the CLI.
type App struct {
	config *config.Config
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool

	// Infrastructure layer
	catalog   *workflows.Catalog
	revisions lifecycle.RevisionRepository
	chains    lifecycle.ChainRepository
	approvers *directory.Static
	eventLog  *events.FileLog

	// Application layer use cases
	submitUC   *lifecycle.SubmitRevisionUseCase
	decideUC   *lifecycle.DecideStepUseCase
	resubmitUC *lifecycle.ResubmitRevisionUseCase
	statusUC   *lifecycle.DocumentStatusUseCase

	// Cleanup tracking
	closeables []Closeable
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.Config("container.New", "configuration is required")
	}

	return &App{
		config:     cfg,
		logger:     slog.Default().With("component", "container"),
		closeables: make([]Closeable, 0),
	}, nil
}

// NewInitialized creates and initializes a new App.
func NewInitialized(ctx context.Context, cfg *config.Config) (*App, error) {
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if err := a.Initialize(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

// RegisterCloseable registers a component for cleanup during shutdown.
// Components are closed in reverse order of registration (LIFO).
func (a *App) RegisterCloseable(closeable Closeable) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if closeable != nil {
		a.closeables = append(a.closeables, closeable)
	}
}

// Initialize builds the infrastructure and application layers.
func (a *App) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return errors.State("container.Initialize", "container is closed")
	}

	if err := a.initInfrastructure(); err != nil {
		return err
	}

	a.initApplicationLayer()
	return nil
}

// initInfrastructure builds the catalog, stores and approver directory.
func (a *App) initInfrastructure() error {
	const op = "container.initInfrastructure"

	thresholds := thresholdConfig(a.config.Thresholds)
	if err := thresholds.Validate(); err != nil {
		return errors.ConfigWrap(err, op, "invalid threshold configuration")
	}
	a.catalog = workflows.NewCatalog(workflows.WithThresholds(thresholds))

	switch a.config.Storage.Backend {
	case "memory":
		a.revisions = persistence.NewMemoryRevisionStore()
		a.chains = persistence.NewMemoryChainStore()
	default:
		root := a.config.Storage.Dir
		a.revisions = persistence.NewFileRevisionStore(root)
		a.chains = persistence.NewFileChainStore(root)
		a.eventLog = events.NewFileLog(root)
	}

	ladders, err := approverLadders(a.config.Approval.Ladders)
	if err != nil {
		return err
	}
	a.approvers, err = directory.NewStatic(ladders)
	if err != nil {
		return errors.ConfigWrap(err, op, "invalid approver ladders")
	}

	return nil
}

// initApplicationLayer builds the lifecycle use cases.
func (a *App) initApplicationLayer() {
	opts := []lifecycle.RoutingOption{
		lifecycle.WithApprovalPolicy(approvalPolicy(a.config.Approval.Policy)),
		lifecycle.WithLevelPolicy(levelPolicy(a.config.Approval.LevelPolicy)),
	}

	// The event log is optional; a plain nil interface keeps the use
	// cases' nil check working, a typed nil would not.
	var publisher lifecycle.EventPublisher
	if a.eventLog != nil {
		publisher = a.eventLog
	}

	a.submitUC = lifecycle.NewSubmitRevisionUseCase(a.catalog, a.revisions, a.chains, a.approvers, publisher, opts...)
	a.resubmitUC = lifecycle.NewResubmitRevisionUseCase(a.catalog, a.revisions, a.chains, a.approvers, publisher, opts...)
	a.decideUC = lifecycle.NewDecideStepUseCase(a.catalog, a.revisions, a.chains, publisher)
	a.statusUC = lifecycle.NewDocumentStatusUseCase(a.catalog, a.revisions, a.chains)
}

// Config returns the configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// Catalog returns the workflow catalog.
func (a *App) Catalog() *workflows.Catalog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.catalog
}

// Revisions returns the revision repository.
func (a *App) Revisions() lifecycle.RevisionRepository {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.revisions
}

// Chains returns the chain repository.
func (a *App) Chains() lifecycle.ChainRepository {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.chains
}

// Approvers returns the approver directory.
func (a *App) Approvers() *directory.Static {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.approvers
}

// EventLog returns the audit event log, or nil for the memory backend.
func (a *App) EventLog() *events.FileLog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eventLog
}

// SubmitRevision returns the SubmitRevisionUseCase.
func (a *App) SubmitRevision() *lifecycle.SubmitRevisionUseCase {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.submitUC
}

// DecideStep returns the DecideStepUseCase.
func (a *App) DecideStep() *lifecycle.DecideStepUseCase {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.decideUC
}

// ResubmitRevision returns the ResubmitRevisionUseCase.
func (a *App) ResubmitRevision() *lifecycle.ResubmitRevisionUseCase {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resubmitUC
}

// DocumentStatus returns the DocumentStatusUseCase.
func (a *App) DocumentStatus() *lifecycle.DocumentStatusUseCase {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.statusUC
}

// PendingFetcher returns a fetcher over the chain store, wrapped with the
// configured retry and circuit-breaker policy.
func (a *App) PendingFetcher() pending.Fetcher {
	a.mu.RLock()
	defer a.mu.RUnlock()

	inner := pending.FetcherFunc(a.chains.ListPendingFor)
	return pending.NewResilientFetcher(inner, resilienceConfig(a.config.Pending))
}

// Close shuts down the container and all registered components.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	// Close registered closeables in reverse order (LIFO)
	var firstErr error
	for i := len(a.closeables) - 1; i >= 0; i-- {
		if err := a.closeables[i].Close(); err != nil {
			a.logger.Warn("component failed to close cleanly", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
