// Package cli defines interfaces for injecting the container into commands.
package cli

import (
	"context"
	"fmt"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/config"
	"github.com/gateflow-tech/gateflow/internal/container"
	"github.com/gateflow-tech/gateflow/internal/infrastructure/events"
	"github.com/gateflow-tech/gateflow/internal/pending"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

type cliApp interface {
	Close() error
	Catalog() *workflows.Catalog
	EventLog() *events.FileLog
	SubmitRevision() *lifecycle.SubmitRevisionUseCase
	DecideStep() *lifecycle.DecideStepUseCase
	ResubmitRevision() *lifecycle.ResubmitRevisionUseCase
	DocumentStatus() *lifecycle.DocumentStatusUseCase
	PendingFetcher() pending.Fetcher
}

var newContainerApp = func(ctx context.Context, cfg *config.Config) (cliApp, error) {
	return container.NewInitialized(ctx, cfg)
}

func closeApp(app cliApp) {
	if app == nil {
		return
	}
	if err := app.Close(); err != nil {
		printWarning(fmt.Sprintf("Failed to close app: %v", err))
	}
}
