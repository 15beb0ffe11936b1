package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/errors"
	"github.com/gateflow-tech/gateflow/internal/fsm"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

// DocumentStatusInput represents the input for the DocumentStatus use case.
type DocumentStatusInput struct {
	DocumentID string
	// PrincipalID scopes action availability; when empty, permission-gated
	// actions report as disabled.
	PrincipalID string
	Permissions []string
}

// Validate validates the DocumentStatusInput.
func (i *DocumentStatusInput) Validate() error {
	v := NewValidationError()

	v.Add(ValidateID(i.DocumentID, "document id"))
	if i.PrincipalID != "" {
		v.Add(ValidateSafeString(i.PrincipalID, "principal id", MaxPrincipalLength))
	}

	return v.ToError()
}

// DocumentStatusOutput represents the output of the DocumentStatus use case.
type DocumentStatusOutput struct {
	DocumentID    string
	DocumentType  revision.DocumentType
	RevisionID    revision.RevisionID
	Version       string
	RevisionCount int
	Capabilities  fsm.Capabilities
	Delta         threshold.Delta
	Chain         *approval.Summary
	Cycles        []approval.Cycle
}

// DocumentStatusUseCase reads a document's latest revision and reports where
// it sits: workflow state, the actions the caller could take from it,
// approval chain progress, and the review cycle history.
type DocumentStatusUseCase struct {
	catalog   *workflows.Catalog
	revisions RevisionRepository
	chains    ChainRepository
	logger    *slog.Logger
}

// NewDocumentStatusUseCase creates a new DocumentStatusUseCase.
func NewDocumentStatusUseCase(
	catalog *workflows.Catalog,
	revisions RevisionRepository,
	chains ChainRepository,
) *DocumentStatusUseCase {
	return &DocumentStatusUseCase{
		catalog:   catalog,
		revisions: revisions,
		chains:    chains,
		logger:    slog.Default().With("usecase", "document_status"),
	}
}

// Execute executes the document status use case.
func (uc *DocumentStatusUseCase) Execute(ctx context.Context, input DocumentStatusInput) (*DocumentStatusOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	revs, err := uc.revisions.ListByDocument(ctx, input.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	if len(revs) == 0 {
		return nil, errors.NotFound("lifecycle.DocumentStatus",
			fmt.Sprintf("no revisions for document %s", input.DocumentID))
	}
	latest := revs[len(revs)-1]

	machine, err := machineFor(uc.catalog, latest.DocumentType())
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	inst := instanceFor(machine.Definition().ID, latest)
	p := payloadFor(latest, input.PrincipalID, input.Permissions, "")

	out := &DocumentStatusOutput{
		DocumentID:    input.DocumentID,
		DocumentType:  latest.DocumentType(),
		RevisionID:    latest.ID(),
		Version:       latest.Version().String(),
		RevisionCount: len(revs),
		Capabilities:  machine.Capabilities(inst, p),
		Delta:         latest.Delta(uc.catalog.Thresholds()),
		Cycles:        latest.Cycles(),
	}

	if latest.ChainID() != "" {
		chain, err := uc.chains.Get(ctx, latest.ChainID())
		if err != nil {
			return nil, fmt.Errorf("failed to find chain: %w", err)
		}
		summary := chain.Summarize()
		out.Chain = &summary
	}

	return out, nil
}
