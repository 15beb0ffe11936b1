package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/errors"
	"github.com/gateflow-tech/gateflow/internal/fsm"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

// DecideStepInput represents the input for the DecideStep use case.
type DecideStepInput struct {
	ChainID     string
	PrincipalID string
	Action      approval.StepAction
	Notes       string
	Permissions []string
}

// Validate validates the DecideStepInput.
func (i *DecideStepInput) Validate() error {
	v := NewValidationError()

	v.Add(ValidateID(i.ChainID, "chain id"))
	if i.PrincipalID == "" {
		v.AddMessage("principal id is required")
	} else {
		v.Add(ValidateSafeString(i.PrincipalID, "principal id", MaxPrincipalLength))
	}
	if i.Action != approval.ActionApprove && i.Action != approval.ActionReject {
		v.AddMessage(fmt.Sprintf("unknown action %q: must be approve or reject", i.Action))
	}
	if len(i.Notes) > MaxNotesLength {
		v.AddMessage(fmt.Sprintf("notes too long (max %d bytes)", MaxNotesLength))
	}

	return v.ToError()
}

// DecideStepOutput represents the output of the DecideStep use case.
type DecideStepOutput struct {
	ChainID       string
	StepID        string
	ChainComplete bool
	Outcome       approval.Outcome
	CurrentLevel  int
	RevisionID    revision.RevisionID
	Status        fsm.StateID
	CycleOutcome  approval.CycleOutcome
}

// DecideStepUseCase records one approver's decision on a chain. When the
// decision completes the chain it also advances the document workflow:
// approval moves the document to approved, rejection sends it back to draft
// for rework, and the open review cycle is closed either way.
type DecideStepUseCase struct {
	catalog   *workflows.Catalog
	revisions RevisionRepository
	chains    ChainRepository
	events    EventPublisher
	logger    *slog.Logger
}

// NewDecideStepUseCase creates a new DecideStepUseCase.
func NewDecideStepUseCase(
	catalog *workflows.Catalog,
	revisions RevisionRepository,
	chains ChainRepository,
	events EventPublisher,
) *DecideStepUseCase {
	return &DecideStepUseCase{
		catalog:   catalog,
		revisions: revisions,
		chains:    chains,
		events:    events,
		logger:    slog.Default().With("usecase", "decide_step"),
	}
}

// Execute executes the decide step use case. A concurrent-update conflict on
// save is retried once against freshly loaded state.
func (uc *DecideStepUseCase) Execute(ctx context.Context, input DecideStepInput) (*DecideStepOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	out, err := uc.attempt(ctx, input)
	if err != nil && errors.IsKind(err, errors.KindConflict) {
		uc.logger.Warn("concurrent update detected, retrying once",
			"chain_id", input.ChainID,
			"principal_id", input.PrincipalID)
		out, err = uc.attempt(ctx, input)
	}
	return out, err
}

func (uc *DecideStepUseCase) attempt(ctx context.Context, input DecideStepInput) (*DecideStepOutput, error) {
	chain, err := uc.chains.Get(ctx, input.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to find chain: %w", err)
	}
	chainBase := chain.UpdatedAt()

	rev, err := uc.revisions.Get(ctx, revision.RevisionID(chain.RevisionID()))
	if err != nil {
		return nil, fmt.Errorf("failed to find revision: %w", err)
	}
	revBase := rev.UpdatedAt()

	switch input.Action {
	case approval.ActionReject:
		err = chain.Reject(input.PrincipalID, input.Notes)
	default:
		err = chain.Approve(input.PrincipalID, input.Notes)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record decision: %w", err)
	}

	step, _ := actedStep(chain, input.PrincipalID)
	status := rev.Status()
	var cycleOutcome approval.CycleOutcome

	if chain.IsComplete() {
		machine, err := machineFor(uc.catalog, rev.DocumentType())
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow: %w", err)
		}
		inst := instanceFor(machine.Definition().ID, rev)
		p := payloadFor(rev, input.PrincipalID, input.Permissions, input.Notes)

		action := workflows.ActionApprove
		cycleOutcome = approval.CycleApproved
		if chain.Outcome() == approval.OutcomeRejected {
			action = workflows.ActionRequestChanges
			cycleOutcome = approval.CycleChangesRequested
		}

		inst, result := machine.Transition(inst, action, p)
		if !result.Success {
			return nil, fmt.Errorf("cannot advance document: %s", result.Reason)
		}
		rev.TrackInstance(inst)
		status = inst.State

		if _, err := rev.ResolveCycle(input.PrincipalID, step.Approver.Role, cycleOutcome, input.Notes, ""); err != nil {
			return nil, fmt.Errorf("failed to close review cycle: %w", err)
		}
	}

	if err := uc.chains.Update(ctx, chain, chainBase); err != nil {
		return nil, fmt.Errorf("failed to save chain: %w", err)
	}
	if chain.IsComplete() {
		if err := uc.revisions.Update(ctx, rev, revBase); err != nil {
			return nil, fmt.Errorf("failed to save revision: %w", err)
		}
	}

	publishEvents(ctx, uc.events, uc.logger, chain.RevisionID(), chainEvents(chain))
	chain.ClearDomainEvents()
	publishEvents(ctx, uc.events, uc.logger, chain.RevisionID(), revisionEvents(rev))
	rev.ClearDomainEvents()

	uc.logger.Info("step decided",
		"chain_id", chain.ID(),
		"step_id", step.ID,
		"action", input.Action,
		"complete", chain.IsComplete(),
		"outcome", chain.Outcome())

	return &DecideStepOutput{
		ChainID:       chain.ID(),
		StepID:        step.ID,
		ChainComplete: chain.IsComplete(),
		Outcome:       chain.Outcome(),
		CurrentLevel:  chain.CurrentLevel(),
		RevisionID:    rev.ID(),
		Status:        status,
		CycleOutcome:  cycleOutcome,
	}, nil
}
