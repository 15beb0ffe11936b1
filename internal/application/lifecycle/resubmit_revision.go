package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/errors"
	"github.com/gateflow-tech/gateflow/internal/fsm"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

// ResubmitRevisionInput represents the input for the ResubmitRevision use case.
type ResubmitRevisionInput struct {
	RevisionID    revision.RevisionID
	ChangedFields []string
	ProposedTotal float64
	SubmittedBy   string
	Notes         string
	Permissions   []string
}

// Validate validates the ResubmitRevisionInput.
func (i *ResubmitRevisionInput) Validate() error {
	v := NewValidationError()

	v.Add(ValidateID(string(i.RevisionID), "revision id"))
	if i.SubmittedBy == "" {
		v.AddMessage("submitted_by is required")
	} else {
		v.Add(ValidateSafeString(i.SubmittedBy, "submitted_by", MaxPrincipalLength))
	}
	if len(i.ChangedFields) == 0 {
		v.AddMessage("at least one changed field is required")
	}
	if len(i.ChangedFields) > MaxFieldCount {
		v.AddMessage(fmt.Sprintf("too many changed fields (max %d)", MaxFieldCount))
	}
	for _, f := range i.ChangedFields {
		if f == "" {
			v.AddMessage("changed fields must not be empty")
			break
		}
	}
	if len(i.Notes) > MaxNotesLength {
		v.AddMessage(fmt.Sprintf("notes too long (max %d bytes)", MaxNotesLength))
	}
	if i.ProposedTotal < 0 {
		v.AddMessage("proposed total must not be negative")
	}

	return v.ToError()
}

// ResubmitRevisionOutput represents the output of the ResubmitRevision use case.
type ResubmitRevisionOutput struct {
	RevisionID       revision.RevisionID
	Version          string
	Status           fsm.StateID
	RequiresApproval bool
	ChainID          string
	CycleNumber      int
	Tier             threshold.Tier
}

// ResubmitRevisionUseCase sends a reworked revision back through the gate.
// The accumulated edits are folded into a version bump, a fresh review cycle
// opens, and the threshold decides again between fast-track and a new chain.
type ResubmitRevisionUseCase struct {
	catalog   *workflows.Catalog
	revisions RevisionRepository
	chains    ChainRepository
	directory ApproverDirectory
	events    EventPublisher
	logger    *slog.Logger
	routing   routing
}

// NewResubmitRevisionUseCase creates a new ResubmitRevisionUseCase.
func NewResubmitRevisionUseCase(
	catalog *workflows.Catalog,
	revisions RevisionRepository,
	chains ChainRepository,
	directory ApproverDirectory,
	events EventPublisher,
	opts ...RoutingOption,
) *ResubmitRevisionUseCase {
	uc := &ResubmitRevisionUseCase{
		catalog:   catalog,
		revisions: revisions,
		chains:    chains,
		directory: directory,
		events:    events,
		logger:    slog.Default().With("usecase", "resubmit_revision"),
		routing:   defaultRouting(),
	}
	for _, opt := range opts {
		opt(&uc.routing)
	}
	return uc
}

// Execute executes the resubmit revision use case. A concurrent-update
// conflict on save is retried once against freshly loaded state.
func (uc *ResubmitRevisionUseCase) Execute(ctx context.Context, input ResubmitRevisionInput) (*ResubmitRevisionOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	out, err := uc.attempt(ctx, input)
	if err != nil && errors.IsKind(err, errors.KindConflict) {
		uc.logger.Warn("concurrent update detected, retrying once",
			"revision_id", input.RevisionID,
			"submitted_by", input.SubmittedBy)
		out, err = uc.attempt(ctx, input)
	}
	return out, err
}

func (uc *ResubmitRevisionUseCase) attempt(ctx context.Context, input ResubmitRevisionInput) (*ResubmitRevisionOutput, error) {
	rev, err := uc.revisions.Get(ctx, input.RevisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find revision: %w", err)
	}
	base := rev.UpdatedAt()

	if err := rev.Amend(input.ChangedFields, input.ProposedTotal); err != nil {
		return nil, fmt.Errorf("failed to record changed fields: %w", err)
	}
	version := rev.BumpVersion()

	machine, err := machineFor(uc.catalog, rev.DocumentType())
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	inst := instanceFor(machine.Definition().ID, rev)

	p := payloadFor(rev, input.SubmittedBy, input.Permissions, input.Notes)
	action := workflows.ActionSubmit
	if v := machine.CanTransition(inst, workflows.ActionFastTrack, p); v.Allowed {
		action = workflows.ActionFastTrack
	}

	inst, result := machine.Transition(inst, action, p)
	if !result.Success {
		return nil, fmt.Errorf("cannot resubmit revision: %s", result.Reason)
	}
	rev.TrackInstance(inst)

	cycle, err := rev.BeginCycle(input.SubmittedBy, input.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to open review cycle: %w", err)
	}

	delta := rev.Delta(uc.catalog.Thresholds())
	req := rev.FinancialApproval()
	requiresApproval := action == workflows.ActionSubmit

	var chainID string
	var chain *approval.Chain
	if requiresApproval {
		tier := ladderTier(req, uc.routing.policy)
		approvers, err := uc.directory.ApproversFor(ctx, rev.DocumentType(), tier)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve approvers: %w", err)
		}

		var chainOpts []approval.ChainOption
		if uc.routing.levelPolicy != "" {
			chainOpts = append(chainOpts, approval.WithLevelPolicy(uc.routing.levelPolicy))
		}
		chain, err = approval.NewChain(string(rev.ID()), approvers, chainOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build approval chain: %w", err)
		}
		chainID = chain.ID()
		rev.BindChain(chainID)
	} else {
		reason := fmt.Sprintf("change of %+.1f%% is within the approval threshold", delta.PercentChange*100)
		if _, err := rev.ResolveCycle("system", "auto", approval.CycleApproved, reason, "fast-tracked"); err != nil {
			return nil, fmt.Errorf("failed to close review cycle: %w", err)
		}
		uc.logger.Info("resubmission fast-tracked",
			"revision_id", rev.ID(),
			"version", version,
			"percent_change", delta.PercentChange)
	}

	// Save the revision before the chain so a concurrent-update retry never
	// leaves a stray pending chain behind.
	if err := uc.revisions.Update(ctx, rev, base); err != nil {
		return nil, fmt.Errorf("failed to save revision: %w", err)
	}
	if chain != nil {
		if err := uc.chains.Create(ctx, chain); err != nil {
			return nil, fmt.Errorf("failed to save approval chain: %w", err)
		}
		uc.logger.Info("approval chain reopened",
			"revision_id", rev.ID(),
			"chain_id", chainID,
			"version", version,
			"cycle", cycle.Number)
	}

	publishEvents(ctx, uc.events, uc.logger, string(rev.ID()), revisionEvents(rev))
	rev.ClearDomainEvents()
	if chain != nil {
		publishEvents(ctx, uc.events, uc.logger, string(rev.ID()), chainEvents(chain))
		chain.ClearDomainEvents()
	}

	return &ResubmitRevisionOutput{
		RevisionID:       rev.ID(),
		Version:          version.String(),
		Status:           inst.State,
		RequiresApproval: requiresApproval,
		ChainID:          chainID,
		CycleNumber:      cycle.Number,
		Tier:             req.Tier,
	}, nil
}
