package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/fsm"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

// SubmitRevisionInput represents the input for the SubmitRevision use case.
type SubmitRevisionInput struct {
	DocumentID    string
	DocumentType  revision.DocumentType
	OriginalTotal float64
	ProposedTotal float64
	// ChangedFields names the document fields this revision touches; they
	// decide whether the next version bump is major or minor.
	ChangedFields []string
	SubmittedBy   string
	Notes         string
	Permissions   []string
}

// Validate validates the SubmitRevisionInput.
func (i *SubmitRevisionInput) Validate() error {
	v := NewValidationError()

	v.Add(ValidateID(i.DocumentID, "document id"))
	if !i.DocumentType.IsValid() {
		v.AddMessage(fmt.Sprintf("unknown document type %q", i.DocumentType))
	}
	if i.SubmittedBy == "" {
		v.AddMessage("submitted_by is required")
	} else {
		v.Add(ValidateSafeString(i.SubmittedBy, "submitted_by", MaxPrincipalLength))
	}
	if len(i.Notes) > MaxNotesLength {
		v.AddMessage(fmt.Sprintf("notes too long (max %d bytes)", MaxNotesLength))
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
	if i.OriginalTotal < 0 || i.ProposedTotal < 0 {
		v.AddMessage("totals must not be negative")
	}

	return v.ToError()
}

// SubmitRevisionOutput represents the output of the SubmitRevision use case.
type SubmitRevisionOutput struct {
	RevisionID       revision.RevisionID
	Version          string
	Status           fsm.StateID
	RequiresApproval bool
	ChainID          string
	CycleNumber      int
	Tier             threshold.Tier
	Delta            threshold.Delta
}

// SubmitRevisionUseCase creates a revision and routes it through its
// workflow: past the threshold gate into an approval chain, or fast-tracked
// straight to approved.
type SubmitRevisionUseCase struct {
	catalog   *workflows.Catalog
	revisions RevisionRepository
	chains    ChainRepository
	directory ApproverDirectory
	events    EventPublisher
	logger    *slog.Logger
	routing   routing
}

// NewSubmitRevisionUseCase creates a new SubmitRevisionUseCase.
func NewSubmitRevisionUseCase(
	catalog *workflows.Catalog,
	revisions RevisionRepository,
	chains ChainRepository,
	directory ApproverDirectory,
	events EventPublisher,
	opts ...RoutingOption,
) *SubmitRevisionUseCase {
	uc := &SubmitRevisionUseCase{
		catalog:   catalog,
		revisions: revisions,
		chains:    chains,
		directory: directory,
		events:    events,
		logger:    slog.Default().With("usecase", "submit_revision"),
		routing:   defaultRouting(),
	}
	for _, opt := range opts {
		opt(&uc.routing)
	}
	return uc
}

// Execute executes the submit revision use case.
func (uc *SubmitRevisionUseCase) Execute(ctx context.Context, input SubmitRevisionInput) (*SubmitRevisionOutput, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	rev, err := revision.NewRevision(input.DocumentID, input.DocumentType, input.SubmittedBy,
		revision.WithTotals(input.OriginalTotal, input.ProposedTotal),
		revision.WithNotes(input.Notes),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create revision: %w", err)
	}
	if len(input.ChangedFields) > 0 {
		if err := rev.Amend(input.ChangedFields, input.ProposedTotal); err != nil {
			return nil, fmt.Errorf("failed to record changed fields: %w", err)
		}
	}

	machine, err := machineFor(uc.catalog, input.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	inst := machine.NewInstance(map[string]any{
		"document_id": input.DocumentID,
		"revision_id": string(rev.ID()),
	})

	// The workflow's threshold guard is the single gate: fast-track when it
	// allows it, otherwise go through approval.
	p := payloadFor(rev, input.SubmittedBy, input.Permissions, input.Notes)
	action := workflows.ActionSubmit
	if v := machine.CanTransition(inst, workflows.ActionFastTrack, p); v.Allowed {
		action = workflows.ActionFastTrack
	}

	inst, result := machine.Transition(inst, action, p)
	if !result.Success {
		return nil, fmt.Errorf("cannot submit revision: %s", result.Reason)
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
		approvers, err := uc.directory.ApproversFor(ctx, input.DocumentType, tier)
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

		if err := uc.chains.Create(ctx, chain); err != nil {
			return nil, fmt.Errorf("failed to save approval chain: %w", err)
		}
		uc.logger.Info("approval chain opened",
			"revision_id", rev.ID(),
			"chain_id", chainID,
			"tier", tier,
			"levels", chain.Levels())
	} else {
		// Below threshold: the cycle closes immediately as auto-approved.
		reason := fmt.Sprintf("change of %+.1f%% is within the approval threshold", delta.PercentChange*100)
		if _, err := rev.ResolveCycle("system", "auto", approval.CycleApproved, reason, "fast-tracked"); err != nil {
			return nil, fmt.Errorf("failed to close review cycle: %w", err)
		}
		uc.logger.Info("revision fast-tracked",
			"revision_id", rev.ID(),
			"percent_change", delta.PercentChange)
	}

	if err := uc.revisions.Create(ctx, rev); err != nil {
		return nil, fmt.Errorf("failed to save revision: %w", err)
	}

	publishEvents(ctx, uc.events, uc.logger, string(rev.ID()), revisionEvents(rev))
	rev.ClearDomainEvents()
	if chain != nil {
		publishEvents(ctx, uc.events, uc.logger, string(rev.ID()), chainEvents(chain))
		chain.ClearDomainEvents()
	}

	return &SubmitRevisionOutput{
		RevisionID:       rev.ID(),
		Version:          rev.Version().String(),
		Status:           inst.State,
		RequiresApproval: requiresApproval,
		ChainID:          chainID,
		CycleNumber:      cycle.Number,
		Tier:             req.Tier,
		Delta:            delta,
	}, nil
}
