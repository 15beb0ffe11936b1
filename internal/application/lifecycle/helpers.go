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

// machineFor compiles the workflow machine gating a document type's
// revisions.
func machineFor(catalog *workflows.Catalog, docType revision.DocumentType) (*fsm.Machine, error) {
	def, ok := catalog.RevisionGate(docType)
	if !ok {
		return nil, fmt.Errorf("no workflow for document type %q", docType)
	}
	return catalog.Machine(def.ID)
}

// instanceFor rebuilds the workflow instance a revision points at. Step and
// cycle records are the durable history; the instance carries state only.
func instanceFor(definitionID string, rev *revision.Revision) fsm.Instance {
	return fsm.Instance{
		ID:           rev.InstanceID(),
		DefinitionID: definitionID,
		State:        rev.Status(),
		CreatedAt:    rev.CreatedAt(),
		UpdatedAt:    rev.UpdatedAt(),
	}
}

// payloadFor builds the guard payload for a revision's transitions.
func payloadFor(rev *revision.Revision, actor string, permissions []string, notes string) fsm.Payload {
	return fsm.Payload{
		Actor:       actor,
		Permissions: permissions,
		Notes:       notes,
		Data: map[string]any{
			workflows.DataOriginalTotal: rev.OriginalTotal(),
			workflows.DataProposedTotal: rev.ProposedTotal(),
		},
	}
}

// ladderTier picks how deep the approval ladder goes. The dual policy keeps a
// flat manager sign-off; the banded policy escalates with the tier, floored
// at manager because the workflow guard already decided approval is needed.
func ladderTier(req threshold.Requirement, policy threshold.Policy) threshold.Tier {
	if policy == threshold.PolicyDual {
		return threshold.TierManager
	}
	if req.Tier == threshold.TierNone {
		return threshold.TierManager
	}
	return req.Tier
}

// actedStep finds the step a principal just resolved.
func actedStep(chain *approval.Chain, principalID string) (approval.Step, bool) {
	steps := chain.Steps()
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].ActionBy == principalID && steps[i].Resolved() {
			return steps[i], true
		}
	}
	return approval.Step{}, false
}

// revisionEvents adapts the aggregate's recorded events for publishing.
func revisionEvents(rev *revision.Revision) []DomainEvent {
	recorded := rev.DomainEvents()
	out := make([]DomainEvent, len(recorded))
	for i, e := range recorded {
		out[i] = e
	}
	return out
}

// chainEvents adapts the chain's recorded events for publishing.
func chainEvents(chain *approval.Chain) []DomainEvent {
	recorded := chain.DomainEvents()
	out := make([]DomainEvent, len(recorded))
	for i, e := range recorded {
		out[i] = e
	}
	return out
}

// publishEvents broadcasts events best-effort; failures are logged, never
// propagated, so a flaky audit sink cannot fail a completed write.
func publishEvents(ctx context.Context, pub EventPublisher, logger *slog.Logger, subjectID string, events []DomainEvent) {
	if pub == nil || len(events) == 0 {
		return
	}
	if err := pub.Publish(ctx, subjectID, events...); err != nil {
		logger.Warn("failed to publish domain events",
			"error", err,
			"subject_id", subjectID)
	}
}
