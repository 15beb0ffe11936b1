// Package lifecycle implements the application use cases that drive document
// revisions through their approval workflows: submitting a revision,
// deciding a chain step, resubmitting after requested changes, and reporting
// document status.
package lifecycle

import (
	"context"
	"time"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
)

// RevisionRepository persists revision aggregates.
type RevisionRepository interface {
	// Create stores a new revision. Fails with a conflict error when the ID
	// is already taken.
	Create(ctx context.Context, rev *revision.Revision) error

	// Update stores a modified revision. The expected timestamp is the
	// UpdatedAt the caller loaded; a mismatch with the stored record fails
	// with a conflict error and the caller must reload and retry.
	Update(ctx context.Context, rev *revision.Revision, expected time.Time) error

	// Get retrieves a revision by ID.
	Get(ctx context.Context, id revision.RevisionID) (*revision.Revision, error)

	// ListByDocument returns all revisions of a document, oldest first.
	ListByDocument(ctx context.Context, documentID string) ([]*revision.Revision, error)
}

// ChainRepository persists approval chain aggregates.
type ChainRepository interface {
	// Create stores a new chain. Fails with a conflict error when the ID is
	// already taken.
	Create(ctx context.Context, chain *approval.Chain) error

	// Update stores a modified chain under the same optimistic-concurrency
	// contract as RevisionRepository.Update.
	Update(ctx context.Context, chain *approval.Chain, expected time.Time) error

	// Get retrieves a chain by ID.
	Get(ctx context.Context, id string) (*approval.Chain, error)

	// LatestByRevision returns the most recently started chain for a
	// revision. Resubmission builds a fresh chain, so a revision may have
	// several.
	LatestByRevision(ctx context.Context, revisionID string) (*approval.Chain, error)

	// ListPendingFor returns the pending items actionable by a principal
	// across all open chains, oldest chain first.
	ListPendingFor(ctx context.Context, principalID string) ([]approval.PendingItem, error)
}

// ApproverDirectory resolves the approver ladder for a document type up to
// the tier its cost delta requires.
type ApproverDirectory interface {
	ApproversFor(ctx context.Context, docType revision.DocumentType, tier threshold.Tier) ([]approval.Approver, error)
}

// DomainEvent is the common shape of the events the revision and approval
// aggregates record. Both packages' event interfaces satisfy it.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventPublisher broadcasts domain events after a successful write. SubjectID
// groups the stream; use cases publish chain events under their revision.
type EventPublisher interface {
	Publish(ctx context.Context, subjectID string, events ...DomainEvent) error
}
