package revision

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/fsm"
)

// RevisionID uniquely identifies a document revision.
type RevisionID string

// String returns the string representation of the RevisionID.
func (id RevisionID) String() string {
	return string(id)
}

// Short returns a truncated form for display.
func (id RevisionID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// DocumentType identifies which workflow a document follows.
type DocumentType string

const (
	DocumentPurchaseOrder DocumentType = "purchase_order"
	DocumentSalesOrder    DocumentType = "sales_order"
	DocumentRMA           DocumentType = "rma"
)

// IsValid returns true if the document type is recognized.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentPurchaseOrder, DocumentSalesOrder, DocumentRMA:
		return true
	}
	return false
}

// Domain errors
var (
	ErrNoDocument          = errors.New("revision requires a document id")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrNoChanges           = errors.New("amendment requires at least one changed field")
)

// GenerateRevisionID returns a new revision identifier.
func GenerateRevisionID() RevisionID {
	return RevisionID(fmt.Sprintf("rev_%s", uuid.New().String()[:12]))
}

// Revision is the aggregate root for one version of a document. It carries
// the major.minor version, the cost baseline and proposal, the accumulated
// changed fields, and the full review-cycle history. Revisions are never
// deleted; a newer revision supersedes them.
type Revision struct {
	// Identity
	id           RevisionID
	documentID   string
	documentType DocumentType

	// Versioning
	version Version

	// Workflow binding
	status     fsm.StateID
	instanceID string
	chainID    string

	// Cost facts for threshold evaluation
	originalTotal float64
	proposedTotal float64

	// Draft edits since the last version bump
	changedFields []string

	// Review history
	cycles *approval.CycleLog

	createdBy string
	notes     string

	createdAt time.Time
	updatedAt time.Time

	// Domain events (collected for publication)
	domainEvents []DomainEvent
}

// RevisionOption configures revision construction.
type RevisionOption func(*Revision)

// WithVersion overrides the initial version.
func WithVersion(v Version) RevisionOption {
	return func(r *Revision) {
		r.version = v
	}
}

// WithTotals sets the cost baseline and the proposed total.
func WithTotals(original, proposed float64) RevisionOption {
	return func(r *Revision) {
		r.originalTotal = original
		r.proposedTotal = proposed
	}
}

// WithNotes attaches free-form notes.
func WithNotes(notes string) RevisionOption {
	return func(r *Revision) {
		r.notes = notes
	}
}

// NewRevision creates a revision at version 1.0 for the given document.
func NewRevision(documentID string, docType DocumentType, createdBy string, opts ...RevisionOption) (*Revision, error) {
	if documentID == "" {
		return nil, ErrNoDocument
	}
	if !docType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocumentType, docType)
	}

	now := time.Now()
	r := &Revision{
		id:           GenerateRevisionID(),
		documentID:   documentID,
		documentType: docType,
		version:      Initial,
		cycles:       approval.NewCycleLog(),
		createdBy:    createdBy,
		createdAt:    now,
		updatedAt:    now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.addEvent(&CreatedEvent{
		RevisionID:   r.id,
		DocumentID:   documentID,
		DocumentType: docType,
		Version:      r.version,
		At:           now,
	})
	return r, nil
}

// ReconstructRevision rebuilds a revision from persisted state. Used by
// repositories; emits no events and performs no validation.
func ReconstructRevision(
	id RevisionID,
	documentID string,
	docType DocumentType,
	version Version,
	status fsm.StateID,
	instanceID string,
	chainID string,
	originalTotal float64,
	proposedTotal float64,
	changedFields []string,
	cycles []approval.Cycle,
	createdBy string,
	notes string,
	createdAt time.Time,
	updatedAt time.Time,
) *Revision {
	fields := make([]string, len(changedFields))
	copy(fields, changedFields)
	return &Revision{
		id:            id,
		documentID:    documentID,
		documentType:  docType,
		version:       version,
		status:        status,
		instanceID:    instanceID,
		chainID:       chainID,
		originalTotal: originalTotal,
		proposedTotal: proposedTotal,
		changedFields: fields,
		cycles:        approval.ReconstructCycleLog(cycles),
		createdBy:     createdBy,
		notes:         notes,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the revision identifier.
func (r *Revision) ID() RevisionID { return r.id }

// DocumentID returns the owning document's identifier.
func (r *Revision) DocumentID() string { return r.documentID }

// DocumentType returns the document's workflow family.
func (r *Revision) DocumentType() DocumentType { return r.documentType }

// Version returns the revision's major.minor version.
func (r *Revision) Version() Version { return r.version }

// Status returns the mirrored workflow state.
func (r *Revision) Status() fsm.StateID { return r.status }

// InstanceID returns the bound workflow instance, if any.
func (r *Revision) InstanceID() string { return r.instanceID }

// ChainID returns the bound approval chain, if any.
func (r *Revision) ChainID() string { return r.chainID }

// OriginalTotal returns the cost baseline the proposal is measured against.
func (r *Revision) OriginalTotal() float64 { return r.originalTotal }

// ProposedTotal returns the proposed cost.
func (r *Revision) ProposedTotal() float64 { return r.proposedTotal }

// ChangedFields returns a copy of the fields edited since the last bump.
func (r *Revision) ChangedFields() []string {
	out := make([]string, len(r.changedFields))
	copy(out, r.changedFields)
	return out
}

// CreatedBy returns the revision author.
func (r *Revision) CreatedBy() string { return r.createdBy }

// Notes returns the free-form notes.
func (r *Revision) Notes() string { return r.notes }

// CreatedAt returns when the revision was created.
func (r *Revision) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last mutation time, the optimistic concurrency token.
func (r *Revision) UpdatedAt() time.Time { return r.updatedAt }

// Cycles returns a copy of all review cycles in submission order.
func (r *Revision) Cycles() []approval.Cycle {
	return r.cycles.Cycles()
}

// CurrentCycle returns the open review cycle, if any.
func (r *Revision) CurrentCycle() (approval.Cycle, bool) {
	return r.cycles.Current()
}

// CycleCount returns how many review cycles have been opened.
func (r *Revision) CycleCount() int {
	return r.cycles.Count()
}

// DomainEvents returns all uncommitted domain events.
func (r *Revision) DomainEvents() []DomainEvent {
	return r.domainEvents
}

// ClearDomainEvents clears the domain events after publication.
func (r *Revision) ClearDomainEvents() {
	r.domainEvents = nil
}

func (r *Revision) addEvent(event DomainEvent) {
	r.domainEvents = append(r.domainEvents, event)
}

func (r *Revision) touch() {
	r.updatedAt = time.Now()
}

// TrackInstance binds the revision to a workflow instance and mirrors its
// state. Call again after every transition to keep the mirror current.
func (r *Revision) TrackInstance(inst fsm.Instance) {
	r.instanceID = inst.ID
	r.status = inst.State
	r.touch()
}

// BindChain attaches the approval chain gating this revision.
func (r *Revision) BindChain(chainID string) {
	r.chainID = chainID
	r.touch()
}

// Amend records draft edits: the changed field names accumulate (without
// duplicates) and the proposed total is replaced. The version does not move
// until BumpVersion consumes the accumulated fields.
func (r *Revision) Amend(changed []string, proposedTotal float64) error {
	if len(changed) == 0 {
		return ErrNoChanges
	}
	for _, f := range changed {
		if !r.hasChangedField(f) {
			r.changedFields = append(r.changedFields, f)
		}
	}
	r.proposedTotal = proposedTotal
	r.touch()

	r.addEvent(&AmendedEvent{
		RevisionID:    r.id,
		Fields:        r.ChangedFields(),
		ProposedTotal: proposedTotal,
		At:            r.updatedAt,
	})
	return nil
}

func (r *Revision) hasChangedField(field string) bool {
	for _, f := range r.changedFields {
		if f == field {
			return true
		}
	}
	return false
}

// BumpVersion applies the versioning policy to the accumulated changed
// fields: any critical field forces a major bump, otherwise minor. The
// fields are consumed so the next cycle starts clean. Returns the new
// version.
func (r *Revision) BumpVersion() Version {
	critical := HasCriticalChanges(r.changedFields)
	from := r.version
	r.version = NextVersion(r.version, critical)
	r.changedFields = nil
	r.touch()

	r.addEvent(&VersionBumpedEvent{
		RevisionID: r.id,
		From:       from,
		To:         r.version,
		Critical:   critical,
		At:         r.updatedAt,
	})
	return r.version
}

// BeginCycle opens the next review cycle for this revision.
func (r *Revision) BeginCycle(submittedBy, notes string) (approval.Cycle, error) {
	c, err := r.cycles.Begin(submittedBy, notes)
	if err != nil {
		return approval.Cycle{}, err
	}
	r.touch()

	r.addEvent(&SubmittedEvent{
		RevisionID:  r.id,
		CycleNumber: c.Number,
		SubmittedBy: submittedBy,
		At:          r.updatedAt,
	})
	return c, nil
}

// ResolveCycle closes the open review cycle with a final verdict.
func (r *Revision) ResolveCycle(reviewedBy, reviewerRole string, outcome approval.CycleOutcome, feedback, resolution string) (approval.Cycle, error) {
	c, err := r.cycles.Resolve(reviewedBy, reviewerRole, outcome, feedback, resolution)
	if err != nil {
		return approval.Cycle{}, err
	}
	r.touch()

	r.addEvent(&DecidedEvent{
		RevisionID:  r.id,
		CycleNumber: c.Number,
		Outcome:     outcome,
		DecidedBy:   reviewedBy,
		At:          r.updatedAt,
	})
	return c, nil
}

// Delta evaluates the revision's cost change against a threshold config.
func (r *Revision) Delta(cfg threshold.Config) threshold.Delta {
	return threshold.CostDelta(r.originalTotal, r.proposedTotal, cfg)
}

// FinancialApproval evaluates which approval tier the revision's cost
// change demands under the banded policy.
func (r *Revision) FinancialApproval() threshold.Requirement {
	return threshold.RequiresFinancialApproval(r.originalTotal, r.proposedTotal)
}
