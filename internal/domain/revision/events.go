package revision

import (
	"time"

	"github.com/gateflow-tech/gateflow/internal/domain/approval"
)

// DomainEvent is the interface all revision events implement.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// CreatedEvent is emitted when a revision is created.
type CreatedEvent struct {
	RevisionID   RevisionID
	DocumentID   string
	DocumentType DocumentType
	Version      Version
	At           time.Time
}

// EventName returns the event name.
func (e *CreatedEvent) EventName() string { return "revision.created" }

// OccurredAt returns when the event occurred.
func (e *CreatedEvent) OccurredAt() time.Time { return e.At }

// AmendedEvent is emitted when draft changes are recorded on a revision.
type AmendedEvent struct {
	RevisionID    RevisionID
	Fields        []string
	ProposedTotal float64
	At            time.Time
}

// EventName returns the event name.
func (e *AmendedEvent) EventName() string { return "revision.amended" }

// OccurredAt returns when the event occurred.
func (e *AmendedEvent) OccurredAt() time.Time { return e.At }

// SubmittedEvent is emitted when a revision opens a review cycle.
type SubmittedEvent struct {
	RevisionID  RevisionID
	CycleNumber int
	SubmittedBy string
	At          time.Time
}

// EventName returns the event name.
func (e *SubmittedEvent) EventName() string { return "revision.submitted" }

// OccurredAt returns when the event occurred.
func (e *SubmittedEvent) OccurredAt() time.Time { return e.At }

// DecidedEvent is emitted when a review cycle resolves.
type DecidedEvent struct {
	RevisionID  RevisionID
	CycleNumber int
	Outcome     approval.CycleOutcome
	DecidedBy   string
	At          time.Time
}

// EventName returns the event name.
func (e *DecidedEvent) EventName() string { return "revision.decided" }

// OccurredAt returns when the event occurred.
func (e *DecidedEvent) OccurredAt() time.Time { return e.At }

// VersionBumpedEvent is emitted when the versioning policy advances a
// revision's version.
type VersionBumpedEvent struct {
	RevisionID RevisionID
	From       Version
	To         Version
	Critical   bool
	At         time.Time
}

// EventName returns the event name.
func (e *VersionBumpedEvent) EventName() string { return "revision.version_bumped" }

// OccurredAt returns when the event occurred.
func (e *VersionBumpedEvent) OccurredAt() time.Time { return e.At }
