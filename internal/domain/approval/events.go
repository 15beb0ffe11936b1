package approval

import "time"

// DomainEvent is the interface for all approval domain events.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// ChainStartedEvent is emitted when a new approval chain is created.
type ChainStartedEvent struct {
	ChainID    string
	RevisionID string
	Levels     []int
	At         time.Time
}

func (e *ChainStartedEvent) EventName() string     { return "chain.started" }
func (e *ChainStartedEvent) OccurredAt() time.Time { return e.At }

// StepResolvedEvent is emitted when an approver resolves a step.
type StepResolvedEvent struct {
	ChainID  string
	StepID   string
	Level    int
	Approver string
	Action   StepAction
	At       time.Time
}

func (e *StepResolvedEvent) EventName() string     { return "chain.step_resolved" }
func (e *StepResolvedEvent) OccurredAt() time.Time { return e.At }

// ChainCompletedEvent is emitted when a chain reaches its outcome.
type ChainCompletedEvent struct {
	ChainID    string
	RevisionID string
	Outcome    Outcome
	At         time.Time
}

func (e *ChainCompletedEvent) EventName() string     { return "chain.completed" }
func (e *ChainCompletedEvent) OccurredAt() time.Time { return e.At }
