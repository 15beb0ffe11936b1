package approval

import "time"

// StepStatus is the lifecycle state of one approval step.
type StepStatus string

const (
	// StepPending awaits the assigned approver's action.
	StepPending StepStatus = "pending"
	// StepApproved was approved by its approver.
	StepApproved StepStatus = "approved"
	// StepRejected was rejected by its approver.
	StepRejected StepStatus = "rejected"
	// StepSkipped was resolved without action because a rejection elsewhere
	// short-circuited the chain.
	StepSkipped StepStatus = "skipped"
)

// IsValid returns true if the status is recognized.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepApproved, StepRejected, StepSkipped:
		return true
	default:
		return false
	}
}

// IsResolved returns true once the step can no longer change.
func (s StepStatus) IsResolved() bool {
	return s != StepPending && s.IsValid()
}

// StepAction is the action an approver recorded on a step.
type StepAction string

const (
	ActionApprove StepAction = "approve"
	ActionReject  StepAction = "reject"
)

// Step is one approver's slot in a chain. Its status starts pending; once a
// terminal action is recorded, status and action are set together and never
// revert.
type Step struct {
	ID       string     `json:"id"`
	Level    int        `json:"level"`
	Approver Approver   `json:"approver"`
	Status   StepStatus `json:"status"`
	Action   StepAction `json:"action,omitempty"`
	Notes    string     `json:"notes,omitempty"`
	ActionBy string     `json:"action_by,omitempty"`
	ActionAt *time.Time `json:"action_at,omitempty"`
}

// Resolved returns true once the step has left pending.
func (s Step) Resolved() bool {
	return s.Status.IsResolved()
}
