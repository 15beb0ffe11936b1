package approval

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CycleOutcome is the verdict of one review cycle.
type CycleOutcome string

const (
	// CyclePending means the cycle awaits review.
	CyclePending CycleOutcome = "pending"
	// CycleApproved closes the cycle with approval.
	CycleApproved CycleOutcome = "approved"
	// CycleRejected closes the cycle with a final rejection.
	CycleRejected CycleOutcome = "rejected"
	// CycleChangesRequested closes the cycle asking for a resubmission.
	CycleChangesRequested CycleOutcome = "changes_requested"
)

// IsValid returns true if the outcome is recognized.
func (o CycleOutcome) IsValid() bool {
	switch o {
	case CyclePending, CycleApproved, CycleRejected, CycleChangesRequested:
		return true
	}
	return false
}

// Resolved returns true once the cycle carries a final verdict.
func (o CycleOutcome) Resolved() bool {
	return o.IsValid() && o != CyclePending
}

// GenerateCycleID returns a new cycle identifier.
func GenerateCycleID() string {
	return fmt.Sprintf("cycle_%s", uuid.New().String()[:12])
}

// Cycle is one submit-review round of a revision. Numbers are 1-based and a
// resolved cycle is never reopened or overwritten; resubmission starts the
// next cycle.
type Cycle struct {
	ID              string       `json:"id"`
	Number          int          `json:"number"`
	SubmittedAt     time.Time    `json:"submitted_at"`
	SubmittedBy     string       `json:"submitted_by"`
	SubmissionNotes string       `json:"submission_notes,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	ReviewedBy      string       `json:"reviewed_by,omitempty"`
	ReviewerRole    string       `json:"reviewer_role,omitempty"`
	Outcome         CycleOutcome `json:"outcome"`
	Feedback        string       `json:"feedback,omitempty"`
	Resolution      string       `json:"resolution,omitempty"`
}

// Open returns true while the cycle awaits review.
func (c Cycle) Open() bool {
	return !c.Outcome.Resolved()
}

// CycleLog tracks the full submit-review history of a revision.
type CycleLog struct {
	cycles []Cycle
}

// NewCycleLog returns an empty log.
func NewCycleLog() *CycleLog {
	return &CycleLog{}
}

// ReconstructCycleLog rebuilds a log from persisted cycles.
func ReconstructCycleLog(cycles []Cycle) *CycleLog {
	copied := make([]Cycle, len(cycles))
	copy(copied, cycles)
	return &CycleLog{cycles: copied}
}

// Begin opens the next cycle. Numbers start at 1 and only one cycle may be
// open at a time.
func (l *CycleLog) Begin(submittedBy, notes string) (Cycle, error) {
	if _, ok := l.Current(); ok {
		return Cycle{}, ErrCycleOpen
	}
	c := Cycle{
		ID:              GenerateCycleID(),
		Number:          len(l.cycles) + 1,
		SubmittedAt:     time.Now(),
		SubmittedBy:     submittedBy,
		SubmissionNotes: notes,
		Outcome:         CyclePending,
	}
	l.cycles = append(l.cycles, c)
	return c, nil
}

// Resolve closes the open cycle with a final verdict.
func (l *CycleLog) Resolve(reviewedBy, reviewerRole string, outcome CycleOutcome, feedback, resolution string) (Cycle, error) {
	if !outcome.Resolved() {
		return Cycle{}, fmt.Errorf("outcome %q does not resolve a cycle", outcome)
	}
	for i := len(l.cycles) - 1; i >= 0; i-- {
		if !l.cycles[i].Open() {
			continue
		}
		now := time.Now()
		c := &l.cycles[i]
		c.ReviewedAt = &now
		c.ReviewedBy = reviewedBy
		c.ReviewerRole = reviewerRole
		c.Outcome = outcome
		c.Feedback = feedback
		c.Resolution = resolution
		return *c, nil
	}
	return Cycle{}, ErrNoOpenCycle
}

// Current returns the open cycle, if any.
func (l *CycleLog) Current() (Cycle, bool) {
	for i := len(l.cycles) - 1; i >= 0; i-- {
		if l.cycles[i].Open() {
			return l.cycles[i], true
		}
	}
	return Cycle{}, false
}

// Count returns how many cycles have been opened.
func (l *CycleLog) Count() int {
	return len(l.cycles)
}

// Cycles returns a copy of all cycles in submission order.
func (l *CycleLog) Cycles() []Cycle {
	out := make([]Cycle, len(l.cycles))
	copy(out, l.cycles)
	return out
}
