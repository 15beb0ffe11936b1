// Package approval provides the approval chain bounded context: ordered,
// level-gated approval steps over a single revision, with full cycle history
// across resubmissions.
package approval

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for the approval bounded context.
var (
	ErrNoApprovers     = errors.New("approval chain requires at least one approver")
	ErrNoRevision      = errors.New("approval chain requires a revision id")
	ErrChainComplete   = errors.New("approval chain is already complete")
	ErrNotApprover     = errors.New("principal has no step in this chain")
	ErrNotCurrentLevel = errors.New("step is not at the chain's current level")
	ErrStepResolved    = errors.New("step has already been resolved")
	ErrCycleOpen       = errors.New("previous approval cycle is still open")
	ErrNoOpenCycle     = errors.New("no open approval cycle to resolve")
)

// Approver is one party entitled to act on an approval step. Level orders
// the chain: lower levels act first.
type Approver struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Level int    `json:"level"`
}

// Validate checks the approver for structural soundness.
func (a Approver) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("approver has no id")
	}
	if a.Level <= 0 {
		return fmt.Errorf("approver %s has non-positive level %d", a.ID, a.Level)
	}
	return nil
}
