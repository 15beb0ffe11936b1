package approval

import (
	"errors"
	"testing"
)

func chainApprovers() []Approver {
	return []Approver{
		{ID: "exec-1", Name: "Dana Reyes", Role: "executive", Level: 3},
		{ID: "mgr-1", Name: "Alex Kim", Role: "manager", Level: 1},
		{ID: "dir-1", Name: "Sam Ortiz", Role: "director", Level: 2},
	}
}

func TestNewChain(t *testing.T) {
	c, err := NewChain("rev-1", chainApprovers())
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	if c.ID() == "" {
		t.Error("ID() is empty")
	}
	if c.RevisionID() != "rev-1" {
		t.Errorf("RevisionID() = %v, want rev-1", c.RevisionID())
	}
	if c.IsComplete() {
		t.Error("IsComplete() = true, want false")
	}
	if c.Outcome() != OutcomePending {
		t.Errorf("Outcome() = %v, want %v", c.Outcome(), OutcomePending)
	}
	if c.LevelPolicy() != LevelPolicyAll {
		t.Errorf("LevelPolicy() = %v, want %v", c.LevelPolicy(), LevelPolicyAll)
	}
	if c.CurrentLevel() != 1 {
		t.Errorf("CurrentLevel() = %d, want 1", c.CurrentLevel())
	}
	if c.StartedAt().IsZero() {
		t.Error("StartedAt() is zero")
	}
	if c.CompletedAt() != nil {
		t.Error("CompletedAt() != nil for a fresh chain")
	}

	steps := c.Steps()
	if len(steps) != 3 {
		t.Fatalf("Steps() length = %d, want 3", len(steps))
	}
	for i, wantLevel := range []int{1, 2, 3} {
		if steps[i].Level != wantLevel {
			t.Errorf("steps[%d].Level = %d, want %d", i, steps[i].Level, wantLevel)
		}
		if steps[i].Status != StepPending {
			t.Errorf("steps[%d].Status = %v, want %v", i, steps[i].Status, StepPending)
		}
		if steps[i].ID == "" {
			t.Errorf("steps[%d].ID is empty", i)
		}
	}

	events := c.DomainEvents()
	if len(events) != 1 {
		t.Fatalf("DomainEvents() length = %d, want 1", len(events))
	}
	if events[0].EventName() != "chain.started" {
		t.Errorf("EventName() = %v, want chain.started", events[0].EventName())
	}
}

func TestNewChain_StableOrderWithinLevel(t *testing.T) {
	approvers := []Approver{
		{ID: "b", Name: "B", Role: "manager", Level: 1},
		{ID: "z", Name: "Z", Role: "director", Level: 2},
		{ID: "a", Name: "A", Role: "manager", Level: 1},
	}
	c, err := NewChain("rev-1", approvers)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	steps := c.Steps()
	got := []string{steps[0].Approver.ID, steps[1].Approver.ID, steps[2].Approver.ID}
	want := []string{"b", "a", "z"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step order = %v, want %v", got, want)
			break
		}
	}
}

func TestNewChain_Validation(t *testing.T) {
	tests := []struct {
		name       string
		revisionID string
		approvers  []Approver
		opts       []ChainOption
		wantErr    error
	}{
		{
			name:      "missing revision",
			approvers: chainApprovers(),
			wantErr:   ErrNoRevision,
		},
		{
			name:       "no approvers",
			revisionID: "rev-1",
			wantErr:    ErrNoApprovers,
		},
		{
			name:       "approver without level",
			revisionID: "rev-1",
			approvers:  []Approver{{ID: "a", Name: "A", Role: "manager"}},
		},
		{
			name:       "unknown level policy",
			revisionID: "rev-1",
			approvers:  chainApprovers(),
			opts:       []ChainOption{WithLevelPolicy("quorum")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChain(tt.revisionID, tt.approvers, tt.opts...)
			if err == nil {
				t.Fatal("NewChain() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("NewChain() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChain_ApproveAdvancesThroughLevels(t *testing.T) {
	c, _ := NewChain("rev-1", chainApprovers())
	c.ClearDomainEvents()

	if err := c.Approve("mgr-1", "looks fine"); err != nil {
		t.Fatalf("Approve(mgr-1) error = %v", err)
	}
	if c.CurrentLevel() != 2 {
		t.Errorf("CurrentLevel() = %d, want 2", c.CurrentLevel())
	}
	if c.IsComplete() {
		t.Error("IsComplete() = true after first approval")
	}

	if err := c.Approve("dir-1", ""); err != nil {
		t.Fatalf("Approve(dir-1) error = %v", err)
	}
	if c.CurrentLevel() != 3 {
		t.Errorf("CurrentLevel() = %d, want 3", c.CurrentLevel())
	}

	if err := c.Approve("exec-1", "ship it"); err != nil {
		t.Fatalf("Approve(exec-1) error = %v", err)
	}
	if !c.IsComplete() {
		t.Error("IsComplete() = false after final approval")
	}
	if c.Outcome() != OutcomeApproved {
		t.Errorf("Outcome() = %v, want %v", c.Outcome(), OutcomeApproved)
	}
	// The level does not advance past the last resolved step.
	if c.CurrentLevel() != 3 {
		t.Errorf("CurrentLevel() = %d, want 3 after completion", c.CurrentLevel())
	}
	if c.CompletedAt() == nil {
		t.Error("CompletedAt() = nil after completion")
	}

	step := c.Steps()[0]
	if step.Status != StepApproved {
		t.Errorf("step.Status = %v, want %v", step.Status, StepApproved)
	}
	if step.Action != ActionApprove {
		t.Errorf("step.Action = %v, want %v", step.Action, ActionApprove)
	}
	if step.ActionBy != "mgr-1" {
		t.Errorf("step.ActionBy = %v, want mgr-1", step.ActionBy)
	}
	if step.ActionAt == nil {
		t.Error("step.ActionAt = nil after approval")
	}
	if step.Notes != "looks fine" {
		t.Errorf("step.Notes = %q, want %q", step.Notes, "looks fine")
	}

	events := c.DomainEvents()
	var names []string
	for _, e := range events {
		names = append(names, e.EventName())
	}
	want := []string{
		"chain.step_resolved",
		"chain.step_resolved",
		"chain.step_resolved",
		"chain.completed",
	}
	if len(names) != len(want) {
		t.Fatalf("event names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, names[i], want[i])
		}
	}
}

func TestChain_RejectShortCircuits(t *testing.T) {
	c, _ := NewChain("rev-1", chainApprovers())

	if err := c.Approve("mgr-1", ""); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if err := c.Reject("dir-1", "budget exceeded"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	if !c.IsComplete() {
		t.Error("IsComplete() = false after rejection")
	}
	if c.Outcome() != OutcomeRejected {
		t.Errorf("Outcome() = %v, want %v", c.Outcome(), OutcomeRejected)
	}

	steps := c.Steps()
	if steps[0].Status != StepApproved {
		t.Errorf("level 1 status = %v, want %v", steps[0].Status, StepApproved)
	}
	if steps[1].Status != StepRejected {
		t.Errorf("level 2 status = %v, want %v", steps[1].Status, StepRejected)
	}
	if steps[2].Status != StepSkipped {
		t.Errorf("level 3 status = %v, want %v", steps[2].Status, StepSkipped)
	}
	// Skipped steps were never acted on.
	if steps[2].ActionBy != "" || steps[2].ActionAt != nil {
		t.Error("skipped step carries action attribution")
	}

	var completed bool
	for _, e := range c.DomainEvents() {
		if e.EventName() == "chain.completed" {
			completed = true
		}
	}
	if !completed {
		t.Error("chain.completed event not found")
	}
}

func TestChain_ActionGuards(t *testing.T) {
	c, _ := NewChain("rev-1", chainApprovers())

	if err := c.Approve("nobody", ""); !errors.Is(err, ErrNotApprover) {
		t.Errorf("Approve(nobody) error = %v, want %v", err, ErrNotApprover)
	}
	if err := c.Approve("exec-1", ""); !errors.Is(err, ErrNotCurrentLevel) {
		t.Errorf("Approve(exec-1) at level 1 error = %v, want %v", err, ErrNotCurrentLevel)
	}

	if err := c.Approve("mgr-1", ""); err != nil {
		t.Fatalf("Approve(mgr-1) error = %v", err)
	}
	if err := c.Approve("mgr-1", "again"); !errors.Is(err, ErrStepResolved) {
		t.Errorf("second Approve(mgr-1) error = %v, want %v", err, ErrStepResolved)
	}

	_ = c.Approve("dir-1", "")
	_ = c.Approve("exec-1", "")
	if err := c.Approve("mgr-1", ""); !errors.Is(err, ErrChainComplete) {
		t.Errorf("Approve() on complete chain error = %v, want %v", err, ErrChainComplete)
	}
	if err := c.Reject("dir-1", ""); !errors.Is(err, ErrChainComplete) {
		t.Errorf("Reject() on complete chain error = %v, want %v", err, ErrChainComplete)
	}
}

func TestChain_LevelPolicyAll_SameLevel(t *testing.T) {
	approvers := []Approver{
		{ID: "mgr-1", Name: "A", Role: "manager", Level: 1},
		{ID: "mgr-2", Name: "B", Role: "manager", Level: 1},
		{ID: "dir-1", Name: "C", Role: "director", Level: 2},
	}
	c, _ := NewChain("rev-1", approvers)

	if err := c.Approve("mgr-1", ""); err != nil {
		t.Fatalf("Approve(mgr-1) error = %v", err)
	}
	// Level 1 still has a pending step, so the chain holds.
	if c.CurrentLevel() != 1 {
		t.Errorf("CurrentLevel() = %d, want 1", c.CurrentLevel())
	}

	if err := c.Approve("mgr-2", ""); err != nil {
		t.Fatalf("Approve(mgr-2) error = %v", err)
	}
	if c.CurrentLevel() != 2 {
		t.Errorf("CurrentLevel() = %d, want 2", c.CurrentLevel())
	}
}

func TestChain_LevelPolicyAny_SameLevel(t *testing.T) {
	approvers := []Approver{
		{ID: "mgr-1", Name: "A", Role: "manager", Level: 1},
		{ID: "mgr-2", Name: "B", Role: "manager", Level: 1},
		{ID: "dir-1", Name: "C", Role: "director", Level: 2},
	}
	c, err := NewChain("rev-1", approvers, WithLevelPolicy(LevelPolicyAny))
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	if err := c.Approve("mgr-2", ""); err != nil {
		t.Fatalf("Approve(mgr-2) error = %v", err)
	}
	if c.CurrentLevel() != 2 {
		t.Errorf("CurrentLevel() = %d, want 2", c.CurrentLevel())
	}

	steps := c.Steps()
	if steps[0].Status != StepSkipped {
		t.Errorf("peer step status = %v, want %v", steps[0].Status, StepSkipped)
	}
	if steps[1].Status != StepApproved {
		t.Errorf("acting step status = %v, want %v", steps[1].Status, StepApproved)
	}
}

func TestChain_CanAct(t *testing.T) {
	c, _ := NewChain("rev-1", chainApprovers())

	if st := c.CanAct("mgr-1"); !st.CanAct {
		t.Errorf("CanAct(mgr-1) = %+v, want actionable", st)
	}
	if st := c.CanAct("dir-1"); st.CanAct {
		t.Error("CanAct(dir-1) actionable at level 1")
	}
	if st := c.CanAct("nobody"); st.CanAct || st.Reason == "" {
		t.Errorf("CanAct(nobody) = %+v, want blocked with reason", st)
	}

	_ = c.Approve("mgr-1", "")
	_ = c.Reject("dir-1", "")
	if st := c.CanAct("exec-1"); st.CanAct {
		t.Error("CanAct(exec-1) actionable on complete chain")
	}
}

func TestChain_PendingItemFor(t *testing.T) {
	c, _ := NewChain("rev-1", chainApprovers())

	item, ok := c.PendingItemFor("mgr-1")
	if !ok {
		t.Fatal("PendingItemFor(mgr-1) not found")
	}
	if item.ChainID != c.ID() {
		t.Errorf("item.ChainID = %v, want %v", item.ChainID, c.ID())
	}
	if item.RevisionID != "rev-1" {
		t.Errorf("item.RevisionID = %v, want rev-1", item.RevisionID)
	}
	if item.Level != 1 {
		t.Errorf("item.Level = %d, want 1", item.Level)
	}
	if item.Approver.ID != "mgr-1" {
		t.Errorf("item.Approver.ID = %v, want mgr-1", item.Approver.ID)
	}

	if _, ok := c.PendingItemFor("dir-1"); ok {
		t.Error("PendingItemFor(dir-1) found at level 1")
	}

	_ = c.Approve("mgr-1", "")
	if _, ok := c.PendingItemFor("dir-1"); !ok {
		t.Error("PendingItemFor(dir-1) not found at level 2")
	}
	if _, ok := c.PendingItemFor("mgr-1"); ok {
		t.Error("PendingItemFor(mgr-1) found after resolving")
	}
}

func TestChain_Summarize(t *testing.T) {
	c, _ := NewChain("rev-1", chainApprovers())
	_ = c.Approve("mgr-1", "")

	s := c.Summarize()
	if s.ID != c.ID() {
		t.Errorf("Summary.ID = %v, want %v", s.ID, c.ID())
	}
	if s.TotalSteps != 3 {
		t.Errorf("Summary.TotalSteps = %d, want 3", s.TotalSteps)
	}
	if s.Resolved != 1 {
		t.Errorf("Summary.Resolved = %d, want 1", s.Resolved)
	}
	if s.CurrentLevel != 2 {
		t.Errorf("Summary.CurrentLevel = %d, want 2", s.CurrentLevel)
	}
	if s.Complete {
		t.Error("Summary.Complete = true, want false")
	}
}

func TestChain_Levels(t *testing.T) {
	approvers := []Approver{
		{ID: "a", Name: "A", Role: "manager", Level: 1},
		{ID: "b", Name: "B", Role: "manager", Level: 1},
		{ID: "c", Name: "C", Role: "executive", Level: 3},
	}
	c, _ := NewChain("rev-1", approvers)

	levels := c.Levels()
	want := []int{1, 3}
	if len(levels) != len(want) {
		t.Fatalf("Levels() = %v, want %v", levels, want)
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Errorf("Levels() = %v, want %v", levels, want)
			break
		}
	}
}

func TestReconstructChain(t *testing.T) {
	original, _ := NewChain("rev-1", chainApprovers())
	_ = original.Approve("mgr-1", "ok")

	completedAt := original.CompletedAt()
	rebuilt := ReconstructChain(
		original.ID(),
		original.RevisionID(),
		original.Steps(),
		original.CurrentLevel(),
		original.IsComplete(),
		original.Outcome(),
		original.LevelPolicy(),
		original.StartedAt(),
		completedAt,
		original.UpdatedAt(),
	)

	if rebuilt.ID() != original.ID() {
		t.Errorf("ID() = %v, want %v", rebuilt.ID(), original.ID())
	}
	if rebuilt.CurrentLevel() != 2 {
		t.Errorf("CurrentLevel() = %d, want 2", rebuilt.CurrentLevel())
	}
	if len(rebuilt.DomainEvents()) != 0 {
		t.Errorf("DomainEvents() length = %d, want 0", len(rebuilt.DomainEvents()))
	}

	// The rebuilt chain keeps working from where it left off.
	if err := rebuilt.Approve("dir-1", ""); err != nil {
		t.Fatalf("Approve() on rebuilt chain error = %v", err)
	}
	if err := rebuilt.Approve("exec-1", ""); err != nil {
		t.Fatalf("Approve() on rebuilt chain error = %v", err)
	}
	if rebuilt.Outcome() != OutcomeApproved {
		t.Errorf("Outcome() = %v, want %v", rebuilt.Outcome(), OutcomeApproved)
	}
}

func TestChain_StepsReturnsCopy(t *testing.T) {
	c, _ := NewChain("rev-1", chainApprovers())

	steps := c.Steps()
	steps[0].Status = StepRejected

	if c.Steps()[0].Status != StepPending {
		t.Error("mutating Steps() result changed aggregate state")
	}
}
