package approval

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Outcome is the final verdict of a chain.
type Outcome string

const (
	// OutcomePending means the chain is still collecting decisions.
	OutcomePending Outcome = "pending"
	// OutcomeApproved means every step was approved.
	OutcomeApproved Outcome = "approved"
	// OutcomeRejected means some step was rejected; the chain short-circuited.
	OutcomeRejected Outcome = "rejected"
)

// LevelPolicy decides how approvers sharing a level resolve it.
type LevelPolicy string

const (
	// LevelPolicyAll requires every approver at a level to approve before
	// the chain advances. This is the default.
	LevelPolicyAll LevelPolicy = "all"
	// LevelPolicyAny advances as soon as one approver at the level
	// approves; the level's remaining steps are skipped.
	LevelPolicyAny LevelPolicy = "any"
)

// IsValid returns true if the policy is recognized.
func (p LevelPolicy) IsValid() bool {
	return p == LevelPolicyAll || p == LevelPolicyAny
}

// GenerateChainID returns a new chain identifier.
func GenerateChainID() string {
	return fmt.Sprintf("chain_%s", uuid.New().String()[:12])
}

// GenerateStepID returns a new step identifier.
func GenerateStepID() string {
	return fmt.Sprintf("step_%s", uuid.New().String()[:12])
}

// Chain is the aggregate root for one revision's approval. Steps are
// strictly ordered by ascending level; the current level gates which steps
// may act; a rejection anywhere halts the whole chain immediately.
type Chain struct {
	id           string
	revisionID   string
	steps        []Step
	currentLevel int
	complete     bool
	outcome      Outcome
	levelPolicy  LevelPolicy

	startedAt   time.Time
	completedAt *time.Time
	updatedAt   time.Time

	domainEvents []DomainEvent
}

// ChainOption configures chain construction.
type ChainOption func(*Chain)

// WithLevelPolicy selects how same-level approvers resolve their level.
func WithLevelPolicy(p LevelPolicy) ChainOption {
	return func(c *Chain) {
		c.levelPolicy = p
	}
}

// NewChain builds a chain for a revision from the given approvers. Approvers
// are stable-sorted ascending by level, one pending step each; approvers may
// share a level. The chain starts at the lowest level present.
func NewChain(revisionID string, approvers []Approver, opts ...ChainOption) (*Chain, error) {
	if revisionID == "" {
		return nil, ErrNoRevision
	}
	if len(approvers) == 0 {
		return nil, ErrNoApprovers
	}
	for _, a := range approvers {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("invalid approver: %w", err)
		}
	}

	ordered := make([]Approver, len(approvers))
	copy(ordered, approvers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Level < ordered[j].Level
	})

	now := time.Now()
	c := &Chain{
		id:          GenerateChainID(),
		revisionID:  revisionID,
		outcome:     OutcomePending,
		levelPolicy: LevelPolicyAll,
		startedAt:   now,
		updatedAt:   now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.levelPolicy.IsValid() {
		return nil, fmt.Errorf("unknown level policy %q", c.levelPolicy)
	}

	c.steps = make([]Step, len(ordered))
	for i, a := range ordered {
		c.steps[i] = Step{
			ID:       GenerateStepID(),
			Level:    a.Level,
			Approver: a,
			Status:   StepPending,
		}
	}
	c.currentLevel = c.steps[0].Level

	c.addEvent(&ChainStartedEvent{
		ChainID:    c.id,
		RevisionID: revisionID,
		Levels:     c.Levels(),
		At:         now,
	})
	return c, nil
}

// ReconstructChain rebuilds a chain from persisted state. Used by
// repositories; emits no events and performs no validation.
func ReconstructChain(
	id string,
	revisionID string,
	steps []Step,
	currentLevel int,
	complete bool,
	outcome Outcome,
	levelPolicy LevelPolicy,
	startedAt time.Time,
	completedAt *time.Time,
	updatedAt time.Time,
) *Chain {
	copied := make([]Step, len(steps))
	copy(copied, steps)
	if levelPolicy == "" {
		levelPolicy = LevelPolicyAll
	}
	return &Chain{
		id:           id,
		revisionID:   revisionID,
		steps:        copied,
		currentLevel: currentLevel,
		complete:     complete,
		outcome:      outcome,
		levelPolicy:  levelPolicy,
		startedAt:    startedAt,
		completedAt:  completedAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the chain identifier.
func (c *Chain) ID() string { return c.id }

// RevisionID returns the revision this chain gates.
func (c *Chain) RevisionID() string { return c.revisionID }

// Steps returns a copy of the chain's steps in level order.
func (c *Chain) Steps() []Step {
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// CurrentLevel returns the lowest level with an unresolved step. Once the
// chain completes it remains at the last resolved level.
func (c *Chain) CurrentLevel() int { return c.currentLevel }

// IsComplete returns true once every step is resolved.
func (c *Chain) IsComplete() bool { return c.complete }

// Outcome returns the chain's verdict; pending until complete.
func (c *Chain) Outcome() Outcome { return c.outcome }

// LevelPolicy returns how same-level approvers resolve their level.
func (c *Chain) LevelPolicy() LevelPolicy { return c.levelPolicy }

// StartedAt returns when the chain was created.
func (c *Chain) StartedAt() time.Time { return c.startedAt }

// CompletedAt returns when the chain completed, if it has.
func (c *Chain) CompletedAt() *time.Time {
	if c.completedAt == nil {
		return nil
	}
	t := *c.completedAt
	return &t
}

// UpdatedAt returns the last mutation time, the optimistic concurrency token.
func (c *Chain) UpdatedAt() time.Time { return c.updatedAt }

// Levels returns the distinct step levels in ascending order.
func (c *Chain) Levels() []int {
	var levels []int
	for _, s := range c.steps {
		if len(levels) == 0 || levels[len(levels)-1] != s.Level {
			levels = append(levels, s.Level)
		}
	}
	return levels
}

// DomainEvents returns all uncommitted domain events.
func (c *Chain) DomainEvents() []DomainEvent {
	return c.domainEvents
}

// ClearDomainEvents clears the domain events after publication.
func (c *Chain) ClearDomainEvents() {
	c.domainEvents = nil
}

func (c *Chain) addEvent(event DomainEvent) {
	c.domainEvents = append(c.domainEvents, event)
}

// Approve records an approval by the given principal on their pending step
// at the current level.
func (c *Chain) Approve(principalID, notes string) error {
	return c.resolve(principalID, ActionApprove, notes)
}

// Reject records a rejection by the given principal. Rejection at any level
// halts the whole chain: every remaining pending step is skipped and the
// outcome becomes rejected.
func (c *Chain) Reject(principalID, notes string) error {
	return c.resolve(principalID, ActionReject, notes)
}

func (c *Chain) resolve(principalID string, action StepAction, notes string) error {
	if c.complete {
		return ErrChainComplete
	}

	idx, err := c.actableStep(principalID)
	if err != nil {
		return err
	}

	now := time.Now()
	step := &c.steps[idx]
	switch action {
	case ActionApprove:
		step.Status = StepApproved
	case ActionReject:
		step.Status = StepRejected
	default:
		return fmt.Errorf("unknown step action %q", action)
	}
	step.Action = action
	step.Notes = notes
	step.ActionBy = principalID
	step.ActionAt = &now

	c.addEvent(&StepResolvedEvent{
		ChainID:  c.id,
		StepID:   step.ID,
		Level:    step.Level,
		Approver: principalID,
		Action:   action,
		At:       now,
	})

	if action == ActionReject {
		c.skipPending()
		c.completeWith(OutcomeRejected, now)
		c.updatedAt = now
		return nil
	}

	if c.levelPolicy == LevelPolicyAny {
		c.skipPendingAt(step.Level)
	}
	if c.pendingCount() == 0 {
		c.completeWith(OutcomeApproved, now)
	} else {
		c.currentLevel = c.lowestPendingLevel()
	}
	c.updatedAt = now
	return nil
}

// actableStep locates the principal's pending step at the current level.
func (c *Chain) actableStep(principalID string) (int, error) {
	found := false
	resolved := false
	for i, s := range c.steps {
		if s.Approver.ID != principalID {
			continue
		}
		found = true
		if s.Status != StepPending {
			resolved = true
			continue
		}
		if s.Level != c.currentLevel {
			return 0, fmt.Errorf("%w: step level %d, current level %d", ErrNotCurrentLevel, s.Level, c.currentLevel)
		}
		return i, nil
	}
	if !found {
		return 0, ErrNotApprover
	}
	if resolved {
		return 0, ErrStepResolved
	}
	return 0, ErrNotApprover
}

func (c *Chain) skipPending() {
	for i := range c.steps {
		if c.steps[i].Status == StepPending {
			c.steps[i].Status = StepSkipped
		}
	}
}

func (c *Chain) skipPendingAt(level int) {
	for i := range c.steps {
		if c.steps[i].Level == level && c.steps[i].Status == StepPending {
			c.steps[i].Status = StepSkipped
		}
	}
}

func (c *Chain) completeWith(outcome Outcome, at time.Time) {
	c.complete = true
	c.outcome = outcome
	c.completedAt = &at

	c.addEvent(&ChainCompletedEvent{
		ChainID:    c.id,
		RevisionID: c.revisionID,
		Outcome:    outcome,
		At:         at,
	})
}

func (c *Chain) pendingCount() int {
	n := 0
	for _, s := range c.steps {
		if s.Status == StepPending {
			n++
		}
	}
	return n
}

func (c *Chain) lowestPendingLevel() int {
	lowest := 0
	for _, s := range c.steps {
		if s.Status != StepPending {
			continue
		}
		if lowest == 0 || s.Level < lowest {
			lowest = s.Level
		}
	}
	return lowest
}

// ActionStatus reports whether a principal can act on the chain right now,
// with the blocking reason when they cannot.
type ActionStatus struct {
	CanAct bool
	Reason string
}

// CanAct evaluates, without mutating, whether the principal could approve or
// reject right now.
func (c *Chain) CanAct(principalID string) ActionStatus {
	if c.complete {
		return ActionStatus{Reason: fmt.Sprintf("chain is complete with outcome %s", c.outcome)}
	}
	if _, err := c.actableStep(principalID); err != nil {
		return ActionStatus{Reason: err.Error()}
	}
	return ActionStatus{CanAct: true}
}

// PendingItem is one approval awaiting a principal's action, shaped for
// inbox and badge queries.
type PendingItem struct {
	ChainID    string    `json:"chain_id"`
	RevisionID string    `json:"revision_id"`
	StepID     string    `json:"step_id"`
	Level      int       `json:"level"`
	Approver   Approver  `json:"approver"`
	StartedAt  time.Time `json:"started_at"`
}

// PendingItemFor returns the principal's actionable step as a pending item,
// if the chain currently awaits them.
func (c *Chain) PendingItemFor(principalID string) (PendingItem, bool) {
	if c.complete {
		return PendingItem{}, false
	}
	idx, err := c.actableStep(principalID)
	if err != nil {
		return PendingItem{}, false
	}
	s := c.steps[idx]
	return PendingItem{
		ChainID:    c.id,
		RevisionID: c.revisionID,
		StepID:     s.ID,
		Level:      s.Level,
		Approver:   s.Approver,
		StartedAt:  c.startedAt,
	}, true
}

// Summary is a display-ready digest of chain progress.
type Summary struct {
	ID           string
	RevisionID   string
	CurrentLevel int
	Complete     bool
	Outcome      Outcome
	TotalSteps   int
	Resolved     int
}

// Summarize returns a digest of the chain for display.
func (c *Chain) Summarize() Summary {
	resolved := 0
	for _, s := range c.steps {
		if s.Resolved() {
			resolved++
		}
	}
	return Summary{
		ID:           c.id,
		RevisionID:   c.revisionID,
		CurrentLevel: c.currentLevel,
		Complete:     c.complete,
		Outcome:      c.outcome,
		TotalSteps:   len(c.steps),
		Resolved:     resolved,
	}
}
