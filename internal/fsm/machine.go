package fsm

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gateflow-tech/gateflow/internal/errors"
)

// Result is the outcome of a Transition call. Disallowed actions are
// reported here, never raised: Success is the discriminant and Reason
// carries the caller-facing explanation on failure.
type Result struct {
	Success       bool
	PreviousState StateID
	CurrentState  StateID
	Action        Action
	Reason        string
	Timestamp     time.Time
}

// ActionAvailability reports whether one action leaving the current state is
// currently enabled, with the disabling reason when it is not.
type ActionAvailability struct {
	Action  Action
	Target  StateID
	Enabled bool
	Reason  string
}

// Capabilities bundles everything a renderer needs for one instance read:
// the current state, its display label, the terminal flag, and the
// availability of every action leaving the state.
type Capabilities struct {
	State    StateID
	Label    string
	Variant  string
	Terminal bool
	Actions  []ActionAvailability
}

// Machine binds to one Definition and applies its transition semantics.
// A Machine is stateless apart from the compiled definition and is safe for
// concurrent use against distinct instance values.
type Machine struct {
	def      Definition
	states   map[StateID]State
	index    map[StateID]map[Action]*Transition
	terminal []StateID
	now      func() time.Time
	newID    func() string
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the timestamp source used for history entries.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithIDGenerator overrides the ID source for instances and history entries.
func WithIDGenerator(gen func() string) Option {
	return func(m *Machine) {
		m.newID = gen
	}
}

// New validates the definition and compiles it into a Machine. A malformed
// definition (no initial state, dangling state reference, duplicate
// transition per state/action) is a programming mistake and fails here, at
// construction time, never at transition time.
func New(def Definition, opts ...Option) (*Machine, error) {
	const op = "fsm.New"

	if def.ID == "" {
		return nil, errors.Definition(op, "definition has no id")
	}
	if len(def.States) == 0 {
		return nil, errors.Definition(op, "definition declares no states").WithDetail("definition", def.ID)
	}

	// Compile against private copies so ID synthesis below never writes
	// through to the caller's slices.
	def.States = append([]State(nil), def.States...)
	def.Transitions = append([]Transition(nil), def.Transitions...)
	def.GlobalGuards = append([]Guard(nil), def.GlobalGuards...)

	states := make(map[StateID]State, len(def.States))
	for _, s := range def.States {
		if s.ID == "" {
			return nil, errors.Definition(op, "definition declares a state with an empty id").WithDetail("definition", def.ID)
		}
		if _, dup := states[s.ID]; dup {
			return nil, errors.Newf(errors.KindDefinition, "duplicate state %q in definition %q", s.ID, def.ID)
		}
		states[s.ID] = s
	}

	if def.Initial == "" {
		return nil, errors.Definition(op, "definition has no initial state").WithDetail("definition", def.ID)
	}
	if _, ok := states[def.Initial]; !ok {
		return nil, errors.Newf(errors.KindDefinition, "initial state %q is not declared in definition %q", def.Initial, def.ID)
	}

	index := make(map[StateID]map[Action]*Transition, len(def.States))
	for i := range def.Transitions {
		t := &def.Transitions[i]
		if t.Action == "" {
			return nil, errors.Newf(errors.KindDefinition, "transition %d in definition %q has no action", i, def.ID)
		}
		if len(t.From) == 0 {
			return nil, errors.Newf(errors.KindDefinition, "transition %q in definition %q has no source states", t.Action, def.ID)
		}
		if _, ok := states[t.To]; !ok {
			return nil, errors.Newf(errors.KindDefinition, "transition %q targets undeclared state %q", t.Action, t.To)
		}
		if t.ID == "" {
			t.ID = fmt.Sprintf("%s_to_%s", t.Action, t.To)
		}
		for _, from := range t.From {
			if _, ok := states[from]; !ok {
				return nil, errors.Newf(errors.KindDefinition, "transition %q fires from undeclared state %q", t.Action, from)
			}
			byAction := index[from]
			if byAction == nil {
				byAction = make(map[Action]*Transition)
				index[from] = byAction
			}
			if _, dup := byAction[t.Action]; dup {
				return nil, errors.Newf(errors.KindDefinition, "duplicate transition for action %q from state %q", t.Action, from)
			}
			byAction[t.Action] = t
		}
	}

	var terminal []StateID
	for _, s := range def.States {
		if s.Terminal {
			terminal = append(terminal, s.ID)
		}
	}

	m := &Machine{
		def:      def,
		states:   states,
		index:    index,
		terminal: terminal,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// MustNew is New that panics on a malformed definition. Reserved for
// definitions assembled in code, where construction failure is a bug.
func MustNew(def Definition, opts ...Option) *Machine {
	m, err := New(def, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Definition returns the compiled definition. Treat it as read-only.
func (m *Machine) Definition() Definition {
	return m.def
}

// NewInstance creates an instance at the definition's initial state with
// empty history.
func (m *Machine) NewInstance(meta map[string]any) Instance {
	now := m.now()
	return Instance{
		ID:           m.newID(),
		DefinitionID: m.def.ID,
		State:        m.def.Initial,
		Meta:         copyMeta(meta),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanTransition evaluates, without mutating anything, whether action is
// legal from the instance's current state. Resolution order: the transition
// must exist, then every global guard must pass in declared order, then the
// transition's required permissions, then its own guard. The first failing
// check's reason is surfaced.
func (m *Machine) CanTransition(inst Instance, action Action, p Payload) Verdict {
	if _, ok := m.states[inst.State]; !ok {
		return Deny(fmt.Sprintf("state %q is not part of definition %q", inst.State, m.def.ID))
	}

	t, ok := m.index[inst.State][action]
	if !ok {
		return Deny(fmt.Sprintf("no transition for action %q from state %q", action, inst.State))
	}

	for _, g := range m.def.GlobalGuards {
		if v := g.Evaluate(inst, p); !v.Allowed {
			return denyBy(g, v)
		}
	}
	if len(t.RequiredPermissions) > 0 {
		pg := PermissionGuard{Required: t.RequiredPermissions}
		if v := pg.Evaluate(inst, p); !v.Allowed {
			return v
		}
	}
	if t.Guard != nil {
		if v := t.Guard.Evaluate(inst, p); !v.Allowed {
			return denyBy(t.Guard, v)
		}
	}
	return Allow()
}

func denyBy(g Guard, v Verdict) Verdict {
	if v.Reason == "" {
		v.Reason = fmt.Sprintf("rejected by %s guard", guardLabel(g))
	}
	return v
}

// Transition applies action to the instance. A disallowed action is a pure
// no-op: the original instance is returned unchanged together with a failure
// result carrying the reason. On success the returned instance is a new
// value with the target state and an appended history entry; the input
// instance is never modified.
func (m *Machine) Transition(inst Instance, action Action, p Payload) (Instance, Result) {
	now := m.now()

	if v := m.CanTransition(inst, action, p); !v.Allowed {
		return inst, Result{
			Success:       false,
			PreviousState: inst.State,
			CurrentState:  inst.State,
			Action:        action,
			Reason:        v.Reason,
			Timestamp:     now,
		}
	}

	t := m.index[inst.State][action]
	if t.Before != nil {
		if err := t.Before(inst, p); err != nil {
			return inst, Result{
				Success:       false,
				PreviousState: inst.State,
				CurrentState:  inst.State,
				Action:        action,
				Reason:        err.Error(),
				Timestamp:     now,
			}
		}
	}

	entry := HistoryEntry{
		ID:       m.newID(),
		At:       now,
		From:     inst.State,
		To:       t.To,
		Action:   action,
		Actor:    p.Actor,
		Notes:    p.Notes,
		Metadata: copyMeta(p.Data),
	}

	next := Instance{
		ID:           inst.ID,
		DefinitionID: inst.DefinitionID,
		State:        t.To,
		Meta:         copyMeta(inst.Meta),
		History:      appendHistory(inst.History, entry),
		CreatedAt:    inst.CreatedAt,
		UpdatedAt:    now,
	}

	if t.After != nil {
		fireAfter(t.After, next, p)
	}

	return next, Result{
		Success:       true,
		PreviousState: inst.State,
		CurrentState:  t.To,
		Action:        action,
		Timestamp:     now,
	}
}

// fireAfter runs the after hook as a notification. A panicking hook must not
// undo a committed transition.
func fireAfter(h AfterHook, inst Instance, p Payload) {
	defer func() {
		_ = recover()
	}()
	h(inst, p)
}

// AvailableActions enumerates, for every transition leaving the current
// state, whether it is currently enabled, with the disabling reason when it
// is not. Order follows the definition's declared transition order.
func (m *Machine) AvailableActions(inst Instance, p Payload) []ActionAvailability {
	var out []ActionAvailability
	for i := range m.def.Transitions {
		t := &m.def.Transitions[i]
		if !transitionLeaves(t, inst.State) {
			continue
		}
		v := m.CanTransition(inst, t.Action, p)
		out = append(out, ActionAvailability{
			Action:  t.Action,
			Target:  t.To,
			Enabled: v.Allowed,
			Reason:  v.Reason,
		})
	}
	return out
}

func transitionLeaves(t *Transition, state StateID) bool {
	for _, from := range t.From {
		if from == state {
			return true
		}
	}
	return false
}

// Capabilities bundles the current state's label, terminal flag, and
// available actions into one read.
func (m *Machine) Capabilities(inst Instance, p Payload) Capabilities {
	caps := Capabilities{
		State:   inst.State,
		Actions: m.AvailableActions(inst, p),
	}
	if s, ok := m.states[inst.State]; ok {
		caps.Label = s.DisplayLabel()
		caps.Variant = s.Variant
		caps.Terminal = s.Terminal
	}
	return caps
}

// IsTerminal reports whether the instance sits in a terminal state.
func (m *Machine) IsTerminal(inst Instance) bool {
	s, ok := m.states[inst.State]
	return ok && s.Terminal
}

// TerminalStates returns the definition's terminal states in declared order.
func (m *Machine) TerminalStates() []StateID {
	out := make([]StateID, len(m.terminal))
	copy(out, m.terminal)
	return out
}

// ValidateInstance checks a loaded instance against this machine: the
// definition must match, the state must be declared, and the current state
// must equal the last history entry's target (or the initial state when the
// history is empty).
func (m *Machine) ValidateInstance(inst Instance) error {
	const op = "fsm.ValidateInstance"

	if inst.DefinitionID != m.def.ID {
		return errors.Newf(errors.KindState, "instance %s belongs to definition %q, machine is bound to %q",
			inst.ID, inst.DefinitionID, m.def.ID)
	}
	if _, ok := m.states[inst.State]; !ok {
		return errors.State(op, fmt.Sprintf("instance state %q is not declared", inst.State)).
			WithDetail("instance", inst.ID)
	}
	if last, ok := inst.LastEntry(); ok {
		if inst.State != last.To {
			return errors.State(op, fmt.Sprintf("instance state %q does not match last history entry target %q",
				inst.State, last.To)).WithDetail("instance", inst.ID)
		}
	} else if inst.State != m.def.Initial {
		return errors.State(op, fmt.Sprintf("instance with empty history is in %q, expected initial state %q",
			inst.State, m.def.Initial)).WithDetail("instance", inst.ID)
	}
	return nil
}
