// Package fsm provides a generic, declarative finite-state workflow engine.
// A Definition describes the legal states and transitions for one document
// type; a Machine binds to a Definition and applies transitions to immutable
// Instance values. The engine is domain-agnostic: it knows nothing about the
// documents it drives, only about states, transitions, guards, and payloads.
package fsm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StateID identifies a state within a definition.
type StateID string

// Action names the event that fires a transition.
type Action string

// State is one node in a workflow definition.
type State struct {
	// ID is the stable identifier recorded in instances and history.
	ID StateID
	// Label is the human-readable name. Empty labels are derived from the ID.
	Label string
	// Terminal marks a lifecycle-complete state. A terminal state may still
	// declare outgoing transitions (e.g. reopening a cancelled document).
	Terminal bool
	// Variant is a display hint for renderers (e.g. "success", "danger").
	Variant string
}

// DisplayLabel returns the state's label, deriving one from the ID when the
// definition does not set it ("pending_approval" becomes "Pending Approval").
func (s State) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(string(s.ID), "_", " "))
}

// BeforeHook runs after all guards pass and may abort the transition by
// returning a non-nil error. The instance is left unchanged on abort.
type BeforeHook func(inst Instance, p Payload) error

// AfterHook runs after a transition has been applied. It is notification
// only: panics are swallowed and it cannot affect the transition result.
type AfterHook func(inst Instance, p Payload)

// Transition is one edge in a workflow definition. A single transition may
// fire from several source states (From is one-or-many) but always targets
// exactly one state.
type Transition struct {
	// ID identifies the transition. Synthesized from action and target when empty.
	ID string
	// From lists the source states this transition can fire from.
	From []StateID
	// To is the target state.
	To StateID
	// Action is the event name that fires this transition.
	Action Action
	// Guard optionally gates the transition after the global guards pass.
	Guard Guard
	// Before optionally vetoes the transition after guards pass.
	Before BeforeHook
	// After optionally observes the committed transition.
	After AfterHook
	// RequiredPermissions must all be present in the payload for the
	// transition to fire. Evaluated before Guard.
	RequiredPermissions []string
}

// Definition is the immutable description of one workflow. Build it once,
// hand it to New, and treat it as read-only afterwards.
type Definition struct {
	// ID identifies the definition; instances reference it.
	ID string
	// Name is the human-readable workflow name.
	Name string
	// States is the ordered set of states. Exactly one must match Initial.
	States []State
	// Transitions is the ordered set of edges. At most one transition may
	// exist per (source state, action) pair.
	Transitions []Transition
	// GlobalGuards apply to every transition, in declared order, before the
	// transition's own guard.
	GlobalGuards []Guard
	// Initial is the state new instances start in.
	Initial StateID
}

// StateByID returns the declared state with the given ID.
func (d Definition) StateByID(id StateID) (State, bool) {
	for _, s := range d.States {
		if s.ID == id {
			return s, true
		}
	}
	return State{}, false
}

// Actions returns the distinct action names in declared transition order.
func (d Definition) Actions() []Action {
	seen := make(map[Action]bool, len(d.Transitions))
	actions := make([]Action, 0, len(d.Transitions))
	for _, t := range d.Transitions {
		if !seen[t.Action] {
			seen[t.Action] = true
			actions = append(actions, t.Action)
		}
	}
	return actions
}
