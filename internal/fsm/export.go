package fsm

import (
	"encoding/json"
	"time"
)

// XStateJSON represents a definition in XState-compatible JSON for
// visualization tooling.
type XStateJSON struct {
	ID      string                     `json:"id"`
	Initial string                     `json:"initial"`
	States  map[string]XStateStateJSON `json:"states"`
}

// XStateStateJSON represents a state in XState JSON format.
type XStateStateJSON struct {
	Type string                      `json:"type,omitempty"` // "final" for terminal states
	On   map[string]XStateTransition `json:"on,omitempty"`
}

// XStateTransition represents a transition in XState JSON format.
type XStateTransition struct {
	Target string `json:"target"`
	Guard  string `json:"cond,omitempty"`
}

// ExportXState exports a definition as XState-compatible JSON. Multi-source
// transitions appear under each of their source states.
func ExportXState(def Definition) ([]byte, error) {
	states := make(map[string]XStateStateJSON, len(def.States))
	for _, s := range def.States {
		node := XStateStateJSON{}
		if s.Terminal {
			node.Type = "final"
		}
		states[string(s.ID)] = node
	}

	for i := range def.Transitions {
		t := &def.Transitions[i]
		for _, from := range t.From {
			node := states[string(from)]
			if node.On == nil {
				node.On = make(map[string]XStateTransition)
			}
			node.On[string(t.Action)] = XStateTransition{
				Target: string(t.To),
				Guard:  exportGuardLabel(t),
			}
			states[string(from)] = node
		}
	}

	return json.MarshalIndent(XStateJSON{
		ID:      def.ID,
		Initial: string(def.Initial),
		States:  states,
	}, "", "  ")
}

// ExportSnapshot exports an instance's current state and full history as JSON.
func ExportSnapshot(inst Instance) ([]byte, error) {
	snapshot := struct {
		InstanceID string         `json:"instance_id"`
		Definition string         `json:"definition"`
		State      string         `json:"state"`
		Meta       map[string]any `json:"meta,omitempty"`
		History    []HistoryEntry `json:"history"`
		CreatedAt  string         `json:"created_at"`
		UpdatedAt  string         `json:"updated_at"`
	}{
		InstanceID: inst.ID,
		Definition: inst.DefinitionID,
		State:      string(inst.State),
		Meta:       inst.Meta,
		History:    inst.History,
		CreatedAt:  inst.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  inst.UpdatedAt.Format(time.RFC3339),
	}

	return json.MarshalIndent(snapshot, "", "  ")
}

func exportGuardLabel(t *Transition) string {
	if t.Guard != nil {
		return guardLabel(t.Guard)
	}
	if len(t.RequiredPermissions) > 0 {
		return GuardKindPermission
	}
	return ""
}
