package fsm

import "time"

// HistoryEntry records one applied transition. History is append-only; each
// entry's To equals the instance state at the time it was recorded.
type HistoryEntry struct {
	ID       string         `json:"id"`
	At       time.Time      `json:"at"`
	From     StateID        `json:"from"`
	To       StateID        `json:"to"`
	Action   Action         `json:"action"`
	Actor    string         `json:"actor,omitempty"`
	Notes    string         `json:"notes,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Instance is one live walk through a definition. Instances are values:
// Transition never mutates its input, it returns a new Instance with the
// appended history. The old value remains valid and inspectable, which is
// what makes optimistic concurrency on UpdatedAt workable for callers.
type Instance struct {
	ID           string         `json:"id"`
	DefinitionID string         `json:"definition_id"`
	State        StateID        `json:"state"`
	Meta         map[string]any `json:"meta,omitempty"`
	History      []HistoryEntry `json:"history"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// LastEntry returns the most recent history entry, if any.
func (i Instance) LastEntry() (HistoryEntry, bool) {
	if len(i.History) == 0 {
		return HistoryEntry{}, false
	}
	return i.History[len(i.History)-1], true
}

// ActionSequence returns the actions applied to this instance, oldest first.
func (i Instance) ActionSequence() []Action {
	actions := make([]Action, len(i.History))
	for n, e := range i.History {
		actions[n] = e.Action
	}
	return actions
}

// ReconstructInstance rebuilds an instance from persisted fields. It performs
// no validation: pair it with Machine.ValidateInstance after loading.
func ReconstructInstance(
	id string,
	definitionID string,
	state StateID,
	meta map[string]any,
	history []HistoryEntry,
	createdAt time.Time,
	updatedAt time.Time,
) Instance {
	return Instance{
		ID:           id,
		DefinitionID: definitionID,
		State:        state,
		Meta:         copyMeta(meta),
		History:      copyHistory(history),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func copyHistory(history []HistoryEntry) []HistoryEntry {
	if history == nil {
		return nil
	}
	out := make([]HistoryEntry, len(history))
	copy(out, history)
	return out
}

func appendHistory(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, entry)
}
