package fsm

import (
	"encoding/json"
	"testing"
)

func TestExportXState(t *testing.T) {
	data, err := ExportXState(fixtureDefinition())
	if err != nil {
		t.Fatalf("ExportXState() error = %v", err)
	}

	var doc XStateJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("ExportXState() produced invalid JSON: %v", err)
	}

	if doc.ID != "doc-lifecycle" || doc.Initial != "draft" {
		t.Errorf("ExportXState() id/initial = %q/%q", doc.ID, doc.Initial)
	}
	if len(doc.States) != 5 {
		t.Fatalf("ExportXState() states = %d, want 5", len(doc.States))
	}

	if doc.States["completed"].Type != "final" || doc.States["cancelled"].Type != "final" {
		t.Error("ExportXState() terminal states not marked final")
	}
	if doc.States["draft"].Type != "" {
		t.Errorf("ExportXState() draft type = %q, want empty", doc.States["draft"].Type)
	}

	// Multi-source cancel appears under each source state.
	for _, from := range []string{"draft", "pending_approval", "approved"} {
		tr, ok := doc.States[from].On["cancel"]
		if !ok || tr.Target != "cancelled" {
			t.Errorf("ExportXState() %s.on.cancel = %+v, want target cancelled", from, tr)
		}
	}

	// Reopening out of a final state is preserved.
	if tr := doc.States["cancelled"].On["reopen"]; tr.Target != "draft" {
		t.Errorf("ExportXState() cancelled.on.reopen = %+v, want target draft", tr)
	}

	// Permission-gated transitions surface a cond label.
	if tr := doc.States["pending_approval"].On["approve"]; tr.Guard != GuardKindPermission {
		t.Errorf("ExportXState() approve cond = %q, want %q", tr.Guard, GuardKindPermission)
	}
}

func TestExportSnapshot(t *testing.T) {
	m := fixtureMachine(t)
	inst := m.NewInstance(map[string]any{"document": "PO-1001"})
	inst, result := m.Transition(inst, "submit", Payload{Actor: "ana"})
	if !result.Success {
		t.Fatalf("Transition() failed: %s", result.Reason)
	}

	data, err := ExportSnapshot(inst)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}

	var snapshot struct {
		InstanceID string           `json:"instance_id"`
		Definition string           `json:"definition"`
		State      string           `json:"state"`
		History    []map[string]any `json:"history"`
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("ExportSnapshot() produced invalid JSON: %v", err)
	}

	if snapshot.Definition != "doc-lifecycle" || snapshot.State != "pending_approval" {
		t.Errorf("ExportSnapshot() = %q in %q, want doc-lifecycle in pending_approval",
			snapshot.Definition, snapshot.State)
	}
	if len(snapshot.History) != 1 {
		t.Fatalf("ExportSnapshot() history length = %d, want 1", len(snapshot.History))
	}
	if snapshot.History[0]["actor"] != "ana" {
		t.Errorf("ExportSnapshot() history actor = %v, want ana", snapshot.History[0]["actor"])
	}
}
