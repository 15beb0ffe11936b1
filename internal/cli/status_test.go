package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/fsm"
)

func resetStatusFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		statusActor = ""
		statusPermissions = nil
	})
}

func TestFormatState(t *testing.T) {
	states := []string{
		"draft", "requested",
		"pending_approval", "under_review", "inspecting",
		"approved", "authorized", "confirmed", "completed", "fulfilled", "resolved",
		"rejected", "cancelled",
		"sent", "acknowledged", "in_progress", "in_fulfillment", "awaiting_receipt", "received",
		"something_else",
	}

	for _, state := range states {
		t.Run(state, func(t *testing.T) {
			if got := formatState(state); !strings.Contains(got, state) {
				t.Errorf("formatState(%q) = %q, state name lost", state, got)
			}
		})
	}
}

func TestBuildStatusOutput(t *testing.T) {
	result := &lifecycle.DocumentStatusOutput{
		DocumentID:    "PO-9001",
		DocumentType:  revision.DocumentPurchaseOrder,
		RevisionID:    "rev_1",
		Version:       "2.1",
		RevisionCount: 3,
		Capabilities: fsm.Capabilities{
			State:    "pending_approval",
			Label:    "Pending Approval",
			Terminal: false,
			Actions: []fsm.ActionAvailability{
				{Action: "approve", Target: "approved", Enabled: true},
				{Action: "cancel", Target: "cancelled", Enabled: false, Reason: "missing permission"},
			},
		},
		Delta: threshold.Delta{PercentChange: 0.25, ExceedsThreshold: true},
		Chain: &approval.Summary{
			ID:           "chain_1",
			RevisionID:   "rev_1",
			CurrentLevel: 2,
			Complete:     false,
			Outcome:      approval.OutcomePending,
			TotalSteps:   3,
			Resolved:     1,
		},
		Cycles: []approval.Cycle{
			{Number: 1, SubmittedBy: "alice", Outcome: approval.CycleChangesRequested, ReviewedBy: "manager-1", Feedback: "rework"},
			{Number: 2, SubmittedBy: "alice", Outcome: approval.CyclePending},
		},
	}

	output := buildStatusOutput(result)

	if output.State != "pending_approval" {
		t.Errorf("state = %q, want pending_approval", output.State)
	}
	if !output.ExceedsThreshold {
		t.Error("exceeds_threshold should carry through")
	}
	if len(output.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(output.Actions))
	}
	if output.Actions[1].Reason != "missing permission" {
		t.Errorf("disabled reason = %q, want missing permission", output.Actions[1].Reason)
	}
	if output.Chain == nil || output.Chain.Resolved != 1 || output.Chain.TotalSteps != 3 {
		t.Errorf("chain progress not mapped: %+v", output.Chain)
	}
	if len(output.Cycles) != 2 {
		t.Fatalf("cycles = %d, want 2", len(output.Cycles))
	}
	if output.Cycles[0].Outcome != "changes_requested" {
		t.Errorf("cycle outcome = %q, want changes_requested", output.Cycles[0].Outcome)
	}
}

func TestRunStatusShowsPendingChain(t *testing.T) {
	c := withTestConfig(t)
	app := newMemoryApp(t, c)
	withStubContainerApp(t, app)
	withJSONOutput(t, true)
	resetStatusFlags(t)

	submitRevision(t, app, "PO-9002", 1000, 1100)

	statusActor = "manager-1"
	statusPermissions = []string{"purchase_order:approve"}

	out := captureCLIStdout(func() {
		if err := runStatus(newTestCommand(t), []string{"PO-9002"}); err != nil {
			t.Fatalf("runStatus error: %v", err)
		}
	})

	var result StatusOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if result.State != "pending_approval" {
		t.Errorf("state = %q, want pending_approval", result.State)
	}
	if result.Chain == nil {
		t.Fatal("expected an active chain in the output")
	}
	if result.Chain.TotalSteps != 3 {
		t.Errorf("chain steps = %d, want 3 for an executive-tier change", result.Chain.TotalSteps)
	}
	if len(result.Cycles) != 1 {
		t.Errorf("cycles = %d, want 1", len(result.Cycles))
	}
	if !result.ExceedsThreshold {
		t.Error("a 10 percent change should report as exceeding the thresholds")
	}

	var approveAction *StatusActionOutput
	for i := range result.Actions {
		if result.Actions[i].Action == "approve" {
			approveAction = &result.Actions[i]
		}
	}
	if approveAction == nil {
		t.Fatal("approve action missing from availability listing")
	}
	if !approveAction.Enabled {
		t.Errorf("approve should be enabled with the approve permission, got reason %q", approveAction.Reason)
	}
}

func TestRunStatusUnknownDocument(t *testing.T) {
	c := withTestConfig(t)
	app := newMemoryApp(t, c)
	withStubContainerApp(t, app)
	resetStatusFlags(t)

	if err := runStatus(newTestCommand(t), []string{"PO-NONE"}); err == nil {
		t.Fatal("expected an unknown document to fail")
	}
}

func TestRunStatusTextOutput(t *testing.T) {
	c := withTestConfig(t)
	app := newMemoryApp(t, c)
	withStubContainerApp(t, app)
	withJSONOutput(t, false)
	resetStatusFlags(t)

	submitRevision(t, app, "PO-9003", 1000, 1100)

	out := captureCLIStdout(func() {
		if err := runStatus(newTestCommand(t), []string{"PO-9003"}); err != nil {
			t.Fatalf("runStatus error: %v", err)
		}
	})

	for _, want := range []string{"Document Status", "PO-9003", "Approval Chain", "Review Cycles"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
