package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gateflow-tech/gateflow/internal/workflows"
)

func resetSimulateFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		simulateOriginal = 0
		simulateProposed = 0
		simulateActor = "simulator"
		simulatePermissions = nil
	})
}

func TestRunSimulateApprovalPath(t *testing.T) {
	withTestConfig(t)
	resetSimulateFlags(t)
	withJSONOutput(t, true)

	simulateOriginal = 10000
	simulateProposed = 12500
	simulatePermissions = []string{"purchase_order:approve"}

	var err error
	output := captureCLIStdout(func() {
		err = runSimulate(newTestCommand(t), []string{workflows.PurchaseOrderID, "submit", "approve"})
	})
	if err != nil {
		t.Fatalf("runSimulate: %v", err)
	}

	var result SimulateOutput
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, output)
	}
	if result.Definition != workflows.PurchaseOrderID {
		t.Errorf("expected definition %s, got %s", workflows.PurchaseOrderID, result.Definition)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(result.Steps))
	}
	if !result.Steps[0].Success || result.Steps[0].From != "draft" || result.Steps[0].To != "pending_approval" {
		t.Errorf("unexpected submit step: %+v", result.Steps[0])
	}
	if !result.Steps[1].Success || result.Steps[1].To != "approved" {
		t.Errorf("unexpected approve step: %+v", result.Steps[1])
	}
	if result.Final != "approved" || result.Terminal {
		t.Errorf("expected non-terminal final state approved, got %s terminal=%v", result.Final, result.Terminal)
	}
}

func TestRunSimulateFastTrack(t *testing.T) {
	withTestConfig(t)
	resetSimulateFlags(t)
	withJSONOutput(t, true)

	simulateOriginal = 10000
	simulateProposed = 10100

	var err error
	output := captureCLIStdout(func() {
		err = runSimulate(newTestCommand(t), []string{workflows.PurchaseOrderID, "fast_track"})
	})
	if err != nil {
		t.Fatalf("runSimulate: %v", err)
	}

	var result SimulateOutput
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, output)
	}
	if result.Final != "approved" {
		t.Errorf("expected fast_track to land in approved, got %s", result.Final)
	}
}

func TestRunSimulateDeniedAction(t *testing.T) {
	withTestConfig(t)
	resetSimulateFlags(t)
	withJSONOutput(t, true)

	// Within threshold, so the guarded submit route is closed.
	simulateOriginal = 10000
	simulateProposed = 10100

	var err error
	output := captureCLIStdout(func() {
		err = runSimulate(newTestCommand(t), []string{workflows.PurchaseOrderID, "submit"})
	})
	if err == nil || !strings.Contains(err.Error(), "denied") {
		t.Fatalf("expected a denied action error, got %v", err)
	}

	var result SimulateOutput
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, output)
	}
	if len(result.Steps) != 1 || result.Steps[0].Success {
		t.Fatalf("expected one failed step, got %+v", result.Steps)
	}
	if result.Steps[0].Reason == "" {
		t.Errorf("expected a denial reason")
	}
	if result.Final != "draft" {
		t.Errorf("expected the instance to stay in draft, got %s", result.Final)
	}
}

func TestRunSimulateUnknownDefinition(t *testing.T) {
	withTestConfig(t)
	resetSimulateFlags(t)

	var err error
	captureCLIStdout(func() {
		err = runSimulate(newTestCommand(t), []string{"invoice-status", "submit"})
	})
	if err == nil || !strings.Contains(err.Error(), "unknown workflow definition") {
		t.Fatalf("expected unknown definition error, got %v", err)
	}
}

func TestRunSimulateTextOutput(t *testing.T) {
	withTestConfig(t)
	resetSimulateFlags(t)
	withJSONOutput(t, false)

	simulateOriginal = 10000
	simulateProposed = 12500
	simulatePermissions = []string{"purchase_order:approve"}

	var err error
	output := captureCLIStdout(func() {
		err = runSimulate(newTestCommand(t), []string{workflows.PurchaseOrderID, "submit", "approve"})
	})
	if err != nil {
		t.Fatalf("runSimulate: %v", err)
	}

	for _, want := range []string{"Simulation: purchase-order-status", "Final state", "Available actions"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}
