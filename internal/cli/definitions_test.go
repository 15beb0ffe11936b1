package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gateflow-tech/gateflow/internal/workflows"
)

func TestBuildDefinitionOutput(t *testing.T) {
	withTestConfig(t)

	def, ok := catalogFromConfig().ByID(workflows.PurchaseOrderID)
	if !ok {
		t.Fatalf("purchase order definition missing from catalog")
	}

	out := buildDefinitionOutput(def)

	if out.ID != workflows.PurchaseOrderID {
		t.Errorf("expected id %s, got %s", workflows.PurchaseOrderID, out.ID)
	}
	if out.Name != "Purchase Order Status" {
		t.Errorf("expected name Purchase Order Status, got %s", out.Name)
	}
	if out.Initial != "draft" {
		t.Errorf("expected initial draft, got %s", out.Initial)
	}
	if out.States != 8 {
		t.Errorf("expected 8 states, got %d", out.States)
	}
	if out.Actions != len(def.Actions()) {
		t.Errorf("expected %d actions, got %d", len(def.Actions()), out.Actions)
	}
	if len(out.Terminals) != 2 || out.Terminals[0] != "completed" || out.Terminals[1] != "cancelled" {
		t.Errorf("expected terminals [completed cancelled], got %v", out.Terminals)
	}
}

func TestRunDefinitionsJSON(t *testing.T) {
	withTestConfig(t)
	withJSONOutput(t, true)

	var err error
	output := captureCLIStdout(func() {
		err = runDefinitions(newTestCommand(t), nil)
	})
	if err != nil {
		t.Fatalf("runDefinitions: %v", err)
	}

	var outputs []DefinitionOutput
	if err := json.Unmarshal([]byte(output), &outputs); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, output)
	}
	if len(outputs) != 4 {
		t.Fatalf("expected 4 definitions, got %d", len(outputs))
	}

	ids := make(map[string]bool)
	for _, out := range outputs {
		ids[out.ID] = true
		if out.Initial == "" {
			t.Errorf("definition %s has no initial state", out.ID)
		}
		if out.States == 0 || out.Actions == 0 {
			t.Errorf("definition %s looks empty: %d states, %d actions", out.ID, out.States, out.Actions)
		}
	}
	for _, want := range []string{
		workflows.PurchaseOrderID,
		workflows.SalesOrderID,
		workflows.RMAID,
		workflows.RevisionStatusID,
	} {
		if !ids[want] {
			t.Errorf("expected definition %s in listing", want)
		}
	}
}

func TestRunDefinitionsText(t *testing.T) {
	withTestConfig(t)
	withJSONOutput(t, false)

	var err error
	output := captureCLIStdout(func() {
		err = runDefinitions(newTestCommand(t), nil)
	})
	if err != nil {
		t.Fatalf("runDefinitions: %v", err)
	}

	for _, want := range []string{"Workflow Definitions", "purchase-order-status", "rma-status", "gateflow export"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}
