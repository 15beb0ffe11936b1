// Package integration exercises the assembled GateFlow stack end to end:
// container wiring, workflow routing, approval chains, persistence, and the
// audit trail, all against the file backend.
package integration

import (
	"context"
	"testing"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/config"
	"github.com/gateflow-tech/gateflow/internal/container"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
)

// approvePermissions carries the permission every decide call in these tests
// needs; the purchase order workflow gates approve and request_changes on it.
var approvePermissions = []string{"purchase_order:approve"}

// newFileStack boots a fully wired container on the file backend in a fresh
// temp directory.
func newFileStack(t testing.TB) *container.App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "file"
	cfg.Storage.Dir = t.TempDir()

	app, err := container.NewInitialized(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to initialize container: %v", err)
	}
	t.Cleanup(func() {
		if err := app.Close(); err != nil {
			t.Errorf("failed to close container: %v", err)
		}
	})
	return app
}

// submitPurchaseOrder pushes one purchase order revision through the
// threshold gate.
func submitPurchaseOrder(t testing.TB, app *container.App, docID string, original, proposed float64) *lifecycle.SubmitRevisionOutput {
	t.Helper()

	out, err := app.SubmitRevision().Execute(context.Background(), lifecycle.SubmitRevisionInput{
		DocumentID:    docID,
		DocumentType:  revision.DocumentPurchaseOrder,
		OriginalTotal: original,
		ProposedTotal: proposed,
		ChangedFields: []string{"quantity"},
		SubmittedBy:   "alice",
	})
	if err != nil {
		t.Fatalf("submit %s: %v", docID, err)
	}
	return out
}

// decideStep records one approver's decision on a chain.
func decideStep(t testing.TB, app *container.App, chainID, principal string, action approval.StepAction) *lifecycle.DecideStepOutput {
	t.Helper()

	out, err := app.DecideStep().Execute(context.Background(), lifecycle.DecideStepInput{
		ChainID:     chainID,
		PrincipalID: principal,
		Action:      action,
		Permissions: approvePermissions,
	})
	if err != nil {
		t.Fatalf("decide %s on %s: %v", action, chainID, err)
	}
	return out
}

// documentStatus reads a document's current standing.
func documentStatus(t testing.TB, app *container.App, docID string) *lifecycle.DocumentStatusOutput {
	t.Helper()

	out, err := app.DocumentStatus().Execute(context.Background(), lifecycle.DocumentStatusInput{
		DocumentID: docID,
	})
	if err != nil {
		t.Fatalf("status %s: %v", docID, err)
	}
	return out
}
