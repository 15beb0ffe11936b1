package integration

import (
	"context"
	"testing"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/pending"
)

func TestPurchaseOrderApprovedAcrossLevels(t *testing.T) {
	app := newFileStack(t)
	ctx := context.Background()

	// +10% lands in the executive band: a three-level chain.
	submitted := submitPurchaseOrder(t, app, "PO-100", 1000, 1100)
	if !submitted.RequiresApproval {
		t.Fatal("expected the submission to require approval")
	}
	if submitted.Status != "pending_approval" {
		t.Errorf("status = %s, want pending_approval", submitted.Status)
	}
	if submitted.Tier != threshold.TierExecutive {
		t.Errorf("tier = %s, want executive", submitted.Tier)
	}
	if submitted.Version != "1.0" {
		t.Errorf("version = %s, want 1.0", submitted.Version)
	}

	first := decideStep(t, app, submitted.ChainID, "manager-1", approval.ActionApprove)
	if first.ChainComplete || first.CurrentLevel != 2 {
		t.Errorf("after level 1: complete=%v level=%d, want open at level 2", first.ChainComplete, first.CurrentLevel)
	}

	second := decideStep(t, app, submitted.ChainID, "director-1", approval.ActionApprove)
	if second.ChainComplete || second.CurrentLevel != 3 {
		t.Errorf("after level 2: complete=%v level=%d, want open at level 3", second.ChainComplete, second.CurrentLevel)
	}

	last := decideStep(t, app, submitted.ChainID, "executive-1", approval.ActionApprove)
	if !last.ChainComplete || last.Outcome != approval.OutcomeApproved {
		t.Fatalf("after level 3: complete=%v outcome=%s, want a completed approval", last.ChainComplete, last.Outcome)
	}
	if last.Status != "approved" {
		t.Errorf("document status = %s, want approved", last.Status)
	}
	if last.CycleOutcome != approval.CycleApproved {
		t.Errorf("cycle outcome = %s, want approved", last.CycleOutcome)
	}

	status := documentStatus(t, app, "PO-100")
	if status.Capabilities.State != "approved" {
		t.Errorf("state = %s, want approved", status.Capabilities.State)
	}
	if status.Chain == nil || !status.Chain.Complete || status.Chain.Resolved != 3 {
		t.Errorf("chain summary = %+v, want 3 resolved steps on a complete chain", status.Chain)
	}
	if len(status.Cycles) != 1 || status.Cycles[0].Outcome != approval.CycleApproved {
		t.Errorf("cycles = %+v, want one approved cycle", status.Cycles)
	}

	// The audit trail tells the whole story in order.
	records, err := app.EventLog().Load(ctx, string(submitted.RevisionID))
	if err != nil {
		t.Fatalf("load audit trail: %v", err)
	}
	wantTrail := []string{
		"revision.created",
		"revision.submitted",
		"chain.started",
		"chain.step_resolved",
		"chain.step_resolved",
		"chain.step_resolved",
		"chain.completed",
		"revision.decided",
	}
	if len(records) != len(wantTrail) {
		t.Fatalf("trail length = %d, want %d", len(records), len(wantTrail))
	}
	for i, rec := range records {
		if rec.EventName != wantTrail[i] {
			t.Errorf("trail[%d] = %s, want %s", i, rec.EventName, wantTrail[i])
		}
	}
}

func TestRejectedRevisionResubmitted(t *testing.T) {
	app := newFileStack(t)
	ctx := context.Background()

	// +3% but an absolute jump of 600 trips the OR threshold; manager tier.
	submitted := submitPurchaseOrder(t, app, "PO-200", 20000, 20600)
	if !submitted.RequiresApproval || submitted.Tier != threshold.TierManager {
		t.Fatalf("expected a manager-tier chain, got approval=%v tier=%s", submitted.RequiresApproval, submitted.Tier)
	}

	rejected := decideStep(t, app, submitted.ChainID, "manager-1", approval.ActionReject)
	if !rejected.ChainComplete || rejected.Outcome != approval.OutcomeRejected {
		t.Fatalf("expected a completed rejection, got %+v", rejected)
	}
	if rejected.Status != "draft" {
		t.Errorf("document status = %s, want draft for rework", rejected.Status)
	}
	if rejected.CycleOutcome != approval.CycleChangesRequested {
		t.Errorf("cycle outcome = %s, want changes_requested", rejected.CycleOutcome)
	}

	// Rework the price. unitPrice is a critical field, so the version jumps
	// to 2.0, and 20000 -> 20500 still trips the absolute threshold.
	resubmitted, err := app.ResubmitRevision().Execute(ctx, lifecycle.ResubmitRevisionInput{
		RevisionID:    submitted.RevisionID,
		ChangedFields: []string{"unitPrice"},
		ProposedTotal: 20500,
		SubmittedBy:   "alice",
		Notes:         "trimmed the order",
	})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.Version != "2.0" {
		t.Errorf("version = %s, want 2.0", resubmitted.Version)
	}
	if !resubmitted.RequiresApproval {
		t.Fatal("expected the rework to require approval again")
	}
	if resubmitted.CycleNumber != 2 {
		t.Errorf("cycle = %d, want 2", resubmitted.CycleNumber)
	}
	if resubmitted.ChainID == submitted.ChainID {
		t.Error("expected a fresh chain for the new cycle")
	}

	approved := decideStep(t, app, resubmitted.ChainID, "manager-1", approval.ActionApprove)
	if !approved.ChainComplete || approved.Status != "approved" {
		t.Fatalf("expected the rework approved, got %+v", approved)
	}

	status := documentStatus(t, app, "PO-200")
	if status.Version != "2.0" {
		t.Errorf("version = %s, want 2.0", status.Version)
	}
	if len(status.Cycles) != 2 {
		t.Fatalf("cycles = %d, want 2", len(status.Cycles))
	}
	if status.Cycles[0].Outcome != approval.CycleChangesRequested || status.Cycles[1].Outcome != approval.CycleApproved {
		t.Errorf("cycle outcomes = %s, %s; want changes_requested then approved",
			status.Cycles[0].Outcome, status.Cycles[1].Outcome)
	}
}

func TestFastTrackLeavesAuditTrail(t *testing.T) {
	app := newFileStack(t)
	ctx := context.Background()

	// +0.5% and an absolute delta of 100: under both limits.
	submitted := submitPurchaseOrder(t, app, "PO-300", 20000, 20100)
	if submitted.RequiresApproval {
		t.Fatal("expected the change to be fast-tracked")
	}
	if submitted.Status != "approved" {
		t.Errorf("status = %s, want approved", submitted.Status)
	}
	if submitted.ChainID != "" {
		t.Errorf("chain id = %q, want none", submitted.ChainID)
	}
	if submitted.Tier != threshold.TierNone {
		t.Errorf("tier = %s, want none", submitted.Tier)
	}

	status := documentStatus(t, app, "PO-300")
	if status.Chain != nil {
		t.Errorf("expected no chain, got %+v", status.Chain)
	}
	if len(status.Cycles) != 1 || status.Cycles[0].ReviewedBy != "system" {
		t.Errorf("cycles = %+v, want one auto-closed cycle", status.Cycles)
	}

	records, err := app.EventLog().Load(ctx, string(submitted.RevisionID))
	if err != nil {
		t.Fatalf("load audit trail: %v", err)
	}
	wantTrail := []string{"revision.created", "revision.submitted", "revision.decided"}
	if len(records) != len(wantTrail) {
		t.Fatalf("trail length = %d, want %d", len(records), len(wantTrail))
	}
	for i, rec := range records {
		if rec.EventName != wantTrail[i] {
			t.Errorf("trail[%d] = %s, want %s", i, rec.EventName, wantTrail[i])
		}
	}
}

func TestPendingQueueFollowsChainProgress(t *testing.T) {
	app := newFileStack(t)
	ctx := context.Background()

	executive := submitPurchaseOrder(t, app, "PO-401", 1000, 1100)
	manager := submitPurchaseOrder(t, app, "PO-402", 20000, 20600)

	fetcher := app.PendingFetcher()

	// Both chains open at level 1, manager-1's turn on each.
	counts, err := pending.Counts(ctx, fetcher, []string{"manager-1", "director-1", "executive-1"}, 2)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["manager-1"] != 2 || counts["director-1"] != 0 || counts["executive-1"] != 0 {
		t.Fatalf("counts = %v, want manager-1 holding both queues", counts)
	}

	// Approving the manager-tier chain clears one; approving level 1 of the
	// executive chain hands it to the director.
	decideStep(t, app, manager.ChainID, "manager-1", approval.ActionApprove)
	decideStep(t, app, executive.ChainID, "manager-1", approval.ActionApprove)

	svc, err := pending.NewService(fetcher, "director-1")
	if err != nil {
		t.Fatalf("pending service: %v", err)
	}
	snap := svc.Refetch(ctx)
	if snap.Err != nil {
		t.Fatalf("refetch: %v", snap.Err)
	}
	if snap.Count() != 1 {
		t.Fatalf("director queue = %d, want 1", snap.Count())
	}
	if snap.Items[0].ChainID != executive.ChainID || snap.Items[0].Level != 2 {
		t.Errorf("director item = %+v, want level 2 of the executive chain", snap.Items[0])
	}

	counts, err = pending.Counts(ctx, fetcher, []string{"manager-1", "director-1"}, 2)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["manager-1"] != 0 || counts["director-1"] != 1 {
		t.Errorf("counts = %v, want the queue handed to director-1", counts)
	}
}
