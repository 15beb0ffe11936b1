package workflows

import "github.com/gateflow-tech/gateflow/internal/fsm"

// RevisionStatus returns the definition document revisions follow: draft →
// pending_approval → approved → sent → confirmed/rejected, with a
// changes-requested loop back to draft. Rejection is multi-source: the
// approval chain rejects from pending_approval, the counterparty from sent.
func (c *Catalog) RevisionStatus() fsm.Definition {
	return fsm.Definition{
		ID:      RevisionStatusID,
		Name:    "Revision Status",
		Initial: "draft",
		States: []fsm.State{
			{ID: "draft"},
			{ID: "pending_approval", Variant: "warning"},
			{ID: "approved", Variant: "success"},
			{ID: "sent", Variant: "info"},
			{ID: "confirmed", Terminal: true, Variant: "success"},
			{ID: "rejected", Terminal: true, Variant: "danger"},
		},
		Transitions: []fsm.Transition{
			{
				Action: ActionSubmit,
				From:   []fsm.StateID{"draft"},
				To:     "pending_approval",
				Guard:  ThresholdGuard{Config: c.thresholds, When: WhenExceeds},
			},
			{
				Action: ActionFastTrack,
				From:   []fsm.StateID{"draft"},
				To:     "approved",
				Guard:  ThresholdGuard{Config: c.thresholds, When: WhenWithin},
			},
			{
				Action:              ActionApprove,
				From:                []fsm.StateID{"pending_approval"},
				To:                  "approved",
				RequiredPermissions: []string{"revision:approve"},
			},
			{
				Action:              ActionRequestChanges,
				From:                []fsm.StateID{"pending_approval"},
				To:                  "draft",
				RequiredPermissions: []string{"revision:approve"},
			},
			{
				Action: ActionReject,
				From:   []fsm.StateID{"pending_approval", "sent"},
				To:     "rejected",
			},
			{
				Action:              ActionSend,
				From:                []fsm.StateID{"approved"},
				To:                  "sent",
				RequiredPermissions: []string{"revision:send"},
			},
			{
				Action: ActionConfirm,
				From:   []fsm.StateID{"sent"},
				To:     "confirmed",
			},
		},
	}
}
