package workflows

import "github.com/gateflow-tech/gateflow/internal/fsm"

// PurchaseOrder returns the purchase-order status definition. A draft whose
// cost delta stays within the threshold fast-tracks straight to approved;
// otherwise it must pass through the approval chain. Cancel is reachable
// from every non-terminal state, and a cancelled order can be reopened even
// though cancelled is terminal.
func (c *Catalog) PurchaseOrder() fsm.Definition {
	return fsm.Definition{
		ID:      PurchaseOrderID,
		Name:    "Purchase Order Status",
		Initial: "draft",
		States: []fsm.State{
			{ID: "draft"},
			{ID: "pending_approval", Variant: "warning"},
			{ID: "approved", Variant: "success"},
			{ID: "sent", Variant: "info"},
			{ID: "acknowledged", Variant: "info"},
			{ID: "in_progress", Variant: "info"},
			{ID: "completed", Terminal: true, Variant: "success"},
			{ID: "cancelled", Terminal: true, Variant: "danger"},
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
				RequiredPermissions: []string{"purchase_order:approve"},
			},
			{
				Action:              ActionRequestChanges,
				From:                []fsm.StateID{"pending_approval"},
				To:                  "draft",
				RequiredPermissions: []string{"purchase_order:approve"},
			},
			{
				Action:              ActionSend,
				From:                []fsm.StateID{"approved"},
				To:                  "sent",
				RequiredPermissions: []string{"purchase_order:send"},
			},
			{
				Action: ActionAcknowledge,
				From:   []fsm.StateID{"sent"},
				To:     "acknowledged",
			},
			{
				Action: ActionBeginFulfillment,
				From:   []fsm.StateID{"acknowledged"},
				To:     "in_progress",
			},
			{
				Action: ActionComplete,
				From:   []fsm.StateID{"in_progress"},
				To:     "completed",
			},
			{
				Action: ActionCancel,
				From: []fsm.StateID{
					"draft", "pending_approval", "approved",
					"sent", "acknowledged", "in_progress",
				},
				To:                  "cancelled",
				RequiredPermissions: []string{"purchase_order:cancel"},
			},
			{
				Action:              ActionReopen,
				From:                []fsm.StateID{"cancelled"},
				To:                  "draft",
				RequiredPermissions: []string{"purchase_order:reopen"},
			},
		},
	}
}
