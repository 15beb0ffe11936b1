package workflows

import "github.com/gateflow-tech/gateflow/internal/fsm"

// SalesOrder returns the sales-order status definition. It follows the
// purchase-order shape through approval, then tracks the customer side:
// confirmation, fulfillment, and a fulfilled terminal state.
func (c *Catalog) SalesOrder() fsm.Definition {
	return fsm.Definition{
		ID:      SalesOrderID,
		Name:    "Sales Order Status",
		Initial: "draft",
		States: []fsm.State{
			{ID: "draft"},
			{ID: "pending_approval", Variant: "warning"},
			{ID: "approved", Variant: "success"},
			{ID: "sent", Variant: "info"},
			{ID: "confirmed", Variant: "info"},
			{ID: "in_fulfillment", Variant: "info"},
			{ID: "fulfilled", Terminal: true, Variant: "success"},
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
				RequiredPermissions: []string{"sales_order:approve"},
			},
			{
				Action:              ActionRequestChanges,
				From:                []fsm.StateID{"pending_approval"},
				To:                  "draft",
				RequiredPermissions: []string{"sales_order:approve"},
			},
			{
				Action:              ActionSend,
				From:                []fsm.StateID{"approved"},
				To:                  "sent",
				RequiredPermissions: []string{"sales_order:send"},
			},
			{
				Action: ActionConfirm,
				From:   []fsm.StateID{"sent"},
				To:     "confirmed",
			},
			{
				Action: ActionBeginFulfillment,
				From:   []fsm.StateID{"confirmed"},
				To:     "in_fulfillment",
			},
			{
				Action: ActionFulfill,
				From:   []fsm.StateID{"in_fulfillment"},
				To:     "fulfilled",
			},
			{
				Action: ActionCancel,
				From: []fsm.StateID{
					"draft", "pending_approval", "approved",
					"sent", "confirmed",
				},
				To:                  "cancelled",
				RequiredPermissions: []string{"sales_order:cancel"},
			},
			{
				Action:              ActionReopen,
				From:                []fsm.StateID{"cancelled"},
				To:                  "draft",
				RequiredPermissions: []string{"sales_order:reopen"},
			},
		},
	}
}
