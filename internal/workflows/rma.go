package workflows

import "github.com/gateflow-tech/gateflow/internal/fsm"

// RMA returns the return-merchandise-authorization status definition.
// Returns are always reviewed, so there is no fast-track; a denied claim can
// be appealed back into review even though rejected is terminal.
func (c *Catalog) RMA() fsm.Definition {
	return fsm.Definition{
		ID:      RMAID,
		Name:    "RMA Status",
		Initial: "requested",
		States: []fsm.State{
			{ID: "requested"},
			{ID: "under_review", Variant: "warning"},
			{ID: "authorized", Variant: "success"},
			{ID: "awaiting_receipt", Variant: "info"},
			{ID: "received", Variant: "info"},
			{ID: "inspecting", Variant: "warning"},
			{ID: "resolved", Terminal: true, Variant: "success"},
			{ID: "rejected", Terminal: true, Variant: "danger"},
			{ID: "cancelled", Terminal: true, Variant: "danger"},
		},
		Transitions: []fsm.Transition{
			{
				Action: fsm.Action("begin_review"),
				From:   []fsm.StateID{"requested"},
				To:     "under_review",
			},
			{
				Action:              fsm.Action("authorize"),
				From:                []fsm.StateID{"under_review"},
				To:                  "authorized",
				RequiredPermissions: []string{"rma:authorize"},
			},
			{
				Action:              fsm.Action("deny"),
				From:                []fsm.StateID{"under_review"},
				To:                  "rejected",
				RequiredPermissions: []string{"rma:authorize"},
			},
			{
				Action: fsm.Action("issue_label"),
				From:   []fsm.StateID{"authorized"},
				To:     "awaiting_receipt",
			},
			{
				Action: fsm.Action("receive"),
				From:   []fsm.StateID{"awaiting_receipt"},
				To:     "received",
			},
			{
				Action: fsm.Action("inspect"),
				From:   []fsm.StateID{"received"},
				To:     "inspecting",
			},
			{
				Action:              fsm.Action("resolve"),
				From:                []fsm.StateID{"inspecting"},
				To:                  "resolved",
				RequiredPermissions: []string{"rma:resolve"},
			},
			{
				Action:              ActionReject,
				From:                []fsm.StateID{"inspecting"},
				To:                  "rejected",
				RequiredPermissions: []string{"rma:resolve"},
			},
			{
				Action: ActionCancel,
				From: []fsm.StateID{
					"requested", "under_review", "authorized", "awaiting_receipt",
				},
				To:                  "cancelled",
				RequiredPermissions: []string{"rma:cancel"},
			},
			{
				Action:              fsm.Action("appeal"),
				From:                []fsm.StateID{"rejected"},
				To:                  "under_review",
				RequiredPermissions: []string{"rma:appeal"},
			},
		},
	}
}
