package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
)

var (
	statusActor       string
	statusPermissions []string
)

var statusCmd = &cobra.Command{
	Use:   "status <document-id>",
	Short: "Show a document's workflow state and approval progress",
	Long: `Show where a document sits in its workflow: the current state of its
latest revision, the actions available from that state, approval chain
progress, and the full review cycle history.

Pass --as and --permission to see action availability for a specific
principal; without them, permission-gated actions report as disabled.

Examples:
  # Current state of a purchase order
  gateflow status PO-1001

  # Availability as seen by an approver
  gateflow status PO-1001 --as manager-1 --permission purchase_order:approve`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusActor, "as", "", "principal the action availability is evaluated for")
	statusCmd.Flags().StringArrayVar(&statusPermissions, "permission", nil, "permission granted to the principal (repeatable)")
}

// StatusActionOutput is one action's availability from the current state.
type StatusActionOutput struct {
	Action  string `json:"action"`
	Target  string `json:"target"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// StatusChainOutput is the active approval chain's progress.
type StatusChainOutput struct {
	ID           string `json:"id"`
	CurrentLevel int    `json:"current_level"`
	Complete     bool   `json:"complete"`
	Outcome      string `json:"outcome"`
	Resolved     int    `json:"resolved_steps"`
	TotalSteps   int    `json:"total_steps"`
}

// StatusCycleOutput is one review cycle in the revision's history.
type StatusCycleOutput struct {
	Number      int    `json:"number"`
	SubmittedBy string `json:"submitted_by"`
	Outcome     string `json:"outcome"`
	ReviewedBy  string `json:"reviewed_by,omitempty"`
	Feedback    string `json:"feedback,omitempty"`
}

// StatusOutput is the status command result.
type StatusOutput struct {
	DocumentID       string               `json:"document_id"`
	DocumentType     string               `json:"document_type"`
	RevisionID       string               `json:"revision_id"`
	Version          string               `json:"version"`
	RevisionCount    int                  `json:"revision_count"`
	State            string               `json:"state"`
	StateLabel       string               `json:"state_label"`
	Terminal         bool                 `json:"terminal"`
	PercentChange    float64              `json:"percent_change"`
	ExceedsThreshold bool                 `json:"exceeds_threshold"`
	Actions          []StatusActionOutput `json:"actions"`
	Chain            *StatusChainOutput   `json:"chain,omitempty"`
	Cycles           []StatusCycleOutput  `json:"cycles"`
}

// runStatus implements the status command.
func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newContainerApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer closeApp(app)

	result, err := app.DocumentStatus().Execute(ctx, lifecycle.DocumentStatusInput{
		DocumentID:  args[0],
		PrincipalID: statusActor,
		Permissions: statusPermissions,
	})
	if err != nil {
		return fmt.Errorf("failed to read document status: %w", err)
	}

	output := buildStatusOutput(result)

	if outputJSON {
		return outputStatusJSON(output)
	}
	return outputStatusText(output)
}

func buildStatusOutput(result *lifecycle.DocumentStatusOutput) *StatusOutput {
	output := &StatusOutput{
		DocumentID:       result.DocumentID,
		DocumentType:     string(result.DocumentType),
		RevisionID:       string(result.RevisionID),
		Version:          result.Version,
		RevisionCount:    result.RevisionCount,
		State:            string(result.Capabilities.State),
		StateLabel:       result.Capabilities.Label,
		Terminal:         result.Capabilities.Terminal,
		PercentChange:    result.Delta.PercentChange,
		ExceedsThreshold: result.Delta.ExceedsThreshold,
	}

	for _, a := range result.Capabilities.Actions {
		output.Actions = append(output.Actions, StatusActionOutput{
			Action:  string(a.Action),
			Target:  string(a.Target),
			Enabled: a.Enabled,
			Reason:  a.Reason,
		})
	}

	if result.Chain != nil {
		output.Chain = &StatusChainOutput{
			ID:           result.Chain.ID,
			CurrentLevel: result.Chain.CurrentLevel,
			Complete:     result.Chain.Complete,
			Outcome:      string(result.Chain.Outcome),
			Resolved:     result.Chain.Resolved,
			TotalSteps:   result.Chain.TotalSteps,
		}
	}

	for _, c := range result.Cycles {
		output.Cycles = append(output.Cycles, StatusCycleOutput{
			Number:      c.Number,
			SubmittedBy: c.SubmittedBy,
			Outcome:     string(c.Outcome),
			ReviewedBy:  c.ReviewedBy,
			Feedback:    c.Feedback,
		})
	}

	return output
}

func outputStatusJSON(output *StatusOutput) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputStatusText(output *StatusOutput) error {
	printTitle("Document Status")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Document:\t%s (%s)\n", output.DocumentID, output.DocumentType)
	fmt.Fprintf(w, "  Revision:\t%s\n", output.RevisionID)
	fmt.Fprintf(w, "  Version:\t%s\n", output.Version)
	fmt.Fprintf(w, "  Revisions:\t%d\n", output.RevisionCount)
	fmt.Fprintf(w, "  State:\t%s\n", formatState(output.State))
	fmt.Fprintf(w, "  Cost change:\t%+.1f%%\n", output.PercentChange*100)
	_ = w.Flush()

	if output.ExceedsThreshold {
		printWarning("Cost change exceeds the approval thresholds")
	}

	if len(output.Actions) > 0 {
		fmt.Println()
		printTitle("Available Actions")
		fmt.Println()
		for _, a := range output.Actions {
			if a.Enabled {
				fmt.Printf("  %s → %s\n", a.Action, a.Target)
			} else {
				printSubtle(fmt.Sprintf("  %s → %s (disabled: %s)", a.Action, a.Target, a.Reason))
			}
		}
	}

	if output.Chain != nil {
		fmt.Println()
		printTitle("Approval Chain")
		fmt.Println()
		fmt.Printf("  %s: %d/%d steps resolved", output.Chain.ID, output.Chain.Resolved, output.Chain.TotalSteps)
		if output.Chain.Complete {
			fmt.Printf(", outcome %s\n", output.Chain.Outcome)
		} else {
			fmt.Printf(", awaiting level %d\n", output.Chain.CurrentLevel)
		}
	}

	if len(output.Cycles) > 0 {
		fmt.Println()
		printTitle("Review Cycles")
		fmt.Println()
		for _, c := range output.Cycles {
			line := fmt.Sprintf("  #%d submitted by %s: %s", c.Number, c.SubmittedBy, c.Outcome)
			if c.ReviewedBy != "" {
				line += fmt.Sprintf(" (reviewed by %s)", c.ReviewedBy)
			}
			fmt.Println(line)
			if c.Feedback != "" {
				printSubtle(fmt.Sprintf("      %s", c.Feedback))
			}
		}
	}

	fmt.Println()
	return nil
}

// formatState renders a workflow state with its conventional color.
func formatState(state string) string {
	switch state {
	case "draft", "requested":
		return styles.Subtle.Render(state)
	case "pending_approval", "under_review", "inspecting":
		return styles.Warning.Render(state)
	case "approved", "authorized", "confirmed", "completed", "fulfilled", "resolved":
		return styles.Success.Render(state)
	case "rejected", "cancelled":
		return styles.Error.Render(state)
	case "sent", "acknowledged", "in_progress", "in_fulfillment", "awaiting_receipt", "received":
		return styles.Info.Render(state)
	default:
		return state
	}
}
