package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/domain/revision"
)

var (
	resubmitFields      []string
	resubmitProposed    float64
	resubmitActor       string
	resubmitNotes       string
	resubmitPermissions []string
)

var resubmitCmd = &cobra.Command{
	Use:   "resubmit <revision-id>",
	Short: "Resubmit a reworked revision after changes were requested",
	Long: `Send a reworked revision back through the approval gate.

The edits made since the rejection fold into a version bump (major when
a cost field changed, minor otherwise), a fresh review cycle opens, and
the new proposed total is evaluated against the thresholds again. The
cycle number tells approvers how many rounds the revision has been
through.

Examples:
  gateflow resubmit rev_9f8e7d6c --field unit_price --proposed 11800 --as alice \
    --notes "renegotiated with supplier"`,
	Args: cobra.ExactArgs(1),
	RunE: runResubmit,
}

func init() {
	rootCmd.AddCommand(resubmitCmd)
	resubmitCmd.Flags().StringArrayVar(&resubmitFields, "field", nil, "changed document field (repeatable)")
	resubmitCmd.Flags().Float64Var(&resubmitProposed, "proposed", 0, "new proposed document total")
	resubmitCmd.Flags().StringVar(&resubmitActor, "as", "", "submitting principal (default: $USER)")
	resubmitCmd.Flags().StringVar(&resubmitNotes, "notes", "", "resubmission notes")
	resubmitCmd.Flags().StringArrayVar(&resubmitPermissions, "permission", nil, "permission granted to the principal (repeatable)")
	_ = resubmitCmd.MarkFlagRequired("field")
}

// ResubmitOutput is the resubmit command result.
type ResubmitOutput struct {
	RevisionID       string `json:"revision_id"`
	Version          string `json:"version"`
	Status           string `json:"status"`
	RequiresApproval bool   `json:"requires_approval"`
	ChainID          string `json:"chain_id,omitempty"`
	Cycle            int    `json:"cycle"`
	Tier             string `json:"tier"`
}

// runResubmit implements the resubmit command.
func runResubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newContainerApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer closeApp(app)

	result, err := app.ResubmitRevision().Execute(ctx, lifecycle.ResubmitRevisionInput{
		RevisionID:    revision.RevisionID(args[0]),
		ChangedFields: resubmitFields,
		ProposedTotal: resubmitProposed,
		SubmittedBy:   getPrincipal(resubmitActor),
		Notes:         resubmitNotes,
		Permissions:   resubmitPermissions,
	})
	if err != nil {
		return fmt.Errorf("failed to resubmit revision: %w", err)
	}

	output := &ResubmitOutput{
		RevisionID:       string(result.RevisionID),
		Version:          result.Version,
		Status:           string(result.Status),
		RequiresApproval: result.RequiresApproval,
		ChainID:          result.ChainID,
		Cycle:            result.CycleNumber,
		Tier:             string(result.Tier),
	}

	if outputJSON {
		return outputResubmitJSON(output)
	}
	return outputResubmitText(output)
}

func outputResubmitJSON(output *ResubmitOutput) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputResubmitText(output *ResubmitOutput) error {
	printSuccess(fmt.Sprintf("Revision resubmitted as version %s", output.Version))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Revision ID:\t%s\n", output.RevisionID)
	fmt.Fprintf(w, "  Version:\t%s\n", output.Version)
	fmt.Fprintf(w, "  Status:\t%s\n", formatState(output.Status))
	fmt.Fprintf(w, "  Review cycle:\t%d\n", output.Cycle)
	_ = w.Flush()
	fmt.Println()

	if output.RequiresApproval {
		fmt.Printf("Approval required at tier %q, chain %s\n", output.Tier, output.ChainID)
	} else {
		printInfo("Change is within the approval thresholds, fast-tracked")
	}

	return nil
}
