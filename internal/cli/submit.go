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
	submitDocType     string
	submitOriginal    float64
	submitProposed    float64
	submitFields      []string
	submitActor       string
	submitNotes       string
	submitPermissions []string
)

var submitCmd = &cobra.Command{
	Use:   "submit <document-id>",
	Short: "Submit a document revision for approval",
	Long: `Submit a cost revision of a document into its approval workflow.

The proposed total is evaluated against the configured thresholds.
Changes inside the limits are fast-tracked straight to approved;
changes beyond them open an approval chain with the approvers the
change's tier requires.

Examples:
  # A 25% increase on a purchase order
  gateflow submit PO-1001 --type purchase_order --original 10000 --proposed 12500 --as alice

  # Record which fields changed
  gateflow submit SO-2001 --type sales_order --original 5400 --proposed 5650 \
    --field unit_price --field quantity --as bob --notes "supplier reprice"`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&submitDocType, "type", "t", "", "document type (purchase_order, sales_order, rma)")
	submitCmd.Flags().Float64Var(&submitOriginal, "original", 0, "original document total")
	submitCmd.Flags().Float64Var(&submitProposed, "proposed", 0, "proposed document total")
	submitCmd.Flags().StringArrayVar(&submitFields, "field", nil, "changed document field (repeatable)")
	submitCmd.Flags().StringVar(&submitActor, "as", "", "submitting principal (default: $USER)")
	submitCmd.Flags().StringVar(&submitNotes, "notes", "", "submission notes")
	submitCmd.Flags().StringArrayVar(&submitPermissions, "permission", nil, "permission granted to the principal (repeatable)")
	_ = submitCmd.MarkFlagRequired("type")
}

// getPrincipal resolves the acting principal from the --as flag or the
// environment.
func getPrincipal(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

// SubmitOutput is the submit command result.
type SubmitOutput struct {
	RevisionID       string  `json:"revision_id"`
	DocumentID       string  `json:"document_id"`
	Version          string  `json:"version"`
	Status           string  `json:"status"`
	RequiresApproval bool    `json:"requires_approval"`
	ChainID          string  `json:"chain_id,omitempty"`
	Cycle            int     `json:"cycle"`
	Tier             string  `json:"tier"`
	PercentChange    float64 `json:"percent_change"`
	OriginalTotal    float64 `json:"original_total"`
	ProposedTotal    float64 `json:"proposed_total"`
}

// runSubmit implements the submit command.
func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newContainerApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer closeApp(app)

	result, err := app.SubmitRevision().Execute(ctx, lifecycle.SubmitRevisionInput{
		DocumentID:    args[0],
		DocumentType:  revision.DocumentType(submitDocType),
		OriginalTotal: submitOriginal,
		ProposedTotal: submitProposed,
		ChangedFields: submitFields,
		SubmittedBy:   getPrincipal(submitActor),
		Notes:         submitNotes,
		Permissions:   submitPermissions,
	})
	if err != nil {
		return fmt.Errorf("failed to submit revision: %w", err)
	}

	output := &SubmitOutput{
		RevisionID:       string(result.RevisionID),
		DocumentID:       args[0],
		Version:          result.Version,
		Status:           string(result.Status),
		RequiresApproval: result.RequiresApproval,
		ChainID:          result.ChainID,
		Cycle:            result.CycleNumber,
		Tier:             string(result.Tier),
		PercentChange:    result.Delta.PercentChange,
		OriginalTotal:    result.Delta.OriginalCost,
		ProposedTotal:    result.Delta.NewCost,
	}

	if outputJSON {
		return outputSubmitJSON(output)
	}
	return outputSubmitText(output)
}

func outputSubmitJSON(output *SubmitOutput) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputSubmitText(output *SubmitOutput) error {
	printSuccess("Revision submitted")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Revision ID:\t%s\n", output.RevisionID)
	fmt.Fprintf(w, "  Document:\t%s\n", output.DocumentID)
	fmt.Fprintf(w, "  Version:\t%s\n", output.Version)
	fmt.Fprintf(w, "  Status:\t%s\n", formatState(output.Status))
	fmt.Fprintf(w, "  Change:\t%+.1f%% (%.2f → %.2f)\n",
		output.PercentChange*100, output.OriginalTotal, output.ProposedTotal)
	fmt.Fprintf(w, "  Review cycle:\t%d\n", output.Cycle)
	_ = w.Flush()
	fmt.Println()

	if output.RequiresApproval {
		fmt.Printf("Approval required at tier %q, chain %s\n", output.Tier, output.ChainID)
		fmt.Println()
		printTitle("Next Steps")
		fmt.Println()
		fmt.Println("  Approvers can list their queue with 'gateflow pending --as <id>'")
		fmt.Printf("  and decide with 'gateflow approve %s --as <id>'\n", output.ChainID)
		fmt.Println()
	} else {
		printInfo("Change is within the approval thresholds, fast-tracked")
	}

	return nil
}
