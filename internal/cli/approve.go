package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/application/lifecycle"
	"github.com/gateflow-tech/gateflow/internal/domain/approval"
)

var (
	decideActor       string
	decideNotes       string
	decidePermissions []string
	decideYes         bool
)

var approveCmd = &cobra.Command{
	Use:   "approve <chain-id>",
	Short: "Approve your pending step on an approval chain",
	Long: `Record an approval on the chain step awaiting you.

When your approval satisfies the current level's policy the chain moves
to the next level; approving the last level completes the chain and the
document advances to approved.

Examples:
  # Approve as the manager-level approver
  gateflow approve chain_ab12cd34 --as manager-1

  # Approve with a note, skipping the confirmation prompt
  gateflow approve chain_ab12cd34 --as director-1 --notes "budget ok" --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

var rejectCmd = &cobra.Command{
	Use:   "reject <chain-id>",
	Short: "Reject your pending step on an approval chain",
	Long: `Record a rejection on the chain step awaiting you.

One rejection completes the chain immediately: the document returns to
draft and the submitter must rework and resubmit it.

Examples:
  gateflow reject chain_ab12cd34 --as director-1 --notes "quote expired"`,
	Args: cobra.ExactArgs(1),
	RunE: runReject,
}

func init() {
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	for _, cmd := range []*cobra.Command{approveCmd, rejectCmd} {
		cmd.Flags().StringVar(&decideActor, "as", "", "deciding principal (default: $USER)")
		cmd.Flags().StringVar(&decideNotes, "notes", "", "decision notes")
		cmd.Flags().StringArrayVar(&decidePermissions, "permission", nil, "permission granted to the principal (repeatable)")
		cmd.Flags().BoolVarP(&decideYes, "yes", "y", false, "skip the confirmation prompt")
	}
}

// DecisionOutput is the approve/reject command result.
type DecisionOutput struct {
	ChainID       string `json:"chain_id"`
	StepID        string `json:"step_id"`
	Action        string `json:"action"`
	ChainComplete bool   `json:"chain_complete"`
	Outcome       string `json:"outcome"`
	CurrentLevel  int    `json:"current_level"`
	RevisionID    string `json:"revision_id"`
	Status        string `json:"status"`
	CycleOutcome  string `json:"cycle_outcome,omitempty"`
}

// promptForDecision asks for confirmation before recording a decision.
func promptForDecision(action approval.StepAction, chainID string) (bool, error) {
	if decideYes {
		return true, nil
	}

	fmt.Printf("Record %s on chain %s? [y/N]: ", action, chainID)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// runApprove implements the approve command.
func runApprove(cmd *cobra.Command, args []string) error {
	return runDecide(cmd, args[0], approval.ActionApprove)
}

// runReject implements the reject command.
func runReject(cmd *cobra.Command, args []string) error {
	return runDecide(cmd, args[0], approval.ActionReject)
}

// runDecide records one decision on a chain and reports where that leaves
// the document.
func runDecide(cmd *cobra.Command, chainID string, action approval.StepAction) error {
	ctx := cmd.Context()

	if !outputJSON {
		ok, err := promptForDecision(action, chainID)
		if err != nil {
			return err
		}
		if !ok {
			printWarning("Decision not recorded")
			return nil
		}
	}

	app, err := newContainerApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer closeApp(app)

	result, err := app.DecideStep().Execute(ctx, lifecycle.DecideStepInput{
		ChainID:     chainID,
		PrincipalID: getPrincipal(decideActor),
		Action:      action,
		Notes:       decideNotes,
		Permissions: decidePermissions,
	})
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	output := &DecisionOutput{
		ChainID:       result.ChainID,
		StepID:        result.StepID,
		Action:        string(action),
		ChainComplete: result.ChainComplete,
		Outcome:       string(result.Outcome),
		CurrentLevel:  result.CurrentLevel,
		RevisionID:    string(result.RevisionID),
		Status:        string(result.Status),
		CycleOutcome:  string(result.CycleOutcome),
	}

	if outputJSON {
		return outputDecisionJSON(output)
	}
	return outputDecisionText(output)
}

func outputDecisionJSON(output *DecisionOutput) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputDecisionText(output *DecisionOutput) error {
	printSuccess(fmt.Sprintf("Recorded %s on step %s", output.Action, output.StepID))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Chain:\t%s\n", output.ChainID)
	fmt.Fprintf(w, "  Revision:\t%s\n", output.RevisionID)
	fmt.Fprintf(w, "  Document status:\t%s\n", formatState(output.Status))
	if output.ChainComplete {
		fmt.Fprintf(w, "  Chain outcome:\t%s\n", output.Outcome)
	} else {
		fmt.Fprintf(w, "  Awaiting level:\t%d\n", output.CurrentLevel)
	}
	_ = w.Flush()
	fmt.Println()

	if !output.ChainComplete {
		printInfo(fmt.Sprintf("Chain continues at level %d", output.CurrentLevel))
		return nil
	}

	switch approval.Outcome(output.Outcome) {
	case approval.OutcomeApproved:
		printSuccess("Chain complete: revision approved")
	case approval.OutcomeRejected:
		printWarning("Chain complete: changes requested")
		fmt.Println()
		printTitle("Next Steps")
		fmt.Println()
		fmt.Printf("  The submitter can rework and resubmit with 'gateflow resubmit %s'\n", output.RevisionID)
		fmt.Println()
	}

	return nil
}
