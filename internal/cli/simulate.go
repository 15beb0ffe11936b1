package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/fsm"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

var (
	simulateOriginal    float64
	simulateProposed    float64
	simulateActor       string
	simulatePermissions []string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <definition-id> <action>...",
	Short: "Drive a workflow definition through a sequence of actions",
	Long: `Simulate a workflow run: start a fresh instance of the definition and
apply the given actions in order, without touching any stored documents.

The simulated payload carries the flags below, so threshold and
permission guards evaluate exactly as they would on a real submission.
The run stops at the first denied action and lists what was available
from that state.

Examples:
  # A large change goes through the approval path
  gateflow simulate purchase-order-status submit approve \
    --original 10000 --proposed 12500 \
    --permission purchase_order:approve

  # A small change is fast-tracked
  gateflow simulate purchase-order-status fast_track --original 10000 --proposed 10100`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Float64Var(&simulateOriginal, "original", 0, "original document total for threshold guards")
	simulateCmd.Flags().Float64Var(&simulateProposed, "proposed", 0, "proposed document total for threshold guards")
	simulateCmd.Flags().StringVar(&simulateActor, "as", "simulator", "principal recorded in the instance history")
	simulateCmd.Flags().StringArrayVar(&simulatePermissions, "permission", nil, "permission granted to the simulated principal (repeatable)")
}

// SimulateStep records one applied action in a simulation run.
type SimulateStep struct {
	Action  string `json:"action"`
	From    string `json:"from"`
	To      string `json:"to,omitempty"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// SimulateOutput is the result of a simulation run.
type SimulateOutput struct {
	Definition string         `json:"definition"`
	Steps      []SimulateStep `json:"steps"`
	Final      string         `json:"final"`
	Terminal   bool           `json:"terminal"`
}

// runSimulate implements the simulate command.
func runSimulate(cmd *cobra.Command, args []string) error {
	catalog := catalogFromConfig()

	machine, err := catalog.Machine(args[0])
	if err != nil {
		printInfo("Run 'gateflow definitions' to list the available definitions")
		return err
	}

	p := fsm.Payload{
		Actor:       simulateActor,
		Permissions: simulatePermissions,
		Data: map[string]any{
			workflows.DataOriginalTotal: simulateOriginal,
			workflows.DataProposedTotal: simulateProposed,
		},
	}

	inst := machine.NewInstance(nil)
	output := &SimulateOutput{Definition: machine.Definition().ID}

	for _, action := range args[1:] {
		var result fsm.Result
		inst, result = machine.Transition(inst, fsm.Action(action), p)

		step := SimulateStep{
			Action:  action,
			From:    string(result.PreviousState),
			Success: result.Success,
		}
		if result.Success {
			step.To = string(result.CurrentState)
		} else {
			step.Reason = result.Reason
		}
		output.Steps = append(output.Steps, step)

		if !result.Success {
			break
		}
	}

	output.Final = string(inst.State)
	output.Terminal = machine.IsTerminal(inst)

	if outputJSON {
		return outputSimulateJSON(output)
	}
	return outputSimulateText(output, machine, inst, p)
}

func outputSimulateJSON(output *SimulateOutput) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return err
	}
	if last := output.Steps[len(output.Steps)-1]; !last.Success {
		return fmt.Errorf("action %q denied: %s", last.Action, last.Reason)
	}
	return nil
}

func outputSimulateText(output *SimulateOutput, machine *fsm.Machine, inst fsm.Instance, p fsm.Payload) error {
	printTitle(fmt.Sprintf("Simulation: %s", output.Definition))
	fmt.Println()

	for _, step := range output.Steps {
		if step.Success {
			printSuccess(fmt.Sprintf("%s: %s → %s", step.Action, step.From, step.To))
		} else {
			printError(fmt.Sprintf("%s denied in %s: %s", step.Action, step.From, step.Reason))
		}
	}

	fmt.Println()
	if output.Terminal {
		fmt.Printf("Final state: %s (terminal)\n", formatState(output.Final))
	} else {
		fmt.Printf("Final state: %s\n", formatState(output.Final))
		if available := machine.AvailableActions(inst, p); len(available) > 0 {
			fmt.Println("Available actions:")
			for _, a := range available {
				if a.Enabled {
					fmt.Printf("  %s → %s\n", a.Action, a.Target)
				} else {
					printSubtle(fmt.Sprintf("  %s → %s (disabled: %s)", a.Action, a.Target, a.Reason))
				}
			}
		}
	}

	if last := output.Steps[len(output.Steps)-1]; !last.Success {
		return fmt.Errorf("action %q denied: %s", last.Action, last.Reason)
	}
	return nil
}
