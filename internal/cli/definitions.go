package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/domain/threshold"
	"github.com/gateflow-tech/gateflow/internal/fsm"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

var definitionsCmd = &cobra.Command{
	Use:   "definitions",
	Short: "List the predefined workflow definitions",
	Long: `List the workflow definitions GateFlow ships with.

Each definition drives one document type: purchase orders, sales orders,
RMAs, plus the generic revision status workflow. The listing shows each
definition's states, actions, and terminal states.

Examples:
  # List all definitions
  gateflow definitions

  # Machine-readable listing
  gateflow definitions --json`,
	RunE: runDefinitions,
}

func init() {
	rootCmd.AddCommand(definitionsCmd)
}

// catalogFromConfig builds the workflow catalog with the configured
// thresholds. Definition-level commands use it directly instead of
// initializing the full container, so listing workflows never touches
// storage.
func catalogFromConfig() *workflows.Catalog {
	return workflows.NewCatalog(workflows.WithThresholds(threshold.Config{
		PercentThreshold:  cfg.Thresholds.Percent,
		AbsoluteThreshold: cfg.Thresholds.Absolute,
		Mode:              threshold.Mode(cfg.Thresholds.Mode),
	}))
}

// DefinitionOutput describes one workflow definition for display.
type DefinitionOutput struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Initial   string   `json:"initial"`
	States    int      `json:"states"`
	Actions   int      `json:"actions"`
	Terminals []string `json:"terminals"`
}

func buildDefinitionOutput(def fsm.Definition) DefinitionOutput {
	var terminals []string
	for _, s := range def.States {
		if s.Terminal {
			terminals = append(terminals, string(s.ID))
		}
	}
	return DefinitionOutput{
		ID:        def.ID,
		Name:      def.Name,
		Initial:   string(def.Initial),
		States:    len(def.States),
		Actions:   len(def.Actions()),
		Terminals: terminals,
	}
}

// runDefinitions implements the definitions command.
func runDefinitions(cmd *cobra.Command, args []string) error {
	catalog := catalogFromConfig()

	outputs := make([]DefinitionOutput, 0, 4)
	for _, def := range catalog.All() {
		outputs = append(outputs, buildDefinitionOutput(def))
	}

	if outputJSON {
		return outputDefinitionsJSON(outputs)
	}
	return outputDefinitionsText(outputs)
}

func outputDefinitionsJSON(outputs []DefinitionOutput) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(outputs)
}

func outputDefinitionsText(outputs []DefinitionOutput) error {
	printTitle("Workflow Definitions")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tINITIAL\tSTATES\tACTIONS\tTERMINALS")
	for _, out := range outputs {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%d\t%d\n",
			out.ID, out.Name, out.Initial, out.States, out.Actions, len(out.Terminals))
	}
	_ = w.Flush()

	fmt.Println()
	printSubtle(fmt.Sprintf("Export one with 'gateflow export <id>', e.g. 'gateflow export %s'", workflows.PurchaseOrderID))
	return nil
}
