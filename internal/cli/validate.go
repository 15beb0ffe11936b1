package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gateflow-tech/gateflow/internal/fsm"
	"github.com/gateflow-tech/gateflow/internal/workflows"
)

var validateCmd = &cobra.Command{
	Use:   "validate [definition.yaml...]",
	Short: "Validate configuration and workflow definition files",
	Long: `Validate the GateFlow configuration, plus any workflow definition
files given as arguments.

Definition files are parsed and compiled the same way the engine loads
them, so a file that validates here will load at runtime: every state
referenced by a transition must exist, the initial state must be
declared, and guards must resolve against the built-in guard kinds
(permission, threshold, predicate).

Examples:
  # Validate the active configuration
  gateflow validate

  # Validate a custom workflow definition
  gateflow validate workflows/invoice.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate implements the validate command.
func runValidate(cmd *cobra.Command, args []string) error {
	// Config made it through loading and validation in PersistentPreRunE.
	printSuccess("Configuration is valid")

	if len(args) == 0 {
		return nil
	}

	reg := workflows.NewGuardRegistry()
	failed := 0
	for _, path := range args {
		if err := validateDefinitionFile(path, reg); err != nil {
			printError(fmt.Sprintf("%s: %v", path, err))
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d definition files failed validation", failed, len(args))
	}
	return nil
}

// validateDefinitionFile compiles one definition file and reports its shape.
func validateDefinitionFile(path string, reg *fsm.GuardRegistry) error {
	machine, err := fsm.LoadDefinitionFile(path, reg)
	if err != nil {
		return err
	}

	def := machine.Definition()
	printSuccess(fmt.Sprintf("%s: definition %q is valid (%d states, %d actions)",
		path, def.ID, len(def.States), len(def.Actions())))
	return nil
}
